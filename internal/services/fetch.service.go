package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"pricewatch/config"
	"pricewatch/internal/chains"
	"pricewatch/internal/models"
	"pricewatch/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
)

// FetchResult describes one archive landed in the scratch directory.
type FetchResult struct {
	LocalPath   string
	ContentHash string
	ByteCount   int64
}

// FetchService streams archives to local scratch storage, hashing as it
// copies so the content hash never requires a second pass over the file.
type FetchService struct {
	config config.Config
	client *http.Client
	log    logger.Logger
}

func NewFetchService(cfg config.Config) *FetchService {
	return &FetchService{
		config: cfg,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		log: logger.New("fetchService"),
	}
}

// FetchToScratch downloads one discovered archive. On any error the
// partial scratch file is removed before returning.
func (s *FetchService) FetchToScratch(
	ctx context.Context,
	chain chains.Chain,
	file models.DiscoveredFile,
) (*FetchResult, error) {
	log := s.log.Function("FetchToScratch")

	dir := filepath.Join(s.config.ScratchDir, chain.Code)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, log.Err("failed to create scratch directory", err, "dir", dir)
	}

	localPath := filepath.Join(dir, fmt.Sprintf("%d_%s",
		time.Now().UnixMilli(),
		utils.SanitizeFilename(file.Filename),
	))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.FileURL, nil)
	if err != nil {
		return nil, log.Err("failed to build download request", err, "url", file.FileURL)
	}
	for key, value := range chain.Headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, log.Err("download request failed", err, "url", file.FileURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, URL: file.FileURL}
	}

	out, err := os.Create(localPath)
	if err != nil {
		return nil, log.Err("failed to create scratch file", err, "path", localPath)
	}

	hash := sha256.New()
	written, err := io.Copy(io.MultiWriter(out, hash), resp.Body)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		s.Cleanup(localPath)
		return nil, log.Err("failed to stream archive to scratch", err, "path", localPath)
	}
	if written == 0 {
		s.Cleanup(localPath)
		return nil, log.ErrMsg("downloaded archive is empty")
	}

	result := &FetchResult{
		LocalPath:   localPath,
		ContentHash: hex.EncodeToString(hash.Sum(nil)),
		ByteCount:   written,
	}

	log.Debug("Archive fetched",
		"filename", file.Filename,
		"bytes", written,
		"hash", result.ContentHash,
	)
	return result, nil
}

// Cleanup removes a scratch file, tolerating files already gone.
func (s *FetchService) Cleanup(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Function("Cleanup").Warn("Failed to remove scratch file", "path", path, "error", err)
	}
}
