package services_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"pricewatch/config"
	"pricewatch/internal/models"
	"pricewatch/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchToScratch(t *testing.T) {
	body := []byte("pretend this is a gzip catalog")
	expectedHash := sha256.Sum256(body)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer server.Close()

	cfg := config.Config{ScratchDir: t.TempDir()}
	svc := services.NewFetchService(cfg)

	result, err := svc.FetchToScratch(context.Background(), testChain(server.URL), models.DiscoveredFile{
		Chain:    "testchain",
		FileURL:  server.URL + "/PriceFull1-001-202608290300.gz",
		Filename: "PriceFull1-001-202608290300.gz",
	})

	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(expectedHash[:]), result.ContentHash)
	assert.Equal(t, int64(len(body)), result.ByteCount)

	onDisk, err := os.ReadFile(result.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, body, onDisk)

	svc.Cleanup(result.LocalPath)
	_, err = os.Stat(result.LocalPath)
	assert.True(t, os.IsNotExist(err))
}

func TestFetchToScratch_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Config{ScratchDir: t.TempDir()}
	svc := services.NewFetchService(cfg)

	_, err := svc.FetchToScratch(context.Background(), testChain(server.URL), models.DiscoveredFile{
		Chain:    "testchain",
		FileURL:  server.URL + "/PriceFull1-001-202608290300.gz",
		Filename: "PriceFull1-001-202608290300.gz",
	})

	require.Error(t, err)
	var statusErr *services.HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
}

func TestFetchToScratch_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 200 with no payload
	}))
	defer server.Close()

	scratchDir := t.TempDir()
	cfg := config.Config{ScratchDir: scratchDir}
	svc := services.NewFetchService(cfg)

	_, err := svc.FetchToScratch(context.Background(), testChain(server.URL), models.DiscoveredFile{
		Chain:    "testchain",
		FileURL:  server.URL + "/PriceFull1-001-202608290300.gz",
		Filename: "PriceFull1-001-202608290300.gz",
	})
	require.Error(t, err)

	// The partial scratch file must not linger.
	entries, err := os.ReadDir(scratchDir + "/testchain")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetchToScratch_SendsChainHeaders(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("content"))
	}))
	defer server.Close()

	cfg := config.Config{ScratchDir: t.TempDir()}
	svc := services.NewFetchService(cfg)

	_, err := svc.FetchToScratch(context.Background(), testChain(server.URL), models.DiscoveredFile{
		Chain:    "testchain",
		FileURL:  server.URL + "/PriceFull1-001-202608290300.gz",
		Filename: "PriceFull1-001-202608290300.gz",
	})

	require.NoError(t, err)
	assert.Equal(t, "Mozilla/5.0", gotUserAgent)
}
