package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	logger "github.com/Bparsons0904/goLogger"
)

// HTTPStatusError carries the response status so retry classification
// and not-found handling can inspect it with errors.As.
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// HTTPTextService is the single-shot timeout-bounded GET used for
// listing pages. File downloads go through FetchService instead, which
// streams to disk.
type HTTPTextService struct {
	client *http.Client
	log    logger.Logger
}

func NewHTTPTextService() *HTTPTextService {
	return &HTTPTextService{
		// Per-call deadlines come from the request context; the client
		// itself only pools connections.
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
				MaxConnsPerHost: 10,
			},
		},
		log: logger.New("httpTextService"),
	}
}

// GetText performs a GET bounded by timeout and returns the decoded
// body. Any non-2xx status is an *HTTPStatusError.
func (s *HTTPTextService) GetText(
	ctx context.Context,
	url string,
	timeout time.Duration,
	headers map[string]string,
) (string, error) {
	log := s.log.Function("GetText")

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", log.Err("failed to create HTTP request", err, "url", url)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPStatusError{StatusCode: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", log.Err("failed to read response body", err, "url", url)
	}

	return string(body), nil
}
