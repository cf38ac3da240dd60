package services_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"pricewatch/config"
	"pricewatch/internal/chains"
	"pricewatch/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discoveryConfig() config.Config {
	return config.Config{
		DiscoverMaxPages:      2,
		DiscoverMaxFiles:      200,
		DiscoverPageTimeoutMS: 5000,
		DiscoverRetries:       1,
		DiscoverBaseDelayMS:   1,
		DiscoverMaxDelayMS:    2,
		LoadBatchSize:         500,
	}
}

func testChain(baseURL string) chains.Chain {
	return chains.Chain{
		Code:          "testchain",
		PortalBaseURL: baseURL + "/",
		ListingPath:   "listing?sort=Size&sortdir=DESC",
		Headers:       map[string]string{"User-Agent": "Mozilla/5.0"},
	}
}

func TestDiscovery_FindsFullPriceArchives(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		switch page {
		case "1":
			fmt.Fprint(w, `<html><body>
				<a href="/files/PriceFull123-001-202608290300.gz">full catalog</a>
				<a href="/files/Price123-001-202608290300.gz">partial feed</a>
				<a href="/files/PromoFull123-001-202608290300.gz">promos</a>
				<a href="/files/PriceFull123-002-202608290300.gz">another store</a>
			</body></html>`)
		default:
			fmt.Fprint(w, `<html><body>no files here</body></html>`)
		}
	}))
	defer server.Close()

	svc := services.NewDiscoveryService(discoveryConfig(), services.NewHTTPTextService())
	files, err := svc.Discover(context.Background(), testChain(server.URL))

	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "PriceFull123-001-202608290300.gz", files[0].Filename)
	assert.Equal(t, server.URL+"/files/PriceFull123-001-202608290300.gz", files[0].FileURL)
	require.NotNil(t, files[0].StoreID)
	assert.Equal(t, "001", *files[0].StoreID)
	assert.Equal(t, "testchain", files[0].Chain)

	require.NotNil(t, files[1].StoreID)
	assert.Equal(t, "002", *files[1].StoreID)
}

func TestDiscovery_MalformedMarkupStillYieldsLinks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Unclosed tags and an href with an entity-encoded query; the
		// regex fallback has to cope with both.
		fmt.Fprint(w, `<html><body><table><tr><td>
			<a href="/download/PriceFull77-003-202608290300.gz?token=x&amp;sig=y">catalog
			<div><p>
		</body>`)
	}))
	defer server.Close()

	svc := services.NewDiscoveryService(discoveryConfig(), services.NewHTTPTextService())
	files, err := svc.Discover(context.Background(), testChain(server.URL))

	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0].FileURL, "sig=y")
	assert.NotContains(t, files[0].FileURL, "&amp;")
	assert.Equal(t, "PriceFull77-003-202608290300.gz", files[0].Filename)
}

func TestDiscovery_DeduplicatesAcrossPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Both pages list the same file.
		fmt.Fprint(w, `<a href="/files/PriceFull1-001-202608290300.gz">x</a>`)
	}))
	defer server.Close()

	svc := services.NewDiscoveryService(discoveryConfig(), services.NewHTTPTextService())
	files, err := svc.Discover(context.Background(), testChain(server.URL))

	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestDiscovery_RespectsFileCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := range 20 {
			fmt.Fprintf(w, `<a href="/files/PriceFull1-%03d-202608290300.gz">x</a>`, i+1)
		}
	}))
	defer server.Close()

	cfg := discoveryConfig()
	cfg.DiscoverMaxFiles = 5

	svc := services.NewDiscoveryService(cfg, services.NewHTTPTextService())
	files, err := svc.Discover(context.Background(), testChain(server.URL))

	require.NoError(t, err)
	assert.Len(t, files, 5)
}

func TestDiscovery_FailedPageIsSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `<a href="/files/PriceFull1-001-202608290300.gz">x</a>`)
	}))
	defer server.Close()

	svc := services.NewDiscoveryService(discoveryConfig(), services.NewHTTPTextService())
	files, err := svc.Discover(context.Background(), testChain(server.URL))

	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestDiscovery_FailFastAbortsOnPageError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cfg := discoveryConfig()
	cfg.DiscoverFailFast = true

	svc := services.NewDiscoveryService(cfg, services.NewHTTPTextService())
	_, err := svc.Discover(context.Background(), testChain(server.URL))

	assert.Error(t, err)
}
