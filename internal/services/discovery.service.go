package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"pricewatch/config"
	"pricewatch/internal/chains"
	"pricewatch/internal/models"
	"pricewatch/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"golang.org/x/net/html"
)

// Raw-text fallback for pages whose markup the DOM parser mangles. The
// structured walk and this pattern are merged and deduplicated; neither
// path is treated as authoritative alone.
var hrefPattern = regexp.MustCompile(`(?i)href\s*=\s*["']([^"']+)["']`)

// DiscoveryService enumerates candidate full-price catalog links on a
// chain's portal listing, in the portal's own largest-first order.
type DiscoveryService struct {
	config   config.Config
	httpText *HTTPTextService
	log      logger.Logger
}

func NewDiscoveryService(cfg config.Config, httpText *HTTPTextService) *DiscoveryService {
	return &DiscoveryService{
		config:   cfg,
		httpText: httpText,
		log:      logger.New("discoveryService"),
	}
}

// Discover pages through the listing endpoint and returns accepted
// candidates. A failed page is logged and skipped unless fail-fast is
// configured; a failed page never loses candidates from other pages.
func (s *DiscoveryService) Discover(
	ctx context.Context,
	chain chains.Chain,
) ([]models.DiscoveredFile, error) {
	log := s.log.Function("Discover")

	policy := RetryPolicy{
		MaxRetries:  s.config.DiscoverRetries,
		BaseDelay:   time.Duration(s.config.DiscoverBaseDelayMS) * time.Millisecond,
		MaxDelay:    time.Duration(s.config.DiscoverMaxDelayMS) * time.Millisecond,
		JitterRatio: 0.2,
		IsRetryable: IsRetryableHTTP,
	}
	pageTimeout := time.Duration(s.config.DiscoverPageTimeoutMS) * time.Millisecond

	out := make([]models.DiscoveredFile, 0, s.config.DiscoverMaxFiles)
	seen := make(map[string]struct{})

	log.Info("Fetching portal listing pages",
		"chain", chain.Code,
		"maxPages", s.config.DiscoverMaxPages,
		"maxFiles", s.config.DiscoverMaxFiles,
	)

	for page := 1; page <= s.config.DiscoverMaxPages; page++ {
		pageURL := chain.ListingPageURL(page)

		pageHTML, err := WithRetry(ctx, log, policy, func() (string, error) {
			return s.httpText.GetText(ctx, pageURL, pageTimeout, chain.Headers)
		})
		if err != nil {
			if s.config.DiscoverFailFast {
				return nil, log.Err("listing page fetch failed", err, "chain", chain.Code, "page", page)
			}
			log.Warn("Listing page fetch failed, skipping", "chain", chain.Code, "page", page, "error", err)
			continue
		}

		hrefs := extractHrefs(pageHTML)
		if s.config.DiscoverDebug && page == 1 {
			sample := hrefs
			if len(sample) > 20 {
				sample = sample[:20]
			}
			log.Debug("First page hrefs", "hrefs", sample)
		}

		for _, href := range hrefs {
			href = decodeEntities(strings.TrimSpace(href))
			if href == "" {
				continue
			}

			abs, err := chain.ResolveHref(href)
			if err != nil {
				continue
			}

			filename := utils.FilenameFromURL(abs)
			if !utils.IsPriceFullArchive(filename) {
				continue
			}

			if _, dup := seen[abs]; dup {
				continue
			}
			seen[abs] = struct{}{}

			out = append(out, models.DiscoveredFile{
				Chain:    chain.Code,
				FileURL:  abs,
				Filename: filename,
				StoreID:  utils.ExtractStoreID(filename),
			})

			if len(out) >= s.config.DiscoverMaxFiles {
				log.Info("Discovery reached file cap", "files", len(out))
				return out, nil
			}
		}
	}

	log.Info("Discovery complete", "chain", chain.Code, "files", len(out))
	return out, nil
}

// extractHrefs collects anchor targets from a listing page via a DOM
// walk plus the regex fallback. Duplicates are fine here; the caller
// deduplicates by resolved absolute URL.
func extractHrefs(page string) []string {
	var hrefs []string

	if doc, err := html.Parse(strings.NewReader(page)); err == nil {
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.ElementNode && n.Data == "a" {
				for _, attr := range n.Attr {
					if attr.Key == "href" && attr.Val != "" {
						hrefs = append(hrefs, attr.Val)
					}
				}
			}
			for child := n.FirstChild; child != nil; child = child.NextSibling {
				walk(child)
			}
		}
		walk(doc)
	}

	for _, m := range hrefPattern.FindAllStringSubmatch(page, -1) {
		if m[1] != "" {
			hrefs = append(hrefs, m[1])
		}
	}

	return hrefs
}

// decodeEntities handles the one entity portals actually emit inside
// href attributes the regex path sees raw.
func decodeEntities(s string) string {
	return strings.ReplaceAll(s, "&amp;", "&")
}
