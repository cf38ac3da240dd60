package chains

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Chain describes one grocery chain's public price transparency portal.
// Discovery and fetch are fully driven by this definition; adding a
// chain means adding an entry to the registry below.
type Chain struct {
	// Code is the stable identifier persisted on records and used in
	// storage paths.
	Code string

	// PortalBaseURL is the root relative hrefs are resolved against.
	PortalBaseURL string

	// ListingPath is the paginated listing endpoint, including the
	// largest-first sort parameters so full catalogs rank ahead of
	// small partial feeds.
	ListingPath string

	// Headers are sent on every portal request. Some portals reject
	// requests without a browser-looking User-Agent.
	Headers map[string]string
}

var registry = map[string]Chain{
	"shufersal": {
		Code:          "shufersal",
		PortalBaseURL: "https://prices.shufersal.co.il/",
		ListingPath:   "FileObject/UpdateCategory?catID=0&storeId=0&sort=Size&sortdir=DESC",
		Headers: map[string]string{
			"User-Agent":      "Mozilla/5.0",
			"Accept":          "text/html,*/*",
			"Referer":         "https://prices.shufersal.co.il/",
			"Accept-Language": "he-IL,he;q=0.9,en;q=0.8",
		},
	},
}

// Get returns the chain definition for a code. An unknown chain is a
// bootstrap error, not a per-file one.
func Get(code string) (Chain, error) {
	chain, ok := registry[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return Chain{}, fmt.Errorf("unknown chain: %s", code)
	}
	return chain, nil
}

// Codes lists all registered chain codes in stable order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// ListingPageURL builds the URL for one page of the portal's file
// listing.
func (c Chain) ListingPageURL(page int) string {
	return fmt.Sprintf("%s%s&page=%d", c.PortalBaseURL, c.ListingPath, page)
}

// ResolveHref turns a href from the listing page into an absolute URL
// against the portal base. Already-absolute hrefs pass through.
func (c Chain) ResolveHref(href string) (string, error) {
	if href == "" {
		return "", fmt.Errorf("empty href")
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href, nil
	}

	base, err := url.Parse(c.PortalBaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid portal base URL: %w", err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid href %q: %w", href, err)
	}

	return base.ResolveReference(ref).String(), nil
}
