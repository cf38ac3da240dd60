package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Store id conventions seen across the price transparency portals.
// Long form: PriceFull<chain>-<sub>-<store>-YYYYMMDD-HHMMSS.gz
// Short form: PriceFull<chain>-<store>-YYYYMMDDHHMM.gz
// Partial feeds use the same shapes with a Price prefix.
var storeIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)PriceFull\d+-\d+-([0-9]{1,4})-\d{8}-\d{6}\.gz`),
	regexp.MustCompile(`(?i)PriceFull\d+-([0-9]{1,4})-\d{8,14}\.gz`),
	regexp.MustCompile(`(?i)Price\d+-\d+-([0-9]{1,4})-\d{8}-\d{6}\.gz`),
	regexp.MustCompile(`(?i)Price\d+-([0-9]{1,4})-\d{12}\.gz`),
}

var unsafeFilenameChars = regexp.MustCompile(`[^\w.\-]`)

// IsPriceFullArchive reports whether a filename looks like a full price
// catalog archive rather than a promotional feed or some other artifact.
func IsPriceFullArchive(filename string) bool {
	f := strings.ToLower(filename)
	return strings.HasSuffix(f, ".gz") &&
		strings.HasPrefix(f, "pricefull") &&
		!strings.Contains(f, "promo")
}

// FilenameFromURL extracts the last path segment with any query string
// stripped. Unparseable URLs get a synthetic name so downstream scratch
// file naming still works.
func FilenameFromURL(raw string) string {
	if u, err := url.Parse(raw); err == nil {
		if base := lastSegment(u.Path); base != "" {
			return base
		}
	}
	noQuery := strings.SplitN(raw, "?", 2)[0]
	if base := lastSegment(noQuery); base != "" {
		return base
	}
	return fmt.Sprintf("file_%d.gz", time.Now().UnixMilli())
}

func lastSegment(path string) string {
	parts := strings.Split(path, "/")
	return parts[len(parts)-1]
}

// ExtractStoreID pulls the numeric store segment out of a catalog
// filename, zero-padded to three digits. Returns nil when no known
// pattern matches; an unknown store is not an error.
func ExtractStoreID(nameOrURL string) *string {
	for _, pattern := range storeIDPatterns {
		if m := pattern.FindStringSubmatch(nameOrURL); m != nil {
			id := m[1]
			for len(id) < 3 {
				id = "0" + id
			}
			return &id
		}
	}
	return nil
}

// SanitizeFilename replaces anything outside [A-Za-z0-9_.-] so remote
// names are safe to use as local scratch file names.
func SanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}
