package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStoragePath(t *testing.T) {
	day := time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC)
	storeID := "042"

	assert.Equal(t,
		"shufersal/2026-08-29/store_042/PriceFull_abc123.gz",
		StoragePath("shufersal", day, &storeID, "abc123"),
	)
}

func TestStoragePath_UnknownStore(t *testing.T) {
	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	assert.Equal(t,
		"shufersal/2026-08-29/store_unknown/PriceFull_abc123.gz",
		StoragePath("shufersal", day, nil, "abc123"),
	)

	empty := ""
	assert.Equal(t,
		"shufersal/2026-08-29/store_unknown/PriceFull_abc123.gz",
		StoragePath("shufersal", day, &empty, "abc123"),
	)
}

func TestStoragePath_NormalizesToUTC(t *testing.T) {
	tz := time.FixedZone("UTC+3", 3*60*60)
	// 01:30 local on the 30th is still the 29th in UTC.
	day := time.Date(2026, 8, 30, 1, 30, 0, 0, tz)

	assert.Equal(t,
		"shufersal/2026-08-29/store_unknown/PriceFull_def456.gz",
		StoragePath("shufersal", day, nil, "def456"),
	)
}
