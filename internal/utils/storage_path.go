package utils

import (
	"fmt"
	"time"
)

// StoragePath builds the content-addressed blob key for a raw catalog
// archive: {chain}/{yyyy-mm-dd}/store_{id|unknown}/PriceFull_{hash}.gz.
// The path depends only on the digest and metadata, never on the URL the
// file was discovered under, so reruns land duplicates on the same key.
func StoragePath(chain string, day time.Time, storeID *string, contentHash string) string {
	storePart := "store_unknown"
	if storeID != nil && *storeID != "" {
		storePart = "store_" + *storeID
	}

	return fmt.Sprintf(
		"%s/%s/%s/PriceFull_%s.gz",
		chain,
		day.UTC().Format("2006-01-02"),
		storePart,
		contentHash,
	)
}
