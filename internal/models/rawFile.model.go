package models

import (
	"time"
)

type RawFileStatus string

const (
	RawFileStatusDiscovered RawFileStatus = "discovered"
	RawFileStatusUploaded   RawFileStatus = "uploaded"
	RawFileStatusLoading    RawFileStatus = "loading"
	RawFileStatusLoaded     RawFileStatus = "loaded"
	RawFileStatusFailed     RawFileStatus = "failed"
)

// ErrorTextLimit bounds the error text persisted on a record so a giant
// response body embedded in an error message cannot bloat the row.
const ErrorTextLimit = 8000

// DiscoveredFile is a candidate link found on the portal listing.
// Ephemeral; nothing is persisted until the content has been fetched
// and hashed.
type DiscoveredFile struct {
	Chain    string  `json:"chain"`
	FileURL  string  `json:"file_url"`
	Filename string  `json:"filename"`
	StoreID  *string `json:"store_id,omitempty"`
}

// RawFile is the durable unit of work for one fetched catalog archive.
// Identity for deduplication is (chain, content_hash): two URLs that
// resolve to byte-identical content are the same logical file.
//
// Lifecycle: discovered -> uploaded -> loading -> {loaded | failed};
// failed records are reprocess candidates on a later run.
type RawFile struct {
	BaseModel

	Chain       string        `gorm:"not null;uniqueIndex:idx_raw_files_chain_hash" json:"chain"`
	ContentHash string        `gorm:"not null;uniqueIndex:idx_raw_files_chain_hash" json:"content_hash"`
	StoreID     *string       `                                                     json:"store_id,omitempty"`
	FileURL     string        `gorm:"not null"                                      json:"file_url"`
	Filename    string        `gorm:"not null"                                      json:"filename"`
	StoragePath *string       `                                                     json:"storage_path,omitempty"`
	ByteCount   int64         `                                                     json:"byte_count"`
	Status      RawFileStatus `gorm:"not null;default:'discovered';index"           json:"status"`
	FetchedAt   *time.Time    `                                                     json:"fetched_at,omitempty"`
	ProcessedAt *time.Time    `                                                     json:"processed_at,omitempty"`
	Error       *string       `                                                     json:"error,omitempty"`
}

func (RawFile) TableName() string {
	return "raw_files"
}

// IsReprocessCandidate reports whether a record found during dedup
// lookup should be processed again rather than skipped.
func (r *RawFile) IsReprocessCandidate() bool {
	return r.Status != RawFileStatusLoaded
}

// TruncateError bounds error text to ErrorTextLimit bytes.
func TruncateError(msg string) string {
	if len(msg) > ErrorTextLimit {
		return msg[:ErrorTextLimit]
	}
	return msg
}
