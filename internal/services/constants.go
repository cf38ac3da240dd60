package services

const (
	ContentTypeGzip = "application/gzip"

	DefaultBatchSize     = 500
	DefaultProgressEvery = 5000
)
