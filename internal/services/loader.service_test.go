package services_test

import (
	"context"
	"testing"
	"time"

	"pricewatch/internal/models"
	"pricewatch/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderLoad_ReplacesExistingRows(t *testing.T) {
	prices := newFakePriceRepo()
	loader := services.NewLoaderService(prices, services.NewParserService())

	stale := &models.Price{RawFileID: 5, Chain: "testchain", ItemCode: "old"}
	require.NoError(t, prices.InsertBatch(context.Background(), []*models.Price{stale}))

	fetchedAt := time.Now().UTC()
	rawFile := &models.RawFile{
		Chain:     "testchain",
		Filename:  "PriceFull1-001-202608290300.gz",
		FetchedAt: &fetchedAt,
	}
	rawFile.ID = 5

	count, err := loader.Load(
		context.Background(),
		rawFile,
		gzipXML(t, catalogXML(itemXML("100", "4.20"), itemXML("200", "9.90"))),
		services.LoadOptions{BatchSize: 500},
	)

	require.NoError(t, err)
	assert.Equal(t, 2, count)

	rows := prices.rows[5]
	require.Len(t, rows, 2, "stale rows replaced, not appended to")
	assert.Equal(t, "100", rows[0].ItemCode)
	assert.Equal(t, "200", rows[1].ItemCode)
}

func TestLoaderLoad_SinkFailurePropagates(t *testing.T) {
	prices := newFakePriceRepo()
	prices.failNext = true
	loader := services.NewLoaderService(prices, services.NewParserService())

	rawFile := &models.RawFile{Chain: "testchain", Filename: "PriceFull1-001-202608290300.gz"}
	rawFile.ID = 9

	_, err := loader.Load(
		context.Background(),
		rawFile,
		gzipXML(t, catalogXML(itemXML("100", "4.20"))),
		services.LoadOptions{BatchSize: 500},
	)

	assert.Error(t, err)
}
