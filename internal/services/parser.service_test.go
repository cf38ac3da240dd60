package services_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"pricewatch/internal/models"
	"pricewatch/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipXML(t *testing.T, xml string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(xml))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return &buf
}

func itemXML(code string, price string) string {
	return fmt.Sprintf(`<Item>
		<ItemCode>%s</ItemCode>
		<ItemName>Milk 3%%</ItemName>
		<ItemPrice>%s</ItemPrice>
		<Quantity>1.0</Quantity>
		<UnitOfMeasure>liter</UnitOfMeasure>
		<bIsWeighted>0</bIsWeighted>
	</Item>`, code, price)
}

func catalogXML(items ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?><Root><Items>` +
		strings.Join(items, "") + `</Items></Root>`
}

func collectSink(collected *[]*models.Price) services.PriceBatchSink {
	return func(ctx context.Context, batch []*models.Price) error {
		*collected = append(*collected, batch...)
		return nil
	}
}

func TestParsePriceFull(t *testing.T) {
	parser := services.NewParserService()
	fetchedAt := time.Date(2026, 8, 29, 3, 0, 0, 0, time.UTC)
	storeID := "001"

	var rows []*models.Price
	total, err := parser.ParsePriceFull(
		context.Background(),
		gzipXML(t, catalogXML(itemXML("100", "12.90"), itemXML("200", "7.5"))),
		services.ParseOptions{
			RawFileID: 7,
			Chain:     "testchain",
			StoreID:   &storeID,
			FetchedAt: &fetchedAt,
			BatchSize: 500,
			OnBatch:   collectSink(&rows),
		},
	)

	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, 7, first.RawFileID)
	assert.Equal(t, "testchain", first.Chain)
	assert.Equal(t, "100", first.ItemCode)
	require.NotNil(t, first.ItemName)
	assert.Equal(t, "Milk 3%", *first.ItemName)
	require.NotNil(t, first.Price)
	assert.Equal(t, "12.9", first.Price.String())
	require.NotNil(t, first.Quantity)
	assert.Equal(t, 1.0, *first.Quantity)
	require.NotNil(t, first.IsWeighted)
	assert.False(t, *first.IsWeighted)
	require.NotNil(t, first.StoreID)
	assert.Equal(t, "001", *first.StoreID)

	assert.Equal(t, "7.5", rows[1].Price.String())
}

func TestParsePriceFull_BatchBoundaries(t *testing.T) {
	parser := services.NewParserService()

	items := make([]string, 7)
	for i := range items {
		items[i] = itemXML(fmt.Sprintf("%d", i+1), "1.00")
	}

	var batches [][]*models.Price
	total, err := parser.ParsePriceFull(
		context.Background(),
		gzipXML(t, catalogXML(items...)),
		services.ParseOptions{
			RawFileID: 1,
			Chain:     "testchain",
			BatchSize: 3,
			OnBatch: func(ctx context.Context, batch []*models.Price) error {
				copied := make([]*models.Price, len(batch))
				copy(copied, batch)
				batches = append(batches, copied)
				return nil
			},
		},
	)

	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 3)
	assert.Len(t, batches[1], 3)
	assert.Len(t, batches[2], 1)
}

func TestParsePriceFull_MaxItemsStopsEarly(t *testing.T) {
	parser := services.NewParserService()

	items := make([]string, 10)
	for i := range items {
		items[i] = itemXML(fmt.Sprintf("%d", i+1), "1.00")
	}

	var rows []*models.Price
	total, err := parser.ParsePriceFull(
		context.Background(),
		gzipXML(t, catalogXML(items...)),
		services.ParseOptions{
			RawFileID: 1,
			Chain:     "testchain",
			BatchSize: 500,
			MaxItems:  4,
			OnBatch:   collectSink(&rows),
		},
	)

	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, rows, 4)
}

func TestParsePriceFull_PermissiveFields(t *testing.T) {
	parser := services.NewParserService()

	xml := catalogXML(`<Item>
		<ItemCode>300</ItemCode>
		<ItemPrice>not-a-number</ItemPrice>
		<QtyInPackage>6</QtyInPackage>
		<SomethingUnknown>ignored value</SomethingUnknown>
	</Item>`)

	var rows []*models.Price
	total, err := parser.ParsePriceFull(
		context.Background(),
		gzipXML(t, xml),
		services.ParseOptions{
			RawFileID: 1,
			Chain:     "testchain",
			BatchSize: 500,
			OnBatch:   collectSink(&rows),
		},
	)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "300", row.ItemCode)
	assert.Nil(t, row.Price, "unparseable price becomes nil, row still produced")
	assert.Nil(t, row.ItemName)
	assert.Nil(t, row.IsWeighted, "absent weighted flag stays nil")
	require.NotNil(t, row.Quantity, "QtyInPackage is the quantity fallback")
	assert.Equal(t, 6.0, *row.Quantity)
}

func TestParsePriceFull_WeightedFlag(t *testing.T) {
	parser := services.NewParserService()

	xml := catalogXML(
		`<Item><ItemCode>1</ItemCode><bIsWeighted>1</bIsWeighted></Item>`,
		`<Item><ItemCode>2</ItemCode><bIsWeighted>0</bIsWeighted></Item>`,
		`<Item><ItemCode>3</ItemCode></Item>`,
		`<Item><ItemCode>4</ItemCode><IsWeighted>1</IsWeighted></Item>`,
		`<Item><ItemCode>5</ItemCode><IsWeighted>0</IsWeighted></Item>`,
	)

	var rows []*models.Price
	_, err := parser.ParsePriceFull(
		context.Background(),
		gzipXML(t, xml),
		services.ParseOptions{
			RawFileID: 1,
			Chain:     "testchain",
			BatchSize: 500,
			OnBatch:   collectSink(&rows),
		},
	)

	require.NoError(t, err)
	require.Len(t, rows, 5)
	require.NotNil(t, rows[0].IsWeighted)
	assert.True(t, *rows[0].IsWeighted)
	require.NotNil(t, rows[1].IsWeighted)
	assert.False(t, *rows[1].IsWeighted)
	assert.Nil(t, rows[2].IsWeighted)

	// Some feeds name the element IsWeighted instead of bIsWeighted.
	require.NotNil(t, rows[3].IsWeighted)
	assert.True(t, *rows[3].IsWeighted)
	require.NotNil(t, rows[4].IsWeighted)
	assert.False(t, *rows[4].IsWeighted)
}

func TestParsePriceFull_SinkErrorAborts(t *testing.T) {
	parser := services.NewParserService()

	items := make([]string, 10)
	for i := range items {
		items[i] = itemXML(fmt.Sprintf("%d", i+1), "1.00")
	}

	sinkErr := errors.New("insert failed")
	calls := 0
	_, err := parser.ParsePriceFull(
		context.Background(),
		gzipXML(t, catalogXML(items...)),
		services.ParseOptions{
			RawFileID: 1,
			Chain:     "testchain",
			BatchSize: 3,
			OnBatch: func(ctx context.Context, batch []*models.Price) error {
				calls++
				if calls == 2 {
					return sinkErr
				}
				return nil
			},
		},
	)

	require.Error(t, err)
	assert.Equal(t, 2, calls, "parse stops at the failing batch")
}

func TestParsePriceFull_MalformedXML(t *testing.T) {
	parser := services.NewParserService()

	var rows []*models.Price
	_, err := parser.ParsePriceFull(
		context.Background(),
		gzipXML(t, `<Root><Items><Item><ItemCode>1</ItemCode>`+"\x03broken"),
		services.ParseOptions{
			RawFileID: 1,
			Chain:     "testchain",
			BatchSize: 500,
			OnBatch:   collectSink(&rows),
		},
	)

	assert.Error(t, err)
}

func TestParsePriceFull_NotGzip(t *testing.T) {
	parser := services.NewParserService()

	var rows []*models.Price
	_, err := parser.ParsePriceFull(
		context.Background(),
		bytes.NewBufferString("plain text, not gzip"),
		services.ParseOptions{
			RawFileID: 1,
			Chain:     "testchain",
			BatchSize: 500,
			OnBatch:   collectSink(&rows),
		},
	)

	assert.Error(t, err)
}
