package services

import (
	"compress/gzip"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"pricewatch/internal/models"
	"pricewatch/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/shopspring/decimal"
)

// PriceBatchSink receives full batches as the parser accumulates them.
// Returning an error aborts the parse.
type PriceBatchSink func(ctx context.Context, batch []*models.Price) error

// ParseOptions controls one streaming parse of a price archive.
type ParseOptions struct {
	RawFileID     int
	Chain         string
	StoreID       *string
	FetchedAt     *time.Time
	BatchSize     int
	MaxItems      int
	ProgressEvery int
	OnBatch       PriceBatchSink
}

// ParserService turns gzip XML price archives into Price rows without
// ever holding the decompressed document in memory.
type ParserService struct {
	log logger.Logger
}

func NewParserService() *ParserService {
	return &ParserService{log: logger.New("parserService")}
}

// ParsePriceFull streams gzip XML from r, emitting batches to
// opts.OnBatch. It returns the number of items handed to the sink.
// Unknown elements inside an item are retained as fields; unknown
// elements outside items are skipped. A decode error or sink error
// aborts the parse.
func (s *ParserService) ParsePriceFull(
	ctx context.Context,
	r io.Reader,
	opts ParseOptions,
) (int, error) {
	log := s.log.Function("ParsePriceFull")

	if opts.OnBatch == nil {
		return 0, log.ErrMsg("parse requires a batch sink")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	gz, err := gzip.NewReader(r)
	if err != nil {
		return 0, log.Err("failed to open gzip stream", err)
	}
	defer gz.Close()

	decoder := xml.NewDecoder(gz)

	var (
		total        int
		batch        = make([]*models.Price, 0, opts.BatchSize)
		inItem       bool
		currentField string
		fields       map[string]string
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := opts.OnBatch(ctx, batch); err != nil {
			return log.Err("batch sink failed", err, "items", total)
		}
		batch = make([]*models.Price, 0, opts.BatchSize)
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return total, log.Err("malformed XML in price archive", err, "items", total)
		}

		switch t := token.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if strings.EqualFold(name, "Item") {
				inItem = true
				fields = make(map[string]string, 12)
			} else if inItem {
				currentField = name
			}

		case xml.CharData:
			if inItem && currentField != "" {
				fields[currentField] += string(t)
			}

		case xml.EndElement:
			name := t.Name.Local
			if inItem && strings.EqualFold(name, "Item") {
				inItem = false
				currentField = ""
				batch = append(batch, s.priceFromFields(fields, opts))
				total++

				if opts.ProgressEvery > 0 && total%opts.ProgressEvery == 0 {
					log.Info("Parse progress", "items", total)
				}

				if len(batch) >= opts.BatchSize {
					if err := flush(); err != nil {
						return total - len(batch), err
					}
				}

				if opts.MaxItems > 0 && total >= opts.MaxItems {
					if err := flush(); err != nil {
						return total - len(batch), err
					}
					log.Info("Parse reached item cap", "items", total)
					return total, nil
				}
			} else if inItem {
				currentField = ""
			}
		}
	}

	if err := flush(); err != nil {
		return total - len(batch), err
	}

	log.Debug("Parse complete", "items", total)
	return total, nil
}

// priceFromFields maps one accumulated item element to a Price row.
// Fields are permissive: absent or unparseable values become nil, the
// row is still produced.
func (s *ParserService) priceFromFields(fields map[string]string, opts ParseOptions) *models.Price {
	price := &models.Price{
		RawFileID: opts.RawFileID,
		Chain:     opts.Chain,
		StoreID:   opts.StoreID,
		ItemCode:  strings.TrimSpace(fields["ItemCode"]),
		Barcode:   optString(fields["ItemBarcode"]),
		ItemName:  optString(fields["ItemName"]),
		Price:     optDecimal(fields["ItemPrice"]),
		Unit:      optString(fields["UnitOfMeasure"]),
		FetchedAt: opts.FetchedAt,
	}

	qty := fields["Quantity"]
	if strings.TrimSpace(qty) == "" {
		qty = fields["QtyInPackage"]
	}
	price.Quantity = optFloat(qty)

	// Feeds disagree on the element name for the weighted flag.
	raw, ok := fields["bIsWeighted"]
	if !ok {
		raw, ok = fields["IsWeighted"]
	}
	if ok {
		weighted := strings.TrimSpace(raw) == "1"
		price.IsWeighted = &weighted
	}

	return price
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	s, _ = utils.CleanUTF8(s)
	if s == "" {
		return nil
	}
	return &s
}

func optDecimal(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

func optFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
