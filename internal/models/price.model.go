package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Price is one parsed catalog line item, owned by exactly one RawFile.
// Rows for a raw_file_id are wholly replaced whenever that file is
// (re)loaded, never merged field by field. Numeric fields that fail to
// parse are nil, never zero; zero is a valid price. An item with no
// code keeps an empty ItemCode rather than being dropped.
type Price struct {
	BaseModel

	RawFileID int     `gorm:"not null;index"                    json:"raw_file_id"`
	Chain     string  `gorm:"not null;index:idx_prices_lookup"  json:"chain"`
	StoreID   *string `gorm:"index:idx_prices_lookup"           json:"store_id,omitempty"`

	ItemCode string  `gorm:"index:idx_prices_lookup" json:"item_code"`
	Barcode  *string `                               json:"barcode,omitempty"`
	ItemName *string `                               json:"item_name,omitempty"`

	Price      *decimal.Decimal `gorm:"type:numeric(14,4)" json:"price,omitempty"`
	Quantity   *float64         `                          json:"quantity,omitempty"`
	Unit       *string          `                          json:"unit,omitempty"`
	IsWeighted *bool            `                          json:"is_weighted,omitempty"`

	FetchedAt *time.Time `json:"fetched_at,omitempty"`
}

func (Price) TableName() string {
	return "prices"
}
