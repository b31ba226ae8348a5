package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImgURL      string          `json:"img_url"`
}

// UnitAmount is the price in the currency's minor unit (cents).
func (p Product) UnitAmount() int64 {
	return p.Price.Shift(2).Round(0).IntPart()
}

// NewProductRequest carries the raw fields of the add-product form.
type NewProductRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Price       PriceInput `json:"price"`
	ImgURL      string     `json:"img_url"`
}

// PriceInput is a submitted price. JSON clients may send it as a string or a number.
type PriceInput string

func (p *PriceInput) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = PriceInput(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("price must be a number or a string: %w", err)
	}
	*p = PriceInput(n.String())
	return nil
}
