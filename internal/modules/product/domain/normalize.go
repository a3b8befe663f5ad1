package domain

import (
	"strconv"

	"github.com/eskrenkovic/csv-import-go/internal/modules/core"

	"github.com/shopspring/decimal"
)

const (
	FieldSKU          = "sku"
	FieldName         = "name"
	FieldPrice        = "price"
	FieldQuantity     = "quantity"
	FieldReorderLevel = "reorder_level"
	FieldStatus       = "status"

	DefaultStatus = "active"
)

// Product is a candidate row for the simple products table.
type Product struct {
	Name     string              `db:"name" json:"name"`
	Price    decimal.NullDecimal `db:"price" json:"price"`
	Quantity *int64              `db:"quantity" json:"quantity"`
}

func (p Product) Eligible() bool {
	return p.Name != ""
}

// SKUProduct is a candidate row for the sku keyed products table.
type SKUProduct struct {
	SKU          string              `db:"sku" json:"sku"`
	Name         string              `db:"name" json:"name"`
	Quantity     decimal.NullDecimal `db:"quantity" json:"quantity"`
	Price        decimal.NullDecimal `db:"price" json:"price"`
	ReorderLevel decimal.NullDecimal `db:"reorder_level" json:"reorder_level"`
	Status       string              `db:"status" json:"status"`
}

func (p SKUProduct) Eligible() bool {
	return p.SKU != "" && p.Name != ""
}

// Decimal magnitudes outside float64 range are not finite numbers.
const (
	maxDecimalMagnitude = 308
	minDecimalMagnitude = -324
)

// ParseDecimal converts raw into a nullable decimal. Empty input and input
// that is not a finite number both yield null; malformed is true only for
// the latter.
func ParseDecimal(raw string) (value decimal.NullDecimal, malformed bool) {
	if raw == "" {
		return decimal.NullDecimal{}, false
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, true
	}

	if d.IsZero() {
		return decimal.NullDecimal{Decimal: decimal.Zero, Valid: true}, false
	}

	// Checked before anything renders d, which costs time proportional to
	// the exponent.
	magnitude := int64(d.Exponent()) + int64(d.NumDigits()) - 1
	if magnitude > maxDecimalMagnitude || magnitude < minDecimalMagnitude {
		return decimal.NullDecimal{}, true
	}

	return decimal.NullDecimal{Decimal: d, Valid: true}, false
}

// ParseInteger converts raw into a nullable base 10 integer, following the
// same null rules as ParseDecimal.
func ParseInteger(raw string) (value *int64, malformed bool) {
	if raw == "" {
		return nil, false
	}

	i, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, true
	}

	return &i, false
}

type warningCollector struct {
	line     int
	warnings []FieldWarning
}

func (c *warningCollector) decimal(record RawRecord, field string) decimal.NullDecimal {
	raw := record.Get(field)
	value, malformed := ParseDecimal(raw)
	if malformed {
		c.warnings = append(c.warnings, FieldWarning{Line: c.line, Field: field, Value: raw})
	}
	return value
}

func (c *warningCollector) integer(record RawRecord, field string) *int64 {
	raw := record.Get(field)
	value, malformed := ParseInteger(raw)
	if malformed {
		c.warnings = append(c.warnings, FieldWarning{Line: c.line, Field: field, Value: raw})
	}
	return value
}

func NormalizeProduct(record RawRecord) (Product, []FieldWarning) {
	c := warningCollector{line: record.Line}

	p := Product{
		Name:     record.Get(FieldName),
		Price:    c.decimal(record, FieldPrice),
		Quantity: c.integer(record, FieldQuantity),
	}

	return p, c.warnings
}

func NormalizeSKUProduct(record RawRecord) (SKUProduct, []FieldWarning) {
	c := warningCollector{line: record.Line}

	status := record.Get(FieldStatus)
	if status == "" {
		status = DefaultStatus
	}

	p := SKUProduct{
		SKU:          record.Get(FieldSKU),
		Name:         record.Get(FieldName),
		Quantity:     c.decimal(record, FieldQuantity),
		Price:        c.decimal(record, FieldPrice),
		ReorderLevel: c.decimal(record, FieldReorderLevel),
		Status:       status,
	}

	return p, c.warnings
}

type eligible interface {
	Eligible() bool
}

func normalizeAll[T eligible](records []RawRecord, normalize func(RawRecord) (T, []FieldWarning)) ([]T, []FieldWarning) {
	var warnings []FieldWarning

	rows := core.Map(records, func(r RawRecord) T {
		row, w := normalize(r)
		warnings = append(warnings, w...)
		return row
	})

	return core.Filter(rows, func(row T) bool { return row.Eligible() }), warnings
}

// NormalizeProducts normalizes every record and then drops the rows that are
// not eligible for insertion. Input order is preserved.
func NormalizeProducts(records []RawRecord) ([]Product, []FieldWarning) {
	return normalizeAll(records, NormalizeProduct)
}

func NormalizeSKUProducts(records []RawRecord) ([]SKUProduct, []FieldWarning) {
	return normalizeAll(records, NormalizeSKUProduct)
}
