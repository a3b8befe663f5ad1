package domain

import "fmt"

// Variant selects the product schema and insert policy of an import.
type Variant string

const (
	// VariantSimple appends every valid row to products.
	VariantSimple Variant = "simple"
	// VariantSKU inserts into sku_products and skips rows whose sku exists.
	VariantSKU Variant = "sku"
)

func ParseVariant(s string) (Variant, error) {
	switch v := Variant(s); v {
	case VariantSimple, VariantSKU:
		return v, nil
	default:
		return "", fmt.Errorf("unsupported import variant: '%s'", s)
	}
}

