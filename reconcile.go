package listing

// Row is an element of a collection keyed by combination.
type Row interface {
	RowKey() CombinationKey
}

// InventoryRow carries stock identifiers for one combination.
type InventoryRow struct {
	Variant CombinationKey `json:"variant"`
	SKU     string         `json:"sku" validate:"required"`
	Barcode string         `json:"barcode"`
}

// RowKey implements Row.
func (r InventoryRow) RowKey() CombinationKey { return r.Variant }

// PricingRow carries price and quantity for one combination.
type PricingRow struct {
	Variant      CombinationKey `json:"variant"`
	Quantity     int            `json:"quantity" validate:"gt=0"`
	RegularPrice float64        `json:"regularPrice" validate:"gt=0"`
	SalePrice    float64        `json:"salePrice" validate:"gte=0"`
	IncludeTax   bool           `json:"includeTax"`
	Tax          float64        `json:"tax" validate:"gte=0"`
}

// RowKey implements Row.
func (r PricingRow) RowKey() CombinationKey { return r.Variant }

// NewInventoryRow returns the placeholder row for key.
func NewInventoryRow(key CombinationKey) InventoryRow {
	return InventoryRow{Variant: key}
}

// NewPricingRow returns the placeholder row for key.
func NewPricingRow(key CombinationKey) PricingRow {
	return PricingRow{Variant: key}
}

// Reconcile returns one row per key, in key order. Existing rows are reused
// by key with their field values intact, new keys get fresh(key), and rows
// whose key is absent are dropped. When existing holds the same key twice
// the first occurrence wins.
func Reconcile[R Row](existing []R, keys []CombinationKey, fresh func(CombinationKey) R) []R {
	byKey := make(map[CombinationKey]R, len(existing))
	for _, row := range existing {
		key := row.RowKey()
		if _, seen := byKey[key]; seen {
			continue
		}
		byKey[key] = row
	}

	out := make([]R, 0, len(keys))
	for _, key := range keys {
		if row, ok := byKey[key]; ok {
			out = append(out, row)
			continue
		}
		out = append(out, fresh(key))
	}
	return out
}

// ReconcileInventory reconciles inventory rows against keys.
func ReconcileInventory(rows []InventoryRow, keys []CombinationKey) []InventoryRow {
	return Reconcile(rows, keys, NewInventoryRow)
}

// ReconcilePricing reconciles pricing rows against keys.
func ReconcilePricing(rows []PricingRow, keys []CombinationKey) []PricingRow {
	return Reconcile(rows, keys, NewPricingRow)
}

// ReconcileStats summarizes what a reconciliation pass changed.
type ReconcileStats struct {
	Keys    int
	Kept    int
	Added   int
	Dropped int
}

func diffKeys[R Row](before []R, keys []CombinationKey) ReconcileStats {
	previous := make(map[CombinationKey]struct{}, len(before))
	for _, row := range before {
		previous[row.RowKey()] = struct{}{}
	}
	stats := ReconcileStats{Keys: len(keys)}
	for _, key := range keys {
		if _, ok := previous[key]; ok {
			stats.Kept++
			delete(previous, key)
			continue
		}
		stats.Added++
	}
	stats.Dropped = len(previous)
	return stats
}
