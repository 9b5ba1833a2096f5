package listing

import "github.com/goliatone/go-listing/layering"

// Basics holds the product name and description.
type Basics struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// Info holds categorical product information.
type Info struct {
	Category    string `json:"category" validate:"required"`
	Subcategory string `json:"subcategory"`
	Brand       string `json:"brand"`
	Vendor      string `json:"vendor"`
	Collection  string `json:"collection"`
	Condition   string `json:"condition"`
}

// Media references uploaded assets by opaque identifier.
type Media struct {
	ImageIDs []string `json:"imageIds" validate:"min=1,dive,required"`
}

// Shipping holds package dimensions and delivery settings.
type Shipping struct {
	Weight        float64 `json:"weight" validate:"gt=0"`
	Length        float64 `json:"length" validate:"gte=0"`
	Width         float64 `json:"width" validate:"gte=0"`
	Height        float64 `json:"height" validate:"gte=0"`
	WeightUnit    string  `json:"weightUnit" validate:"required"`
	DimensionUnit string  `json:"dimensionUnit" validate:"required"`
	FreeShipping  bool    `json:"freeShipping"`
	ShippingClass string  `json:"shippingClass"`
}

// ProductDraft pools every step's sub-state. A Wizard owns exactly one.
type ProductDraft struct {
	Basics      Basics          `json:"basics"`
	Info        Info            `json:"info"`
	Media       Media           `json:"media"`
	Variants    []VariantOption `json:"variants"`
	Inventories []InventoryRow  `json:"inventories"`
	Pricing     []PricingRow    `json:"pricing"`
	Shipping    Shipping        `json:"shipping"`
	Tags        []string        `json:"tags"`
}

// NewDraft returns an empty draft whose dependent collections are already
// reconciled to the no-variant combination.
func NewDraft() ProductDraft {
	var draft ProductDraft
	draft.Sync()
	return draft
}

// Sync normalizes variant ordering and reconciles inventory and pricing rows
// against the current combinations. It returns the keys it reconciled to.
func (d *ProductDraft) Sync() []CombinationKey {
	d.Variants = normalizeOrder(d.Variants)
	keys := ComputeCombinations(d.Variants)
	d.Inventories = ReconcileInventory(d.Inventories, keys)
	d.Pricing = ReconcilePricing(d.Pricing, keys)
	return keys
}

// Clone returns a deep copy of the draft.
func (d ProductDraft) Clone() ProductDraft {
	return layering.Clone(d)
}

// stepState returns a pointer to the sub-state owned by step, or nil.
func (d *ProductDraft) stepState(step Step) any {
	switch step {
	case StepBasics:
		return &d.Basics
	case StepInfo:
		return &d.Info
	case StepMedia:
		return &d.Media
	case StepVariants:
		return &d.Variants
	case StepInventory:
		return &d.Inventories
	case StepPricing:
		return &d.Pricing
	case StepShipping:
		return &d.Shipping
	case StepTags:
		return &d.Tags
	default:
		return nil
	}
}

func (d *ProductDraft) inventoryIndex(key CombinationKey) int {
	for i := range d.Inventories {
		if d.Inventories[i].Variant == key {
			return i
		}
	}
	return -1
}

func (d *ProductDraft) pricingIndex(key CombinationKey) int {
	for i := range d.Pricing {
		if d.Pricing[i].Variant == key {
			return i
		}
	}
	return -1
}
