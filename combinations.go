package listing

import "math"

// ComputeCombinations expands the variant tree into combination keys.
//
// Options are visited in OrderIndex order and the first option is the
// outermost axis, so [Red Blue] x [S M] yields Red/S, Red/M, Blue/S, Blue/M.
// Values with blank text are ignored and options left without values drop out
// of the product. When nothing participates the result is [NoVariantsKey].
//
// The function does not de-duplicate; value texts are unique per option.
func ComputeCombinations(options []VariantOption) []CombinationKey {
	var axes [][]string
	for _, option := range orderedOptions(options) {
		texts := option.participatingTexts()
		if len(texts) == 0 {
			continue
		}
		axes = append(axes, texts)
	}
	if len(axes) == 0 {
		return []CombinationKey{NoVariantsKey}
	}

	acc := axes[0]
	for _, axis := range axes[1:] {
		next := make([]string, 0, len(acc)*len(axis))
		for _, prefix := range acc {
			for _, text := range axis {
				next = append(next, prefix+CombinationDelimiter+text)
			}
		}
		acc = next
	}

	keys := make([]CombinationKey, len(acc))
	for i, key := range acc {
		keys[i] = CombinationKey(key)
	}
	return keys
}

// CombinationCount returns the number of keys ComputeCombinations would
// produce without materializing them. The product saturates at math.MaxInt
// instead of overflowing.
func CombinationCount(options []VariantOption) int {
	count := 1
	for _, option := range options {
		n := len(option.participatingTexts())
		if n == 0 {
			continue
		}
		if count > math.MaxInt/n {
			return math.MaxInt
		}
		count *= n
	}
	return count
}

func sameKeys(a, b []CombinationKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
