package uistore

import (
	"math"
	"strconv"
	"strings"
)

const (
	// MinQuantity is the smallest quantity a cart line can hold.
	MinQuantity = 1
	// MaxQuantity is the largest quantity a cart line can hold.
	MaxQuantity = 99
)

// ClampQuantity bounds n to [MinQuantity, MaxQuantity]. Zero and negative
// values become MinQuantity.
func ClampQuantity(n int) int {
	if n < MinQuantity {
		return MinQuantity
	}
	if n > MaxQuantity {
		return MaxQuantity
	}
	return n
}

// ClampQuantityFloat floors f and clamps it. NaN becomes MinQuantity.
func ClampQuantityFloat(f float64) int {
	if math.IsNaN(f) || f < MinQuantity {
		return MinQuantity
	}
	if f > MaxQuantity {
		return MaxQuantity
	}
	return int(math.Floor(f))
}

// ParsePrice normalizes a raw price to a non-negative number.
//
// Plain numeric literals are used directly (negative ones become 0). Anything
// else is reduced to its digits and dots, so "1200$" and "$1,200" both parse
// as 1200. Input that still fails to parse yields 0.
func ParsePrice(raw RawPrice) float64 {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return 0
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return sanitizePrice(f)
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return sanitizePrice(f)
}

func sanitizePrice(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// FormatPrice renders a normalized price as a RawPrice literal.
func FormatPrice(f float64) RawPrice {
	return RawPrice(strconv.FormatFloat(f, 'f', -1, 64))
}
