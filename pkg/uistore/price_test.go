package uistore

import (
	"encoding/json"
	"math"
	"testing"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  RawPrice
		want float64
	}{
		{"1200", 1200},
		{"1200$", 1200},
		{"$1,299.50", 1299.5},
		{"  89.99 ", 89.99},
		{"1e3", 1000},
		{"", 0},
		{"free", 0},
		{"1.2.3", 0},
		{"-15", 0},
		{"NaN", 0},
		{"Inf", 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.raw), func(t *testing.T) {
			if got := ParsePrice(tt.raw); got != tt.want {
				t.Errorf("ParsePrice(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestClampQuantity(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, 1}, {0, 1}, {1, 1}, {42, 42}, {99, 99}, {100, 99}, {1 << 30, 99},
	}
	for _, tt := range tests {
		if got := ClampQuantity(tt.in); got != tt.want {
			t.Errorf("ClampQuantity(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestClampQuantityFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{2.9, 2}, {0.4, 1}, {-1, 1}, {math.NaN(), 1}, {150.5, 99}, {math.Inf(1), 99},
	}
	for _, tt := range tests {
		if got := ClampQuantityFloat(tt.in); got != tt.want {
			t.Errorf("ClampQuantityFloat(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	if got := FormatPrice(1200); got != "1200" {
		t.Errorf("FormatPrice(1200) = %q", got)
	}
	if got := FormatPrice(19.99); got != "19.99" {
		t.Errorf("FormatPrice(19.99) = %q", got)
	}
	if ParsePrice(FormatPrice(1299.5)) != 1299.5 {
		t.Error("FormatPrice output should parse back")
	}
}

func TestItemJSONAcceptsNumbersAndStrings(t *testing.T) {
	var a, b Item
	if err := json.Unmarshal([]byte(`{"id":30,"name":"Aspire","price":1200}`), &a); err != nil {
		t.Fatalf("numeric: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"id":"30","name":"Aspire","price":"1200$"}`), &b); err != nil {
		t.Fatalf("string: %v", err)
	}
	if a.ID != b.ID {
		t.Errorf("ids differ: %q vs %q", a.ID, b.ID)
	}
	if ParsePrice(a.Price) != ParsePrice(b.Price) {
		t.Errorf("prices differ: %q vs %q", a.Price, b.Price)
	}

	var bad Item
	if err := json.Unmarshal([]byte(`{"id":{"x":1}}`), &bad); err == nil {
		t.Error("expected error for object id")
	}
}

func TestProductIDCanonicalNumbers(t *testing.T) {
	tests := []struct {
		literal string
		want    ProductID
	}{
		{`1`, "1"},
		{`1.0`, "1"},
		{`1e0`, "1"},
		{`30.50`, "30.5"},
		{`"1.0"`, "1.0"},
		{`12345678901234567890`, "12345678901234567890"},
	}
	for _, tt := range tests {
		var id ProductID
		if err := json.Unmarshal([]byte(tt.literal), &id); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.literal, err)
		}
		if id != tt.want {
			t.Errorf("Unmarshal(%s) = %q, want %q", tt.literal, id, tt.want)
		}
	}
}

func TestNumericIDsShareCartLine(t *testing.T) {
	var a, b Item
	if err := json.Unmarshal([]byte(`{"id":1,"name":"Aspire","price":1200}`), &a); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`{"id":1.0,"name":"Aspire","price":1200}`), &b); err != nil {
		t.Fatal(err)
	}
	s := Reduce(State{}, AddToCart{Item: a})
	s = Reduce(s, AddToCart{Item: b})
	if len(s.Cart) != 1 || s.Cart[0].Quantity != 2 {
		t.Errorf("cart = %+v, want one line with quantity 2", s.Cart)
	}
}
