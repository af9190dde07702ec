// Package checkout validates the checkout form, prices the order and places it
// against a session's store.
//
// Placing an order only produces a confirmation and clears the cart; nothing
// is persisted and no payment is taken.
package checkout

import (
	"math/rand"
	"regexp"
	"strings"

	"github.com/vango-dev/chrono/internal/errors"
	"github.com/vango-dev/chrono/pkg/uistore"
)

var emailRE = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ShippingMethod selects delivery speed.
type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
)

// PaymentMethod selects how the customer intends to pay.
type PaymentMethod string

const (
	PaymentCard   PaymentMethod = "card"
	PaymentCOD    PaymentMethod = "cod"
	PaymentPayPal PaymentMethod = "paypal"
)

// Customer holds contact details.
type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Address is the shipping address. Line2 is optional.
type Address struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	Country string `json:"country"`
	Zip     string `json:"zip"`
}

// Form is the submitted checkout form.
type Form struct {
	Customer Customer       `json:"customer"`
	Address  Address        `json:"address"`
	Shipping ShippingMethod `json:"shipping"`
	Payment  PaymentMethod  `json:"payment"`
	Notes    string         `json:"notes,omitempty"`
	Agree    bool           `json:"agree"`
}

// Missing returns the labels of required fields that are blank or invalid,
// in form order.
func (f Form) Missing() []string {
	var missing []string
	check := func(ok bool, label string) {
		if !ok {
			missing = append(missing, label)
		}
	}
	check(notBlank(f.Customer.FirstName), "First name")
	check(notBlank(f.Customer.LastName), "Last name")
	check(emailRE.MatchString(f.Customer.Email), "Valid email")
	check(notBlank(f.Customer.Phone), "Phone")
	check(notBlank(f.Address.Line1), "Address line 1")
	check(notBlank(f.Address.City), "City")
	check(notBlank(f.Address.Country), "Country")
	check(notBlank(f.Address.Zip), "ZIP/Postal code")
	return missing
}

func notBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}

// Validation summarizes whether a form can be placed.
type Validation struct {
	Missing  []string `json:"missing"`
	Agreed   bool     `json:"agreed"`
	HasItems bool     `json:"hasItems"`
}

// OK reports whether nothing is missing, the terms are accepted and the cart
// has items.
func (v Validation) OK() bool {
	return len(v.Missing) == 0 && v.Agreed && v.HasItems
}

// Err returns the coded error for a failed validation, or nil.
func (v Validation) Err() error {
	switch {
	case !v.HasItems:
		return errors.New("E083").WithSuggestion("Add a watch to your cart before checking out")
	case len(v.Missing) > 0:
		return errors.New("E080").
			WithFields(v.Missing...).
			WithSuggestion("Please complete all required fields and accept the terms.")
	case !v.Agreed:
		return errors.New("E082")
	}
	return nil
}

// Validate checks form against the current cart.
func Validate(form Form, cart []uistore.CartLine) Validation {
	return Validation{
		Missing:  form.Missing(),
		Agreed:   form.Agree,
		HasItems: len(cart) > 0,
	}
}

// Pricing holds the fee schedule.
type Pricing struct {
	StandardFee float64 `json:"standardFee"`
	ExpressFee  float64 `json:"expressFee"`
	// TaxRate is a fraction, e.g. 0.05 for 5%.
	TaxRate float64 `json:"taxRate"`
}

// DefaultPricing is free standard shipping, 19.99 express and no tax.
func DefaultPricing() Pricing {
	return Pricing{StandardFee: 0, ExpressFee: 19.99, TaxRate: 0}
}

// Quote is the price breakdown shown in the order summary.
type Quote struct {
	Subtotal    float64        `json:"subtotal"`
	Shipping    ShippingMethod `json:"shipping"`
	ShippingFee float64        `json:"shippingFee"`
	Tax         float64        `json:"tax"`
	GrandTotal  float64        `json:"grandTotal"`
}

// ParseShipping resolves a shipping method; empty means standard.
func ParseShipping(s string) (ShippingMethod, error) {
	switch m := ShippingMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ShippingStandard:
		return ShippingStandard, nil
	case ShippingExpress:
		return m, nil
	}
	return "", errors.New("E084").WithFields(s)
}

// ParsePayment resolves a payment method; empty means card.
func ParsePayment(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case "", PaymentCard:
		return PaymentCard, nil
	case PaymentCOD, PaymentPayPal:
		return m, nil
	}
	return "", errors.New("E085").WithFields(s)
}

// Quote prices a subtotal for the given shipping method.
func (p Pricing) Quote(subtotal float64, method ShippingMethod) Quote {
	fee := p.StandardFee
	if method == ShippingExpress {
		fee = p.ExpressFee
	} else {
		method = ShippingStandard
	}
	tax := subtotal * p.TaxRate
	return Quote{
		Subtotal:    subtotal,
		Shipping:    method,
		ShippingFee: fee,
		Tax:         tax,
		GrandTotal:  subtotal + fee + tax,
	}
}

// Confirmation is returned for a placed order.
type Confirmation struct {
	OrderID    string        `json:"orderId"`
	GrandTotal float64       `json:"grandTotal"`
	Email      string        `json:"email"`
	Items      int           `json:"items"`
	Quote      Quote         `json:"quote"`
	Payment    PaymentMethod `json:"payment"`
}

// Service places orders.
type Service struct {
	Pricing Pricing

	// NewOrderID generates order references. Default: NewOrderID.
	NewOrderID func() string
}

// NewService returns a service using pricing.
func NewService(pricing Pricing) *Service {
	return &Service{Pricing: pricing, NewOrderID: NewOrderID}
}

// Place validates form against store's cart, prices it, clears the cart and
// returns the confirmation. The cart is left untouched on error. The cart is
// cleared only if it is still the cart that was priced; if another dispatch
// landed meanwhile the order fails with E086.
func (s *Service) Place(store *uistore.Store, form Form) (Confirmation, error) {
	shipping, err := ParseShipping(string(form.Shipping))
	if err != nil {
		return Confirmation{}, err
	}
	payment, err := ParsePayment(string(form.Payment))
	if err != nil {
		return Confirmation{}, err
	}

	state, version := store.Snapshot()
	if err := Validate(form, state.Cart).Err(); err != nil {
		return Confirmation{}, err
	}

	quote := s.Pricing.Quote(state.Total(), shipping)
	newID := s.NewOrderID
	if newID == nil {
		newID = NewOrderID
	}
	conf := Confirmation{
		OrderID:    newID(),
		GrandTotal: quote.GrandTotal,
		Email:      strings.TrimSpace(form.Customer.Email),
		Items:      state.ItemCount(),
		Quote:      quote,
		Payment:    payment,
	}

	if _, ok := store.DispatchIf(version, uistore.ClearCart{}); !ok {
		return Confirmation{}, errors.New("E086").
			WithDetail("order " + conf.OrderID + " was not placed").
			WithSuggestion("Review your cart and place the order again")
	}
	return conf, nil
}

const orderAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewOrderID returns a reference like "ORD-7K2QXA".
func NewOrderID() string {
	b := []byte("ORD-000000")
	for i := 4; i < len(b); i++ {
		b[i] = orderAlphabet[rand.Intn(len(orderAlphabet))]
	}
	return string(b)
}
