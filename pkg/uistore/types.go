package uistore

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ProductID identifies a product. JSON numbers and strings decode to the same
// ProductID, so 30 and "30" address one product.
type ProductID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ProductID) UnmarshalJSON(data []byte) error {
	s, err := decodeLiteral(data)
	if err != nil {
		return err
	}
	*id = ProductID(s)
	return nil
}

// RawPrice is a caller-supplied price, either a plain number or free-form
// text such as "1200$" or "$1,299.00". ParsePrice normalizes it.
type RawPrice string

// UnmarshalJSON accepts a JSON string or number.
func (p *RawPrice) UnmarshalJSON(data []byte) error {
	s, err := decodeLiteral(data)
	if err != nil {
		return err
	}
	*p = RawPrice(s)
	return nil
}

// decodeLiteral returns a JSON string's value or a JSON number in canonical
// form, so 1, 1.0 and 1e0 all read as "1".
func decodeLiteral(data []byte) (string, error) {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", err
	}
	lit := n.String()
	if !strings.ContainsAny(lit, ".eE") {
		return lit, nil
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return lit, nil
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

// Item is a product-like record as handed to the store by a page, the catalog
// or a deep link. Only ID is required.
type Item struct {
	ID          ProductID `json:"id"`
	Name        string    `json:"name,omitempty"`
	Price       RawPrice  `json:"price,omitempty"`
	Image       string    `json:"image,omitempty"`
	Section     string    `json:"section,omitempty"`
	Description string    `json:"description,omitempty"`
	Quantity    int       `json:"quantity,omitempty"`
}

// CartLine is one distinct product in the cart.
type CartLine struct {
	ID       ProductID `json:"id"`
	Name     string    `json:"name"`
	Price    float64   `json:"price"`
	Image    string    `json:"image,omitempty"`
	Quantity int       `json:"quantity"`
}

// Item renders the line as a preview item.
func (l CartLine) Item() Item {
	return Item{
		ID:       l.ID,
		Name:     l.Name,
		Price:    FormatPrice(l.Price),
		Image:    l.Image,
		Quantity: l.Quantity,
	}
}

// Subtotal returns price × quantity.
func (l CartLine) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}

// NotificationType classifies feed entries.
type NotificationType string

const (
	NotificationCart  NotificationType = "cart"
	NotificationInfo  NotificationType = "info"
	NotificationAlert NotificationType = "alert"
)

// ActionKind is the closed set of notification actions.
type ActionKind string

// ActionViewItem opens the notification's item in the preview.
const ActionViewItem ActionKind = "VIEW_ITEM"

// NotificationAction is the optional button attached to a notification.
type NotificationAction struct {
	Label string     `json:"label"`
	Kind  ActionKind `json:"kind"`
}

// NotificationMeta carries the item snapshot taken when the notification was created.
type NotificationMeta struct {
	ItemSnapshot *Item `json:"itemSnapshot,omitempty"`
}

// Notification is a feed entry. It is never expired by time.
type Notification struct {
	ID        string              `json:"id"`
	Type      NotificationType    `json:"type"`
	Title     string              `json:"title"`
	TS        time.Time           `json:"ts"`
	ShowClose bool                `json:"showClose"`
	Action    *NotificationAction `json:"action,omitempty"`
	Meta      NotificationMeta    `json:"meta"`
}

func (n Notification) clone() Notification {
	if n.Action != nil {
		a := *n.Action
		n.Action = &a
	}
	n.Meta.ItemSnapshot = cloneItem(n.Meta.ItemSnapshot)
	return n
}

// UnreadChannel names one of the unread counters.
type UnreadChannel string

const (
	UnreadAlerts UnreadChannel = "alerts"
	UnreadMail   UnreadChannel = "mail"
	UnreadCart   UnreadChannel = "cart"
)

// Valid reports whether c is a known channel.
func (c UnreadChannel) Valid() bool {
	switch c {
	case UnreadAlerts, UnreadMail, UnreadCart:
		return true
	}
	return false
}

// Unread holds the badge counters shown in the navigation bar.
type Unread struct {
	Alerts int `json:"alerts"`
	Mail   int `json:"mail"`
	Cart   int `json:"cart"`
}

// State is an immutable snapshot of the store. Reduce never mutates a State it
// receives; slices are copied on write.
type State struct {
	Cart          []CartLine     `json:"cart"`
	Notifications []Notification `json:"notifications"`
	Unread        Unread         `json:"unread"`
	PreviewItem   *Item          `json:"previewItem"`
}

// ItemCount is the sum of line quantities.
func (s State) ItemCount() int {
	n := 0
	for _, l := range s.Cart {
		n += l.Quantity
	}
	return n
}

// Total is the sum of price × quantity over all lines.
func (s State) Total() float64 {
	var total float64
	for _, l := range s.Cart {
		total += l.Subtotal()
	}
	return total
}

// Line returns the cart line for id.
func (s State) Line(id ProductID) (CartLine, bool) {
	for _, l := range s.Cart {
		if l.ID == id {
			return l, true
		}
	}
	return CartLine{}, false
}

// Notification returns the notification with id.
func (s State) Notification(id string) (Notification, bool) {
	for _, n := range s.Notifications {
		if n.ID == id {
			return n, true
		}
	}
	return Notification{}, false
}

// Clone returns a deep copy safe to hand to callers.
func (s State) Clone() State {
	out := State{
		Cart:          make([]CartLine, len(s.Cart)),
		Notifications: make([]Notification, len(s.Notifications)),
		Unread:        s.Unread,
		PreviewItem:   cloneItem(s.PreviewItem),
	}
	copy(out.Cart, s.Cart)
	for i, n := range s.Notifications {
		out.Notifications[i] = n.clone()
	}
	return out
}

func cloneItem(it *Item) *Item {
	if it == nil {
		return nil
	}
	c := *it
	return &c
}
