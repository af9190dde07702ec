package uistore

import "time"

// DefaultNotificationLimit caps the feed when no limit is configured.
const DefaultNotificationLimit = 50

// ActionType names an action. It doubles as the metrics label.
type ActionType string

const (
	TypeAddToCart          ActionType = "ADD_TO_CART"
	TypeRemoveFromCart     ActionType = "REMOVE_FROM_CART"
	TypeUpdateCartQuantity ActionType = "UPDATE_CART_QTY"
	TypeClearCart          ActionType = "CLEAR_CART"
	TypeDismiss            ActionType = "DISMISS_NOTIFICATION"
	TypeTriggerAction      ActionType = "TRIGGER_NOTIFICATION_ACTION"
	TypeOpenPreview        ActionType = "OPEN_PREVIEW"
	TypeClosePreview       ActionType = "CLOSE_PREVIEW"
	TypeMarkRead           ActionType = "MARK_READ"
)

// Action is a state transition request.
type Action interface {
	Type() ActionType
}

// AddToCart merges Item into the cart and prepends a cart notification.
// NotificationID and At must be set; Store fills them in.
type AddToCart struct {
	Item           Item
	Quantity       int
	NotificationID string
	At             time.Time
}

// RemoveFromCart deletes the line with ID.
type RemoveFromCart struct{ ID ProductID }

// UpdateCartQuantity sets the clamped quantity on the line with ID.
type UpdateCartQuantity struct {
	ID       ProductID
	Quantity int
}

// ClearCart empties the cart. Notifications are kept.
type ClearCart struct{}

// DismissNotification removes the notification with ID.
type DismissNotification struct{ ID string }

// TriggerNotificationAction runs the action attached to notification ID.
type TriggerNotificationAction struct{ ID string }

// OpenPreview shows Item in the preview.
type OpenPreview struct{ Item Item }

// ClosePreview clears the preview.
type ClosePreview struct{}

// MarkRead resets one unread counter.
type MarkRead struct{ Channel UnreadChannel }

func (AddToCart) Type() ActionType                 { return TypeAddToCart }
func (RemoveFromCart) Type() ActionType            { return TypeRemoveFromCart }
func (UpdateCartQuantity) Type() ActionType        { return TypeUpdateCartQuantity }
func (ClearCart) Type() ActionType                 { return TypeClearCart }
func (DismissNotification) Type() ActionType       { return TypeDismiss }
func (TriggerNotificationAction) Type() ActionType { return TypeTriggerAction }
func (OpenPreview) Type() ActionType               { return TypeOpenPreview }
func (ClosePreview) Type() ActionType              { return TypeClosePreview }
func (MarkRead) Type() ActionType                  { return TypeMarkRead }

// Reducer applies actions to states.
type Reducer struct {
	// NotificationLimit caps the feed; the oldest entries are evicted first.
	// Zero or negative means unbounded.
	NotificationLimit int
}

// Reduce applies a using the default notification limit.
func Reduce(s State, a Action) State {
	return Reducer{NotificationLimit: DefaultNotificationLimit}.Reduce(s, a)
}

// Reduce returns the state after applying a. Unknown actions return s.
func (r Reducer) Reduce(s State, a Action) State {
	switch a := a.(type) {
	case AddToCart:
		return r.addToCart(s, a)

	case RemoveFromCart:
		idx := lineIndex(s.Cart, a.ID)
		if idx < 0 {
			return s
		}
		cart := make([]CartLine, 0, len(s.Cart)-1)
		cart = append(cart, s.Cart[:idx]...)
		s.Cart = append(cart, s.Cart[idx+1:]...)
		return s

	case UpdateCartQuantity:
		idx := lineIndex(s.Cart, a.ID)
		if idx < 0 {
			return s
		}
		cart := make([]CartLine, len(s.Cart))
		copy(cart, s.Cart)
		cart[idx].Quantity = ClampQuantity(a.Quantity)
		s.Cart = cart
		return s

	case ClearCart:
		s.Cart = []CartLine{}
		return s

	case DismissNotification:
		idx := notificationIndex(s.Notifications, a.ID)
		if idx < 0 {
			return s
		}
		notes := make([]Notification, 0, len(s.Notifications)-1)
		notes = append(notes, s.Notifications[:idx]...)
		s.Notifications = append(notes, s.Notifications[idx+1:]...)
		return s

	case TriggerNotificationAction:
		n, ok := s.Notification(a.ID)
		if !ok || n.Action == nil {
			return s
		}
		if n.Action.Kind == ActionViewItem {
			s.PreviewItem = resolvePreview(s, n.Meta.ItemSnapshot)
		}
		return s

	case OpenPreview:
		s.PreviewItem = cloneItem(&a.Item)
		return s

	case ClosePreview:
		s.PreviewItem = nil
		return s

	case MarkRead:
		switch a.Channel {
		case UnreadAlerts:
			s.Unread.Alerts = 0
		case UnreadMail:
			s.Unread.Mail = 0
		case UnreadCart:
			s.Unread.Cart = 0
		}
		return s
	}
	return s
}

func (r Reducer) addToCart(s State, a AddToCart) State {
	qty := a.Quantity
	if qty == 0 {
		qty = a.Item.Quantity
	}
	qty = ClampQuantity(qty)

	cart := make([]CartLine, len(s.Cart), len(s.Cart)+1)
	copy(cart, s.Cart)
	if idx := lineIndex(cart, a.Item.ID); idx >= 0 {
		cart[idx].Quantity = ClampQuantity(cart[idx].Quantity + qty)
	} else {
		cart = append(cart, CartLine{
			ID:       a.Item.ID,
			Name:     a.Item.Name,
			Price:    ParsePrice(a.Item.Price),
			Image:    a.Item.Image,
			Quantity: qty,
		})
	}

	snapshot := a.Item
	snapshot.Quantity = qty
	note := Notification{
		ID:        a.NotificationID,
		Type:      NotificationCart,
		Title:     a.Item.Name + " added to cart",
		TS:        a.At,
		ShowClose: true,
		Action:    &NotificationAction{Label: "View item", Kind: ActionViewItem},
		Meta:      NotificationMeta{ItemSnapshot: &snapshot},
	}

	keep := len(s.Notifications)
	if r.NotificationLimit > 0 && keep > r.NotificationLimit-1 {
		keep = r.NotificationLimit - 1
	}
	notes := make([]Notification, 0, keep+1)
	notes = append(notes, note)
	notes = append(notes, s.Notifications[:keep]...)

	s.Cart = cart
	s.Notifications = notes
	s.Unread.Cart++
	s.Unread.Alerts++
	return s
}

// resolvePreview prefers the live cart line over the snapshot so quantity
// changes made after the notification show up; a removed line falls back to
// the snapshot.
func resolvePreview(s State, snap *Item) *Item {
	if snap == nil {
		return nil
	}
	if line, ok := s.Line(snap.ID); ok {
		it := line.Item()
		return &it
	}
	return cloneItem(snap)
}

// Evicted returns how many notifications a dispatch of a would evict from s.
func (r Reducer) Evicted(s State, a Action) int {
	if _, ok := a.(AddToCart); !ok || r.NotificationLimit <= 0 {
		return 0
	}
	if over := len(s.Notifications) + 1 - r.NotificationLimit; over > 0 {
		return over
	}
	return 0
}

func lineIndex(cart []CartLine, id ProductID) int {
	for i, l := range cart {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func notificationIndex(notes []Notification, id string) int {
	for i, n := range notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}
