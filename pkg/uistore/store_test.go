package uistore

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestStore(opts ...Option) *Store {
	var n int
	base := []Option{
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("note-%d", n)
		}),
		WithClock(func() time.Time { return testTime }),
	}
	return New(append(base, opts...)...)
}

func TestStoreExampleFlow(t *testing.T) {
	s := newTestStore()

	s.AddToCart(Item{ID: "1", Name: "Aspire", Price: "1200$", Quantity: 1}, 0)
	cart := s.Cart()
	if len(cart) != 1 || cart[0].Quantity != 1 || cart[0].Price != 1200 {
		t.Fatalf("cart = %+v", cart)
	}
	if got := s.Notifications()[0].Title; got != "Aspire added to cart" {
		t.Errorf("title = %q", got)
	}

	s.AddToCart(Item{ID: "1", Name: "Aspire", Price: "1200$"}, 2)
	cart = s.Cart()
	if len(cart) != 1 || cart[0].Quantity != 3 || cart[0].Price != 1200 {
		t.Errorf("cart = %+v", cart)
	}
	if len(s.Notifications()) != 2 {
		t.Errorf("notifications = %d, want 2", len(s.Notifications()))
	}
	if s.CartItemCount() != 3 || s.CartTotal() != 3600 {
		t.Errorf("count = %d total = %v", s.CartItemCount(), s.CartTotal())
	}
}

func TestStoreGeneratesIDsAndTimestamps(t *testing.T) {
	s := newTestStore()
	s.AddToCart(Item{ID: "1", Name: "A"}, 1)
	s.AddToCart(Item{ID: "2", Name: "B"}, 1)

	notes := s.Notifications()
	if notes[0].ID != "note-2" || notes[1].ID != "note-1" {
		t.Errorf("ids = %q, %q", notes[0].ID, notes[1].ID)
	}
	if !notes[0].TS.Equal(testTime) {
		t.Errorf("ts = %v", notes[0].TS)
	}
}

func TestStoreDefaultIDsAreUnique(t *testing.T) {
	s := New()
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		s.AddToCart(Item{ID: "1", Name: "A"}, 1)
	}
	for _, n := range s.Notifications() {
		if n.ID == "" || seen[n.ID] {
			t.Fatalf("duplicate or empty id %q", n.ID)
		}
		seen[n.ID] = true
	}
}

func TestStoreTriggerAction(t *testing.T) {
	s := newTestStore()
	s.AddToCart(Item{ID: "1", Name: "Aspire", Price: "1200$"}, 1)
	noteID := s.Notifications()[0].ID

	s.UpdateCartQuantity("1", 4)
	s.TriggerNotificationAction(noteID)
	if p := s.Preview(); p == nil || p.Quantity != 4 {
		t.Fatalf("preview = %+v, want live line", p)
	}

	s.ClosePreview()
	if s.Preview() != nil {
		t.Fatal("preview not closed")
	}

	s.RemoveFromCart("1")
	s.TriggerNotificationAction(noteID)
	if p := s.Preview(); p == nil || p.Quantity != 1 || p.Price != "1200$" {
		t.Errorf("preview = %+v, want snapshot", p)
	}
}

func TestStoreDismissAndMarkRead(t *testing.T) {
	s := newTestStore()
	s.AddToCart(Item{ID: "1", Name: "A"}, 1)
	s.DismissNotification("note-1")
	s.DismissNotification("note-1")
	if len(s.Notifications()) != 0 {
		t.Errorf("expected empty feed")
	}
	if u := s.Unread(); u.Cart != 1 || u.Alerts != 1 {
		t.Errorf("unread = %+v", u)
	}
	s.MarkRead(UnreadAlerts)
	if u := s.Unread(); u.Alerts != 0 || u.Cart != 1 {
		t.Errorf("unread = %+v", u)
	}
}

func TestStoreClearCart(t *testing.T) {
	s := newTestStore()
	s.AddToCart(Item{ID: "1", Name: "A", Price: "10"}, 2)
	s.AddToCart(Item{ID: "2", Name: "B", Price: "5"}, 1)
	s.ClearCart()
	if len(s.Cart()) != 0 || s.CartTotal() != 0 {
		t.Errorf("cart not cleared")
	}
	if len(s.Notifications()) != 2 {
		t.Errorf("notifications = %d, want 2", len(s.Notifications()))
	}
}

func TestStoreNotificationLimitOption(t *testing.T) {
	s := newTestStore(WithNotificationLimit(2))
	var evicted int
	s.Subscribe(func(c Change) { evicted += c.Evicted })

	for i := 0; i < 5; i++ {
		s.AddToCart(Item{ID: "1", Name: "A"}, 1)
	}
	if n := len(s.Notifications()); n != 2 {
		t.Errorf("feed length = %d, want 2", n)
	}
	if evicted != 3 {
		t.Errorf("evicted = %d, want 3", evicted)
	}
}

func TestStoreReadersReturnCopies(t *testing.T) {
	s := newTestStore()
	s.AddToCart(Item{ID: "1", Name: "A", Price: "10"}, 1)

	cart := s.Cart()
	cart[0].Quantity = 50
	notes := s.Notifications()
	notes[0].Meta.ItemSnapshot.Name = "mutated"
	notes[0].Action.Kind = "OTHER"

	if s.Cart()[0].Quantity != 1 {
		t.Error("cart reader aliases store state")
	}
	n := s.Notifications()[0]
	if n.Meta.ItemSnapshot.Name != "A" || n.Action.Kind != ActionViewItem {
		t.Error("notification reader aliases store state")
	}
}

func TestStoreSubscribe(t *testing.T) {
	s := newTestStore()
	var got []ActionType
	var versions []uint64
	unsubscribe := s.Subscribe(func(c Change) {
		got = append(got, c.Action.Type())
		versions = append(versions, c.Version)
	})

	s.AddToCart(Item{ID: "1", Name: "A"}, 1)
	s.ClearCart()
	unsubscribe()
	unsubscribe()
	s.ClosePreview()

	if len(got) != 2 || got[0] != TypeAddToCart || got[1] != TypeClearCart {
		t.Errorf("actions = %v", got)
	}
	if versions[0] != 1 || versions[1] != 2 {
		t.Errorf("versions = %v", versions)
	}
	if s.Version() != 3 {
		t.Errorf("Version = %d, want 3", s.Version())
	}
}

func TestStoreSubscribeChangeCarriesState(t *testing.T) {
	s := newTestStore()
	var last Change
	s.Subscribe(func(c Change) { last = c })

	s.AddToCart(Item{ID: "1", Name: "A", Price: "3"}, 2)
	if last.State.Total() != 6 {
		t.Errorf("change total = %v", last.State.Total())
	}
	add, ok := last.Action.(AddToCart)
	if !ok || add.NotificationID != "note-1" {
		t.Errorf("change action = %#v", last.Action)
	}
}

func TestStoreInitialState(t *testing.T) {
	seed := State{Cart: []CartLine{{ID: "5", Name: "X", Price: 2, Quantity: 3}}}
	s := New(WithInitialState(seed))
	seed.Cart[0].Quantity = 10
	if s.CartItemCount() != 3 {
		t.Errorf("initial state aliased: %d", s.CartItemCount())
	}
}

func TestStoreConcurrentDispatch(t *testing.T) {
	s := New(WithNotificationLimit(0))
	var mu sync.Mutex
	var versions []uint64
	s.Subscribe(func(c Change) {
		mu.Lock()
		versions = append(versions, c.Version)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.AddToCart(Item{ID: ProductID(fmt.Sprint(i % 5)), Name: "W", Price: "1"}, 1)
		}(i)
	}
	wg.Wait()

	if s.CartItemCount() != 50 {
		t.Errorf("item count = %d, want 50", s.CartItemCount())
	}
	if len(s.Notifications()) != 50 {
		t.Errorf("notifications = %d, want 50", len(s.Notifications()))
	}
	for i, v := range versions {
		if v != uint64(i+1) {
			t.Fatalf("listener saw version %d at position %d", v, i)
		}
	}
}

func TestStoreSnapshot(t *testing.T) {
	s := newTestStore()
	s.AddToCart(Item{ID: "1", Name: "A", Price: "10"}, 1)

	st, v := s.Snapshot()
	if v != 1 || len(st.Cart) != 1 {
		t.Errorf("Snapshot() = %+v, %d; want one line at version 1", st.Cart, v)
	}
}

func TestStoreDispatchIf(t *testing.T) {
	s := newTestStore()
	var changes int
	s.Subscribe(func(Change) { changes++ })

	s.AddToCart(Item{ID: "1", Name: "A", Price: "10"}, 1)
	_, v := s.Snapshot()

	st, ok := s.DispatchIf(v, ClearCart{})
	if !ok || len(st.Cart) != 0 {
		t.Errorf("DispatchIf(current) = %+v, %v; want cleared, true", st.Cart, ok)
	}

	s.AddToCart(Item{ID: "2", Name: "B", Price: "5"}, 1)
	st, ok = s.DispatchIf(v, ClearCart{})
	if ok {
		t.Error("DispatchIf(stale) should be rejected")
	}
	if len(st.Cart) != 1 || len(s.Cart()) != 1 {
		t.Errorf("stale DispatchIf changed the cart: %+v", s.Cart())
	}
	if s.Version() != 3 {
		t.Errorf("Version() = %d, want 3", s.Version())
	}
	if changes != 3 {
		t.Errorf("listener calls = %d, want 3", changes)
	}
}
