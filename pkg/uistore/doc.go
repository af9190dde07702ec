// Package uistore holds the per-session storefront state: cart lines, the
// notification feed, unread counters and the single preview item.
//
// State transitions are expressed as actions applied by a pure reducer:
//
//	next := uistore.Reduce(prev, uistore.RemoveFromCart{ID: "30"})
//
// prev is never modified. The Store wraps the reducer with a mutex, injects the
// generated notification id and timestamp into AddToCart actions, and notifies
// subscribers after each dispatch:
//
//	store := uistore.New(uistore.WithNotificationLimit(20))
//	store.AddToCart(uistore.Item{ID: "30", Name: "Aspire", Price: "1200$"}, 1)
//	store.CartTotal() // 1200
//
// No operation fails. Unknown ids are ignored and malformed prices or
// quantities are coerced to safe values.
package uistore
