// Package session binds browser sessions to storefront stores.
//
// Each session id owns one *uistore.Store. The Registry creates stores on
// first use, expires idle ones and caps the total with LRU eviction:
//
//	reg := session.NewRegistry(session.DefaultConfig())
//	defer reg.Close()
//
//	sess, created, err := reg.GetOrCreate(cookieValue)
//	sess.Store.AddToCart(item, 1)
//
// # Resume
//
// When a SnapshotStore is configured, sessions that expire or are evicted are
// serialized first. A later GetOrCreate with the same id within the resume
// window restores the cart, feed, counters and preview:
//
//	cfg := session.DefaultConfig()
//	cfg.Snapshots = session.NewMemoryStore()
//	cfg.ResumeWindow = 10 * time.Minute
package session
