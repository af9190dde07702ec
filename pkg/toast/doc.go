// Package toast turns store notifications into client toast events.
//
// The live feed at /api/events pushes toasts as custom events next to state
// snapshots. The browser listens for EventName and renders them with whatever
// toast library the storefront uses:
//
//	window.addEventListener("chrono:toast", (e) => {
//	    const { level, title, actionLabel, actionId } = e.detail;
//	    showToast(level, title);
//	});
//
// Server code emits through any Emitter:
//
//	toast.Emit(conn, toast.FromNotification(n))
//	toast.Success(conn, "Order ORD-7KQ2ZD placed")
//
// # Levels
//
// Notification types map to levels as follows: cart is success, info is info
// and alert is warning. Checkout raises success for a placed order and warning
// when the cart changed under it.
package toast
