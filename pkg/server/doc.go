// Package server exposes the storefront over HTTP.
//
// Every /api route is bound to a session through the chrono_session cookie;
// the first request without one gets a fresh session and the cookie. Store
// operations never fail, so mutating routes always answer with the new
// state. Errors from the surrounding layers are coded *errors.ChronoError
// values written as JSON:
//
//	{"code":"E080","category":"validation","message":"Required field missing","fields":["Phone"]}
//
// # Live feed
//
// GET /api/events upgrades to a WebSocket and pushes one message per change:
//
//	{"type":"state","version":7,"state":{...}}
//	{"type":"event","name":"chrono:toast","data":{"level":"success",...}}
//
// Slow clients skip intermediate states; the latest state always arrives.
// Toasts raised outside the store, such as the order confirmation, go to
// every open feed of the session.
package server
