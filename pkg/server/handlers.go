package server

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/chrono/internal/errors"
	"github.com/vango-dev/chrono/pkg/assets"
	"github.com/vango-dev/chrono/pkg/catalog"
	"github.com/vango-dev/chrono/pkg/checkout"
	"github.com/vango-dev/chrono/pkg/session"
	"github.com/vango-dev/chrono/pkg/toast"
	"github.com/vango-dev/chrono/pkg/uistore"
	"github.com/vango-dev/chrono/pkg/urlparam"
)

// stateResponse is a state plus the totals the navigation bar shows.
type stateResponse struct {
	uistore.State
	ItemCount int     `json:"itemCount"`
	Total     float64 `json:"total"`
}

func newStateResponse(st uistore.State) stateResponse {
	return stateResponse{State: st, ItemCount: st.ItemCount(), Total: st.Total()}
}

// itemRequest names an item either inline or by catalog id.
type itemRequest struct {
	Item      *uistore.Item     `json:"item,omitempty"`
	ProductID uistore.ProductID `json:"productId,omitempty"`
	Quantity  float64           `json:"quantity,omitempty"`
}

func (s *Server) resolveItem(req itemRequest) (uistore.Item, error) {
	if id := uistore.ProductID(strings.TrimSpace(string(req.ProductID))); id != "" {
		p, ok := s.catalog.Get(id)
		if !ok {
			return uistore.Item{}, errors.New("E020").WithDetail("product " + string(id))
		}
		return assets.Item(s.images, p.Item()), nil
	}
	if req.Item == nil || strings.TrimSpace(string(req.Item.ID)) == "" {
		return uistore.Item{}, errors.New("E061").WithDetail("item.id or productId is required")
	}
	return *req.Item, nil
}

// sessionHandler is a handler bound to the request's session.
type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session)

// withSession resolves the session before fn runs, answering errors itself.
func (s *Server) withSession(fn sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.session(w, r)
		if err != nil {
			writeError(w, err, 0)
			return
		}
		fn(w, r, sess)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
		"products": s.catalog.Len(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, newStateResponse(sess.Store.State()))
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req itemRequest
	if err := s.decodeJSON(w, r, &req, false); err != nil {
		writeError(w, err, 0)
		return
	}
	item, err := s.resolveItem(req)
	if err != nil {
		writeError(w, err, 0)
		return
	}
	qty := 0
	if req.Quantity != 0 {
		qty = uistore.ClampQuantityFloat(req.Quantity)
	}
	st := sess.Store.Dispatch(uistore.AddToCart{Item: item, Quantity: qty})
	writeJSON(w, http.StatusOK, newStateResponse(st))
}

func (s *Server) handleUpdateQuantity(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req struct {
		Quantity *float64 `json:"quantity"`
	}
	if err := s.decodeJSON(w, r, &req, false); err != nil {
		writeError(w, err, 0)
		return
	}
	if req.Quantity == nil {
		writeError(w, errors.New("E061").WithDetail("quantity is required"), 0)
		return
	}
	id := uistore.ProductID(chi.URLParam(r, "id"))
	st := sess.Store.Dispatch(uistore.UpdateCartQuantity{ID: id, Quantity: uistore.ClampQuantityFloat(*req.Quantity)})
	writeJSON(w, http.StatusOK, newStateResponse(st))
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	st := sess.Store.Dispatch(uistore.RemoveFromCart{ID: uistore.ProductID(chi.URLParam(r, "id"))})
	writeJSON(w, http.StatusOK, newStateResponse(st))
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, newStateResponse(sess.Store.Dispatch(uistore.ClearCart{})))
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	st := sess.Store.Dispatch(uistore.DismissNotification{ID: chi.URLParam(r, "id")})
	writeJSON(w, http.StatusOK, newStateResponse(st))
}

func (s *Server) handleTriggerAction(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	st := sess.Store.Dispatch(uistore.TriggerNotificationAction{ID: chi.URLParam(r, "id")})
	writeJSON(w, http.StatusOK, newStateResponse(st))
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ch := uistore.UnreadChannel(chi.URLParam(r, "channel"))
	if !ch.Valid() {
		writeError(w, errors.New("E062").WithFields(string(ch)), 0)
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(sess.Store.Dispatch(uistore.MarkRead{Channel: ch})))
}

func (s *Server) handleOpenPreview(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req itemRequest
	if err := s.decodeJSON(w, r, &req, false); err != nil {
		writeError(w, err, 0)
		return
	}
	item, err := s.resolveItem(req)
	if err != nil {
		writeError(w, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(sess.Store.Dispatch(uistore.OpenPreview{Item: item})))
}

func (s *Server) handleClosePreview(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, newStateResponse(sess.Store.Dispatch(uistore.ClosePreview{})))
}

// handlePreviewLink resolves a pid/modal deep link. Links that do not ask for
// the modal leave the state alone; unknown products open with just their id.
func (s *Server) handlePreviewLink(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	link, ok := urlparam.ParsePreview(r.URL.Query())
	if !ok {
		writeJSON(w, http.StatusOK, newStateResponse(sess.Store.State()))
		return
	}
	item := uistore.Item{ID: link.ProductID}
	if p, found := s.catalog.Get(link.ProductID); found {
		item = assets.Item(s.images, p.Item())
	}
	writeJSON(w, http.StatusOK, newStateResponse(sess.Store.Dispatch(uistore.OpenPreview{Item: item})))
}

// productView is a product with its deep link.
type productView struct {
	catalog.Product
	UnitPrice float64 `json:"unitPrice"`
	Route     string  `json:"route"`
}

func (s *Server) viewOf(p catalog.Product) productView {
	return productView{Product: assets.Product(s.images, p), UnitPrice: p.UnitPrice(), Route: urlparam.ProductRoute(p)}
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	section := catalog.Section(strings.ToLower(strings.TrimSpace(q.Get("section"))))
	if section != "" && !section.Valid() {
		writeError(w, errors.New("E061").WithDetail("unknown section "+string(section)).WithFields("section"), 0)
		return
	}

	var products []catalog.Product
	if query := strings.TrimSpace(q.Get("q")); query != "" {
		for _, p := range s.catalog.Search(query) {
			if section == "" || p.Section == section {
				products = append(products, p)
			}
		}
	} else {
		products = s.catalog.List(section)
	}

	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, s.viewOf(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": views, "count": len(views)})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := uistore.ProductID(chi.URLParam(r, "id"))
	p, ok := s.catalog.Get(id)
	if !ok {
		writeError(w, errors.New("E020").WithDetail("product "+string(id)), 0)
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(p))
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req struct {
		Shipping string `json:"shipping"`
	}
	if err := s.decodeJSON(w, r, &req, true); err != nil {
		writeError(w, err, 0)
		return
	}
	method, err := checkout.ParseShipping(req.Shipping)
	if err != nil {
		writeError(w, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, s.checkout.Pricing.Quote(sess.Store.CartTotal(), method))
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var form checkout.Form
	if err := s.decodeJSON(w, r, &form, false); err != nil {
		writeError(w, err, 0)
		return
	}
	conf, err := s.checkout.Place(sess.Store, form)
	if err != nil {
		if stderrors.Is(err, errors.New("E086")) {
			toast.Warning(s.live.emitter(sess.ID), "Your cart changed while the order was placed. Please review it.")
		}
		writeError(w, err, 0)
		return
	}
	s.metrics.RecordOrder(string(conf.Quote.Shipping))
	s.logger.Info("order placed",
		"order_id", conf.OrderID,
		"session_id", sess.ID,
		"items", conf.Items,
		"grand_total", conf.GrandTotal,
		"payment", string(conf.Payment),
	)
	toast.Success(s.live.emitter(sess.ID), "Order "+conf.OrderID+" placed")
	writeJSON(w, http.StatusCreated, conf)
}
