// Package urlparam encodes the deep-link convention that opens a product in the
// preview from outside the store:
//
//	/womenPage?pid=30&modal=1
//
// pid carries the product id and modal=1 asks the page to open the preview.
// Products outside the women section route to /menPage.
package urlparam

import (
	"net/url"
	"strings"

	"github.com/vango-dev/chrono/pkg/catalog"
	"github.com/vango-dev/chrono/pkg/uistore"
)

const (
	// ParamProduct is the query key for the product id.
	ParamProduct = "pid"

	// ParamModal is the query key for the open-preview flag.
	ParamModal = "modal"

	// ModalOpen is the only ParamModal value that opens the preview.
	ModalOpen = "1"
)

const (
	PathMen   = "/menPage"
	PathWomen = "/womenPage"
)

// PreviewLink is a decoded deep link.
type PreviewLink struct {
	ProductID uistore.ProductID
	Modal     bool
}

// Encode renders the query string with pid first, matching the links the
// listing pages generate.
func (l PreviewLink) Encode() string {
	var b strings.Builder
	b.WriteString(ParamProduct)
	b.WriteByte('=')
	b.WriteString(url.QueryEscape(string(l.ProductID)))
	if l.Modal {
		b.WriteString("&" + ParamModal + "=" + ModalOpen)
	}
	return b.String()
}

// ParsePreview decodes a deep link. ok is true only when pid is present and
// modal is exactly "1".
func ParsePreview(q url.Values) (link PreviewLink, ok bool) {
	pid := strings.TrimSpace(q.Get(ParamProduct))
	link = PreviewLink{
		ProductID: uistore.ProductID(pid),
		Modal:     q.Get(ParamModal) == ModalOpen,
	}
	return link, pid != "" && link.Modal
}

// SectionPath returns the listing page for a section.
func SectionPath(section catalog.Section) string {
	if section == catalog.SectionWomen {
		return PathWomen
	}
	return PathMen
}

// ProductRoute returns the deep link that opens p's preview on its listing page.
func ProductRoute(p catalog.Product) string {
	return SectionPath(p.Section) + "?" + PreviewLink{ProductID: p.ID, Modal: true}.Encode()
}
