package assets

import (
	"strings"

	"github.com/vango-dev/chrono/pkg/catalog"
	"github.com/vango-dev/chrono/pkg/uistore"
)

// Resolver maps a catalog image path to its public URL.
type Resolver interface {
	Image(src string) string
}

type manifestResolver struct {
	manifest *Manifest
	prefix   string
}

// NewResolver creates a Resolver that looks images up in m and joins them to
// prefix. A nil manifest leaves names unchanged. Empty paths and absolute URLs
// are returned as is.
func NewResolver(m *Manifest, prefix string) Resolver {
	return &manifestResolver{
		manifest: m,
		prefix:   strings.TrimRight(prefix, "/"),
	}
}

// Passthrough returns a Resolver that only applies prefix. With an empty
// prefix it returns catalog paths unchanged.
func Passthrough(prefix string) Resolver {
	return NewResolver(nil, prefix)
}

func (r *manifestResolver) Image(src string) string {
	if src == "" || strings.Contains(src, "://") {
		return src
	}
	return r.prefix + "/" + r.manifest.Resolve(src)
}

// Product returns p with its image resolved.
func Product(r Resolver, p catalog.Product) catalog.Product {
	if r != nil {
		p.Image = r.Image(p.Image)
	}
	return p
}

// Item returns it with its image resolved.
func Item(r Resolver, it uistore.Item) uistore.Item {
	if r != nil {
		it.Image = r.Image(it.Image)
	}
	return it
}
