package urlparam

import (
	"net/url"
	"testing"

	"github.com/vango-dev/chrono/pkg/catalog"
	"github.com/vango-dev/chrono/pkg/uistore"
)

func TestProductRoute(t *testing.T) {
	tests := []struct {
		name string
		p    catalog.Product
		want string
	}{
		{"women", catalog.Product{ID: "30", Section: catalog.SectionWomen}, "/womenPage?pid=30&modal=1"},
		{"men", catalog.Product{ID: "3", Section: catalog.SectionMen}, "/menPage?pid=3&modal=1"},
		{"no section", catalog.Product{ID: "3"}, "/menPage?pid=3&modal=1"},
		{"escaped id", catalog.Product{ID: "a b&c", Section: catalog.SectionWomen}, "/womenPage?pid=a+b%26c&modal=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProductRoute(tt.p); got != tt.want {
				t.Errorf("ProductRoute = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParsePreview(t *testing.T) {
	tests := []struct {
		query  string
		wantID uistore.ProductID
		wantOK bool
	}{
		{"pid=30&modal=1", "30", true},
		{"pid=30&modal=0", "30", false},
		{"pid=30", "30", false},
		{"modal=1", "", false},
		{"pid=%20&modal=1", "", false},
		{"pid=a+b%26c&modal=1", "a b&c", true},
		{"pid=30&modal=true", "30", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			link, ok := ParsePreview(q)
			if ok != tt.wantOK || link.ProductID != tt.wantID {
				t.Errorf("ParsePreview = %+v, %v; want %q, %v", link, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, id := range []uistore.ProductID{"1", "30", "ü/ß", "x=y"} {
		link := PreviewLink{ProductID: id, Modal: true}
		q, err := url.ParseQuery(link.Encode())
		if err != nil {
			t.Fatalf("ParseQuery(%q): %v", link.Encode(), err)
		}
		got, ok := ParsePreview(q)
		if !ok || got != link {
			t.Errorf("round trip %q: got %+v, %v", id, got, ok)
		}
	}
}
