package catalog

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/chrono/internal/errors"
)

const sampleYAML = `
products:
  - id: "30"
    name: Aspire
    description: "Women's Leather Watch"
    price: "1200$"
    image: /Images/w1.webp
    section: women
  - id: "1"
    name: Meridian
    description: "Men's Steel Chronograph"
    price: "2400$"
    section: men
  - id: "2"
    name: Regent
    price: "1500"
`

func mustDecode(t *testing.T, doc string) *Catalog {
	t.Helper()
	c, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return c
}

func TestDecode(t *testing.T) {
	c := mustDecode(t, sampleYAML)
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	p, ok := c.Get("30")
	if !ok {
		t.Fatal("product 30 not found")
	}
	if p.Name != "Aspire" || p.Section != SectionWomen || p.UnitPrice() != 1200 {
		t.Errorf("product = %+v", p)
	}
	regent, _ := c.Get("2")
	if regent.Section != SectionMen {
		t.Errorf("default section = %q, want men", regent.Section)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code string
	}{
		{"malformed", "products: [", "E021"},
		{"unknown field", "products:\n  - id: \"1\"\n    name: A\n    colour: red\n", "E021"},
		{"duplicate", "products:\n  - {id: \"1\", name: A}\n  - {id: \"1\", name: B}\n", "E022"},
		{"missing name", "products:\n  - {id: \"1\"}\n", "E023"},
		{"bad section", "products:\n  - {id: \"1\", name: A, section: kids}\n", "E023"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			if !stderrors.Is(err, errors.New(tt.code)) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	c, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Decode empty: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d", c.Len())
	}
}

func TestListAndSearch(t *testing.T) {
	c := mustDecode(t, sampleYAML)

	if got := len(c.List(SectionWomen)); got != 1 {
		t.Errorf("women = %d, want 1", got)
	}
	if got := len(c.List(SectionMen)); got != 2 {
		t.Errorf("men = %d, want 2", got)
	}
	if got := len(c.List("")); got != 3 {
		t.Errorf("all = %d, want 3", got)
	}

	if got := c.Search("CHRONO"); len(got) != 1 || got[0].ID != "1" {
		t.Errorf("Search(CHRONO) = %+v", got)
	}
	if got := c.Search("watch"); len(got) != 1 {
		t.Errorf("Search(watch) = %d results", len(got))
	}
	if got := c.Search("  "); got != nil {
		t.Errorf("blank search = %+v", got)
	}
}

func TestProductsReturnsCopy(t *testing.T) {
	c := mustDecode(t, sampleYAML)
	ps := c.Products()
	ps[0].Name = "changed"
	if p, _ := c.Get("30"); p.Name != "Aspire" {
		t.Error("Products aliases catalog storage")
	}
}

func TestProductItem(t *testing.T) {
	c := mustDecode(t, sampleYAML)
	p, _ := c.Get("30")
	it := p.Item()
	if it.ID != "30" || it.Price != "1200$" || it.Section != "women" || it.Description == "" {
		t.Errorf("item = %+v", it)
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	if len(c.List(SectionWomen)) != 15 {
		t.Errorf("women = %d, want 15", len(c.List(SectionWomen)))
	}
	if len(c.List(SectionMen)) == 0 {
		t.Error("expected men products")
	}
	if p, ok := c.Get("30"); !ok || p.UnitPrice() != 1200 {
		t.Errorf("product 30 = %+v", p)
	}

	fromSource, err := Embedded.Load(context.Background())
	if err != nil || fromSource.Len() != c.Len() {
		t.Errorf("Embedded.Load = %v, %v", fromSource, err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	c := mustDecode(t, sampleYAML)
	var buf bytes.Buffer
	if err := Encode(&buf, c); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	again := mustDecode(t, buf.String())
	if again.Len() != c.Len() {
		t.Errorf("round trip Len = %d", again.Len())
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := FileSource{Path: path}.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d", c.Len())
	}

	_, err = FileSource{Path: filepath.Join(dir, "missing.yaml")}.Load(context.Background())
	if !stderrors.Is(err, errors.New("E024")) {
		t.Errorf("missing file err = %v", err)
	}
}

type fakeS3 struct {
	body   string
	err    error
	bucket string
	key    string
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestS3Source(t *testing.T) {
	fake := &fakeS3{body: sampleYAML}
	src := S3Source{Client: fake, Bucket: "chrono-assets", Key: "catalog/prod.yaml"}

	c, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d", c.Len())
	}
	if fake.bucket != "chrono-assets" || fake.key != "catalog/prod.yaml" {
		t.Errorf("requested s3://%s/%s", fake.bucket, fake.key)
	}

	cause := stderrors.New("access denied")
	_, err = S3Source{Client: &fakeS3{err: cause}, Bucket: "b", Key: "k"}.Load(context.Background())
	if !stderrors.Is(err, cause) || !stderrors.Is(err, errors.New("E024")) {
		t.Errorf("err = %v", err)
	}
}
