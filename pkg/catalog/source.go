package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/chrono/internal/errors"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// document is the YAML layout of a catalog file.
type document struct {
	Products []Product `yaml:"products"`
}

// Decode parses a YAML catalog document.
func Decode(r io.Reader) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return New(nil)
		}
		return nil, errors.New("E021").Wrap(err)
	}
	return New(doc.Products)
}

// Encode writes c as a YAML catalog document.
func Encode(w io.Writer, c *Catalog) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(document{Products: c.products}); err != nil {
		return err
	}
	return enc.Close()
}

// Source loads a catalog.
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*Catalog, error)

// Load calls f.
func (f SourceFunc) Load(ctx context.Context) (*Catalog, error) {
	return f(ctx)
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Decode(bytes.NewReader(defaultCatalog))
	if err != nil {
		panic("catalog: embedded catalog is invalid: " + err.Error())
	}
	return c
}

// Embedded is the Source for the built-in catalog.
var Embedded Source = SourceFunc(func(context.Context) (*Catalog, error) {
	return Decode(bytes.NewReader(defaultCatalog))
})

// FileSource reads a catalog from a local YAML file.
type FileSource struct {
	Path string
}

// Load reads and decodes the file.
func (f FileSource) Load(ctx context.Context) (*Catalog, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, errors.New("E024").WithDetail("cannot open " + f.Path).Wrap(err)
	}
	defer file.Close()
	return Decode(file)
}

// ObjectGetter is the subset of the S3 client used by S3Source.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads a catalog document from an S3 object.
//
// Example usage:
//
//	client := s3.New(s3.Options{Region: "eu-west-1", Credentials: creds})
//	src := catalog.S3Source{Client: client, Bucket: "chrono-assets", Key: "catalog.yaml"}
//	cat, err := src.Load(ctx)
type S3Source struct {
	Client ObjectGetter
	Bucket string
	Key    string
}

// Load fetches and decodes the object.
func (s S3Source) Load(ctx context.Context) (*Catalog, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, errors.New("E024").
			WithDetail("cannot fetch s3://" + s.Bucket + "/" + s.Key).
			Wrap(err)
	}
	defer out.Body.Close()
	return Decode(out.Body)
}
