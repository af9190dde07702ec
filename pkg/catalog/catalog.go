package catalog

import (
	"fmt"
	"strings"

	"github.com/vango-dev/chrono/internal/errors"
	"github.com/vango-dev/chrono/pkg/uistore"
)

// Section groups products into the men and women listing pages.
type Section string

const (
	SectionMen   Section = "men"
	SectionWomen Section = "women"
)

// Valid reports whether s is a known section.
func (s Section) Valid() bool {
	return s == SectionMen || s == SectionWomen
}

// Product is one catalog entry.
type Product struct {
	ID          uistore.ProductID `yaml:"id" json:"id"`
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Price       uistore.RawPrice  `yaml:"price" json:"price"`
	Image       string            `yaml:"image,omitempty" json:"image,omitempty"`
	Section     Section           `yaml:"section" json:"section"`
}

// Item converts the product into the shape the UI store accepts.
func (p Product) Item() uistore.Item {
	return uistore.Item{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Image:       p.Image,
		Section:     string(p.Section),
		Description: p.Description,
	}
}

// UnitPrice returns the normalized price.
func (p Product) UnitPrice() float64 {
	return uistore.ParsePrice(p.Price)
}

// Catalog is an ordered, indexed set of products.
type Catalog struct {
	products []Product
	byID     map[uistore.ProductID]int
}

// New builds a catalog, rejecting duplicate ids and incomplete products.
// A product with no section is listed under men.
func New(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		byID:     make(map[uistore.ProductID]int, len(products)),
	}
	for i, p := range products {
		p.ID = uistore.ProductID(strings.TrimSpace(string(p.ID)))
		if p.ID == "" || strings.TrimSpace(p.Name) == "" {
			return nil, errors.New("E023").
				WithDetail(fmt.Sprintf("product at index %d is missing its id or name", i))
		}
		if p.Section == "" {
			p.Section = SectionMen
		}
		if !p.Section.Valid() {
			return nil, errors.New("E023").
				WithDetail(fmt.Sprintf("product %s has unknown section %q", p.ID, p.Section))
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, errors.New("E022").WithFields(string(p.ID))
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	return len(c.products)
}

// Products returns every product in catalog order.
func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Get looks up a product by id.
func (c *Catalog) Get(id uistore.ProductID) (Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// List returns the products of one section, or all products when section is empty.
func (c *Catalog) List(section Section) []Product {
	if section == "" {
		return c.Products()
	}
	var out []Product
	for _, p := range c.products {
		if p.Section == section {
			out = append(out, p)
		}
	}
	return out
}

// Search returns products whose name or description contains query,
// ignoring case. An empty query matches nothing.
func (c *Catalog) Search(query string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []Product
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	return out
}
