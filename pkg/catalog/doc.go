// Package catalog holds the storefront's product records.
//
// A Catalog is immutable once built and safe for concurrent reads. Catalogs are
// decoded from YAML documents of the form:
//
//	products:
//	  - id: "30"
//	    name: Aspire
//	    description: "Women's Leather Watch"
//	    price: "1200$"
//	    image: /Images/w1.webp
//	    section: women
//
// and can come from the embedded default, a local file, or an S3 object.
package catalog
