package catalog

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

type seedProduct struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Price       int64    `yaml:"price"`
	Category    string   `yaml:"category"`
	Images      []string `yaml:"images"`
	Stock       int      `yaml:"stock"`
	Rating      float64  `yaml:"rating"`
	Reviews     int      `yaml:"reviews"`
}

// LoadSeed decodes a YAML catalog file. Unknown fields are rejected.
func LoadSeed(r io.Reader) ([]domain.Product, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f seedFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	products := make([]domain.Product, 0, len(f.Products))
	for i, p := range f.Products {
		switch {
		case p.Title == "":
			return nil, fmt.Errorf("product %d: title is required", i)
		case !domain.Category(p.Category).Valid():
			return nil, fmt.Errorf("product %q: unknown category %q", p.Title, p.Category)
		case p.Price < 0 || p.Stock < 0:
			return nil, fmt.Errorf("product %q: price and stock must not be negative", p.Title)
		case p.Rating < 0 || p.Rating > 5:
			return nil, fmt.Errorf("product %q: rating must be between 0 and 5", p.Title)
		}

		products = append(products, domain.Product{
			Title:       p.Title,
			Description: p.Description,
			Price:       p.Price,
			Category:    domain.Category(p.Category),
			Images:      p.Images,
			Stock:       p.Stock,
			Rating:      p.Rating,
			Reviews:     p.Reviews,
		})
	}
	return products, nil
}
