package domain

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryElectronics     Category = "Electronics"
	CategoryClothing        Category = "Clothing"
	CategoryBooks           Category = "Books"
	CategoryDigitalProducts Category = "Digital Products"
	CategoryHomeGarden      Category = "Home & Garden"
	CategorySports          Category = "Sports"
	CategoryOther           Category = "Other"
)

var Categories = []Category{
	CategoryElectronics,
	CategoryClothing,
	CategoryBooks,
	CategoryDigitalProducts,
	CategoryHomeGarden,
	CategorySports,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

const PlaceholderImage = "https://via.placeholder.com/400x400"

type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Category    Category  `json:"category"`
	Images      []string  `json:"images"`
	Stock       int       `json:"stock"`
	Rating      float64   `json:"rating"`
	Reviews     int       `json:"reviews"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PrimaryImage returns the first image or the placeholder when there is none.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 || p.Images[0] == "" {
		return PlaceholderImage
	}
	return p.Images[0]
}

// LineItem snapshots p for a cart or order.
func (p *Product) LineItem(quantity int) LineItem {
	return LineItem{
		ProductID: p.ID,
		Title:     p.Title,
		Price:     p.Price,
		Quantity:  quantity,
		Image:     p.PrimaryImage(),
	}
}

type ProductInput struct {
	Title       string   `json:"title" validate:"required,max=100"`
	Description string   `json:"description"`
	Price       *int64   `json:"price" validate:"required,gte=0"`
	Category    Category `json:"category" validate:"required,category"`
	Images      []string `json:"images"`
	Stock       int      `json:"stock" validate:"gte=0"`
}

// ProductUpdate holds the fields an admin edit may change; nil means keep.
type ProductUpdate struct {
	Title       *string   `json:"title" validate:"omitempty,min=1,max=100"`
	Description *string   `json:"description"`
	Price       *int64    `json:"price" validate:"omitempty,gte=0"`
	Category    *Category `json:"category" validate:"omitempty,category"`
	Images      []string  `json:"images"`
	Stock       *int      `json:"stock" validate:"omitempty,gte=0"`
	Rating      *float64  `json:"rating" validate:"omitempty,gte=0,lte=5"`
}

func (u ProductUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Price == nil &&
		u.Category == nil && u.Images == nil && u.Stock == nil && u.Rating == nil
}

type ProductFilter struct {
	Category Category
	Search   string
	Page     int
	Limit    int
}

const MaxPageLimit = 1000

// Normalize applies defaults: page 1, the given default limit, and treats
// "all" (any case) as no category filter.
func (f ProductFilter) Normalize(defaultLimit int) ProductFilter {
	if strings.EqualFold(string(f.Category), "all") {
		f.Category = ""
	}
	f.Search = strings.TrimSpace(f.Search)
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	return f
}

func (f ProductFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Limit int `json:"limit,omitempty"`
}

func NewPagination(total int, f ProductFilter) Pagination {
	pages := 0
	if f.Limit > 0 {
		pages = (total + f.Limit - 1) / f.Limit
	}
	return Pagination{Total: total, Page: f.Page, Pages: pages}
}
