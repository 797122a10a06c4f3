// Package analytics computes the order statistics shown on the admin
// dashboard. Everything here is a pure function of its inputs.
package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const (
	RevenueWindowDays = 30
	TopProductsLimit  = 5
)

var hundred = decimal.NewFromInt(100)

// Aggregates summarises a set of orders. Completed means Delivered.
type Aggregates struct {
	TotalOrders     int   `json:"totalOrders"`
	TotalRevenue    int64 `json:"totalRevenue"`
	PendingOrders   int   `json:"pendingOrders"`
	CompletedOrders int   `json:"completedOrders"`

	AvgOrderValue  decimal.Decimal `json:"-"`
	ConversionRate decimal.Decimal `json:"-"`
}

// ComputeAggregates returns totals over orders. With no orders the
// average and the conversion rate are zero.
func ComputeAggregates(orders []domain.Order) Aggregates {
	var a Aggregates
	for _, o := range orders {
		a.TotalOrders++
		a.TotalRevenue += o.TotalPrice
		switch o.Status {
		case domain.OrderStatusPending:
			a.PendingOrders++
		case domain.OrderStatusDelivered:
			a.CompletedOrders++
		}
	}

	if a.TotalOrders == 0 {
		return a
	}

	total := decimal.NewFromInt(int64(a.TotalOrders))
	a.AvgOrderValue = decimal.NewFromInt(a.TotalRevenue).Div(total)
	a.ConversionRate = decimal.NewFromInt(int64(a.CompletedOrders)).Mul(hundred).Div(total)
	return a
}

type Overview struct {
	TotalOrders     int     `json:"totalOrders"`
	TotalRevenue    int64   `json:"totalRevenue"`
	PendingOrders   int     `json:"pendingOrders"`
	CompletedOrders int     `json:"completedOrders"`
	ProductCount    int     `json:"productCount"`
	AvgOrderValue   float64 `json:"avgOrderValue"`
}

type ProductStat struct {
	ProductID string `json:"productId"`
	Count     int    `json:"count"`
	Revenue   int64  `json:"revenue"`
}

// CategoryStat pairs units sold in a category with its catalog size.
type CategoryStat struct {
	Count    int `json:"count"`
	Products int `json:"products"`
}

type Report struct {
	Overview       Overview                         `json:"overview"`
	RevenueByDate  map[string]int64                 `json:"revenueByDate"`
	TopProducts    []ProductStat                    `json:"topProducts"`
	CategoryStats  map[domain.Category]CategoryStat `json:"categoryStats"`
	ConversionRate string                           `json:"conversionRate"`
}

// BuildReport assembles the dashboard report. now anchors the revenue
// window; days are UTC calendar dates.
func BuildReport(now time.Time, orders []domain.Order, products []domain.Product) Report {
	agg := ComputeAggregates(orders)

	return Report{
		Overview: Overview{
			TotalOrders:     agg.TotalOrders,
			TotalRevenue:    agg.TotalRevenue,
			PendingOrders:   agg.PendingOrders,
			CompletedOrders: agg.CompletedOrders,
			ProductCount:    len(products),
			AvgOrderValue:   agg.AvgOrderValue.Round(2).InexactFloat64(),
		},
		RevenueByDate:  RevenueByDate(now, orders),
		TopProducts:    TopProducts(orders, TopProductsLimit),
		CategoryStats:  CategoryStats(orders, products),
		ConversionRate: agg.ConversionRate.StringFixed(2),
	}
}

// RevenueByDate sums order totals per YYYY-MM-DD over the last
// RevenueWindowDays days before now.
func RevenueByDate(now time.Time, orders []domain.Order) map[string]int64 {
	since := now.AddDate(0, 0, -RevenueWindowDays)
	out := make(map[string]int64)
	for _, o := range orders {
		if o.CreatedAt.Before(since) {
			continue
		}
		out[o.CreatedAt.UTC().Format(time.DateOnly)] += o.TotalPrice
	}
	return out
}

// TopProducts ranks products by revenue across every order line. Ties are
// broken by product id.
func TopProducts(orders []domain.Order, limit int) []ProductStat {
	byID := make(map[string]*ProductStat)
	for _, o := range orders {
		for _, item := range o.Items {
			s, ok := byID[item.ProductID]
			if !ok {
				s = &ProductStat{ProductID: item.ProductID}
				byID[item.ProductID] = s
			}
			s.Count += item.Quantity
			s.Revenue += item.Subtotal()
		}
	}

	stats := make([]ProductStat, 0, len(byID))
	for _, s := range byID {
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Revenue != stats[j].Revenue {
			return stats[i].Revenue > stats[j].Revenue
		}
		return stats[i].ProductID < stats[j].ProductID
	})

	if len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}

// CategoryStats counts catalog products per category and the units sold of
// products still in the catalog.
func CategoryStats(orders []domain.Order, products []domain.Product) map[domain.Category]CategoryStat {
	out := make(map[domain.Category]CategoryStat)
	categoryOf := make(map[string]domain.Category, len(products))
	for _, p := range products {
		s := out[p.Category]
		s.Products++
		out[p.Category] = s
		categoryOf[p.ID] = p.Category
	}

	for _, o := range orders {
		for _, item := range o.Items {
			c, ok := categoryOf[item.ProductID]
			if !ok {
				continue
			}
			s := out[c]
			s.Count += item.Quantity
			out[c] = s
		}
	}
	return out
}
