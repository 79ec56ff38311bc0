package services

import (
	"context"
	"fmt"
	"sort"

	"mktpulse/internal/dataset"
	"mktpulse/internal/table"
	"mktpulse/pkg/contracts/domain"
)

// CategorySummary aggregates product sales of one category.
type CategorySummary struct {
	Category   string  `json:"category"`
	Sales      float64 `json:"sales"`
	Profit     float64 `json:"profit"`
	Units      int64   `json:"units"`
	MeanMargin float64 `json:"mean_margin"`
}

// ProductSummary aggregates the sales rows of one product.
type ProductSummary struct {
	Product  string  `json:"product"`
	Category string  `json:"category"`
	Sales    float64 `json:"sales"`
	Profit   float64 `json:"profit"`
	Units    int64   `json:"units"`
}

// ProductTotals are the headline product figures.
type ProductTotals struct {
	Sales     float64 `json:"sales"`
	Profit    float64 `json:"profit"`
	Units     int64   `json:"units"`
	AvgMargin float64 `json:"avg_margin"`
}

// ProductPerformance is the product page.
type ProductPerformance struct {
	Envelope
	Top           int                `json:"top"`
	Totals        *ProductTotals     `json:"totals"`
	Categories    []CategorySummary  `json:"categories"`
	TopProducts   []ProductSummary   `json:"top_products"`
	RegionQuarter []table.GroupTotal `json:"sales_by_region_quarter"`
}

type productSections struct {
	totals     *ProductTotals
	categories []CategorySummary
	top        []ProductSummary
	region     []table.GroupTotal
}

// ProductPerformance renders category sales, profit and margin, the top
// products by sales and sales by region and quarter.
func (s *DashboardService) ProductPerformance(ctx context.Context, topN int) (*ProductPerformance, error) {
	out := &ProductPerformance{Envelope: s.envelope(PageProductPerformance), Top: topN}

	version := s.loader.Version()
	products, err := s.loader.Products(ctx)
	products = track(&out.Envelope, dataset.ProductSales, products, err)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s|%d|%s", PageProductPerformance, topN, presence(products != nil))
	sec := memoized(s, version, key, func() productSections {
		var sec productSections
		if products == nil {
			return sec
		}
		sec.totals = &ProductTotals{
			Sales:     table.Sum(products, productSales),
			Profit:    table.Sum(products, productProfit),
			Units:     int64(table.Sum(products, productUnits)),
			AvgMargin: table.Mean(products, productMargin),
		}
		sec.categories = categorySummaries(products)

		all := productSummaries(products)
		top := table.TopN(all, func(p ProductSummary) float64 { return p.Sales }, topN)
		sec.top = top.Rows

		sec.region = table.GroupAndSum(products, []func(domain.ProductSale) string{
			func(p domain.ProductSale) string { return p.Region },
			func(p domain.ProductSale) string { return p.Quarter },
		}, productSales).Rows
		return sec
	})

	out.Totals = sec.totals
	out.Categories = nonNil(sec.categories)
	out.TopProducts = nonNil(sec.top)
	out.RegionQuarter = nonNil(sec.region)
	return out, nil
}

func productSales(p domain.ProductSale) float64  { return p.Sales }
func productProfit(p domain.ProductSale) float64 { return p.Profit }
func productUnits(p domain.ProductSale) float64  { return float64(p.Units) }
func productMargin(p domain.ProductSale) float64 { return p.Margin }

// categorySummaries groups products by category, highest sales first.
func categorySummaries(t *table.Table[domain.ProductSale]) []CategorySummary {
	byCategory := []func(domain.ProductSale) string{func(p domain.ProductSale) string { return p.Category }}

	sales := table.GroupAndSum(t, byCategory, productSales).Rows
	profit := table.GroupAndSum(t, byCategory, productProfit).Rows
	units := table.GroupAndSum(t, byCategory, productUnits).Rows
	margin := table.GroupAndMean(t, byCategory, productMargin).Rows

	out := make([]CategorySummary, len(sales))
	for i, g := range sales {
		out[i] = CategorySummary{
			Category:   g.Keys[0],
			Sales:      g.Value,
			Profit:     profit[i].Value,
			Units:      int64(units[i].Value),
			MeanMargin: margin[i].Value,
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sales > out[j].Sales })
	return out
}

// productSummaries collapses the rows of each product, which may be sold in
// several regions and quarters.
func productSummaries(t *table.Table[domain.ProductSale]) *table.Table[ProductSummary] {
	byProduct := []func(domain.ProductSale) string{
		func(p domain.ProductSale) string { return p.Product },
		func(p domain.ProductSale) string { return p.Category },
	}
	sales := table.GroupAndSum(t, byProduct, productSales)
	profit := table.GroupAndSum(t, byProduct, productProfit).Rows
	units := table.GroupAndSum(t, byProduct, productUnits).Rows

	out := make([]ProductSummary, sales.Len())
	for i, g := range sales.Rows {
		out[i] = ProductSummary{
			Product:  g.Keys[0],
			Category: g.Keys[1],
			Sales:    g.Value,
			Profit:   profit[i].Value,
			Units:    int64(units[i].Value),
		}
	}
	return table.New(t.Name, []string{"product", "category", "sales", "profit", "units"}, out)
}
