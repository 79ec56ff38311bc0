// Package derive computes the fields that are not stored in the source files
// but needed by more than one dashboard page. Every function is pure: the
// input table is never modified and identical input yields identical output.
package derive

import (
	"mktpulse/internal/table"
	"mktpulse/pkg/contracts/domain"
)

// SafeDiv returns num/den, or 0 when den is 0.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// CTR is the click-through rate clicks/impressions.
func CTR(clicks, impressions int64) float64 {
	return SafeDiv(float64(clicks), float64(impressions))
}

// ROAS is the return on ad spend revenue/spend.
func ROAS(revenue, spend float64) float64 {
	return SafeDiv(revenue, spend)
}

// CPA is the cost per acquisition spend/conversions.
func CPA(spend float64, conversions int64) float64 {
	return SafeDiv(spend, float64(conversions))
}

// ConversionRate is conversions/clicks.
func ConversionRate(conversions, clicks int64) float64 {
	return SafeDiv(float64(conversions), float64(clicks))
}

// Profit applies a percentage margin to sales.
func Profit(sales, marginPct float64) float64 {
	return sales * marginPct / 100
}

// Campaign returns c with its derived ratios set.
func Campaign(c domain.CampaignPerformance) domain.CampaignPerformance {
	c.CTR = CTR(c.Clicks, c.Impressions)
	c.ROAS = ROAS(c.Revenue, c.Spend)
	c.CPA = CPA(c.Spend, c.Conversions)
	c.ConversionRate = ConversionRate(c.Conversions, c.Clicks)
	return c
}

// Product returns p with Profit set. Margin is kept as supplied.
func Product(p domain.ProductSale) domain.ProductSale {
	p.Profit = Profit(p.Sales, p.Margin)
	return p
}

// Geography returns g with RevenuePerCustomer set.
func Geography(g domain.GeographicMetric) domain.GeographicMetric {
	g.RevenuePerCustomer = SafeDiv(g.Revenue, float64(g.Customers))
	return g
}

// WithDerived returns a copy of t with fn applied to every row. Metadata is
// carried over unchanged.
func WithDerived[T any](t *table.Table[T], fn func(T) T) *table.Table[T] {
	out := table.Clone(t)
	if out == nil {
		return nil
	}
	for i := range out.Rows {
		out.Rows[i] = fn(out.Rows[i])
	}
	return out
}
