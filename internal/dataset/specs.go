package dataset

import (
	"mktpulse/internal/derive"
	"mktpulse/pkg/contracts/domain"
)

// Logical dataset names.
const (
	CampaignPerformance = "campaign_performance"
	CustomerData        = "customer_data"
	ProductSales        = "product_sales"
	LeadScoringResults  = "lead_scoring_results"
	GeographicData      = "geographic_data"
	FeatureImportance   = "feature_importance"
	LearningCurve       = "learning_curve"
	ChannelAttribution  = "channel_attribution"
	FunnelData          = "funnel_data"
	CustomerJourney     = "customer_journey"
	CorrelationMatrix   = "correlation_matrix"
)

// CampaignSpec describes campaign_performance.csv.
var CampaignSpec = Spec[domain.CampaignPerformance]{
	Name: CampaignPerformance,
	File: "campaign_performance.csv",
	Columns: []Column{
		{Name: "date", Kind: KindDate},
		{Name: "channel", Kind: KindString},
		{Name: "region", Kind: KindString},
		{Name: "campaign_type", Kind: KindString},
		{Name: "impressions", Kind: KindInt},
		{Name: "clicks", Kind: KindInt},
		{Name: "conversions", Kind: KindInt},
		{Name: "spend", Kind: KindFloat},
		{Name: "revenue", Kind: KindFloat},
	},
	Decode: func(r *Row) domain.CampaignPerformance {
		return domain.CampaignPerformance{
			Date:         r.Date("date"),
			Channel:      r.String("channel"),
			Region:       r.String("region"),
			CampaignType: r.String("campaign_type"),
			Impressions:  r.Int("impressions"),
			Clicks:       r.Int("clicks"),
			Conversions:  r.Int("conversions"),
			Spend:        r.Float("spend"),
			Revenue:      r.Float("revenue"),
		}
	},
	Derive: derive.Campaign,
	Fields: []Field[domain.CampaignPerformance]{
		{Name: "date", Kind: KindDate, Get: func(c domain.CampaignPerformance) any { return c.Date }},
		{Name: "channel", Kind: KindString, Get: func(c domain.CampaignPerformance) any { return c.Channel }},
		{Name: "region", Kind: KindString, Get: func(c domain.CampaignPerformance) any { return c.Region }},
		{Name: "campaign_type", Kind: KindString, Get: func(c domain.CampaignPerformance) any { return c.CampaignType }},
		{Name: "impressions", Kind: KindInt, Get: func(c domain.CampaignPerformance) any { return c.Impressions }},
		{Name: "clicks", Kind: KindInt, Get: func(c domain.CampaignPerformance) any { return c.Clicks }},
		{Name: "conversions", Kind: KindInt, Get: func(c domain.CampaignPerformance) any { return c.Conversions }},
		{Name: "spend", Kind: KindFloat, Get: func(c domain.CampaignPerformance) any { return c.Spend }},
		{Name: "revenue", Kind: KindFloat, Get: func(c domain.CampaignPerformance) any { return c.Revenue }},
		{Name: "ctr", Kind: KindFloat, Derived: true, Get: func(c domain.CampaignPerformance) any { return c.CTR }},
		{Name: "roas", Kind: KindFloat, Derived: true, Get: func(c domain.CampaignPerformance) any { return c.ROAS }},
		{Name: "cpa", Kind: KindFloat, Derived: true, Get: func(c domain.CampaignPerformance) any { return c.CPA }},
		{Name: "conversion_rate", Kind: KindFloat, Derived: true, Get: func(c domain.CampaignPerformance) any { return c.ConversionRate }},
	},
}

// CustomerSpec describes customer_data.csv.
var CustomerSpec = Spec[domain.CustomerRecord]{
	Name: CustomerData,
	File: "customer_data.csv",
	Columns: []Column{
		{Name: "customer_id", Kind: KindString},
		{Name: "age", Kind: KindInt},
		{Name: "income", Kind: KindFloat},
		{Name: "lifetime_value", Kind: KindFloat},
		{Name: "satisfaction_score", Kind: KindFloat},
		{Name: "segment", Kind: KindString},
		{Name: "churn_flag", Kind: KindBool},
		{Name: "acquisition_channel", Kind: KindString, Optional: true},
		{Name: "number_of_purchases", Kind: KindInt, Optional: true},
		{Name: "engagement_score", Kind: KindFloat, Optional: true},
		{Name: "nps_category", Kind: KindString, Optional: true},
	},
	Key: func(c domain.CustomerRecord) string { return c.CustomerID },
	Decode: func(r *Row) domain.CustomerRecord {
		return domain.CustomerRecord{
			CustomerID:         r.String("customer_id"),
			Age:                r.Int("age"),
			Income:             r.Float("income"),
			LifetimeValue:      r.Float("lifetime_value"),
			SatisfactionScore:  r.Float("satisfaction_score"),
			Segment:            r.String("segment"),
			ChurnFlag:          r.Bool("churn_flag"),
			AcquisitionChannel: r.String("acquisition_channel"),
			NumberOfPurchases:  r.Int("number_of_purchases"),
			EngagementScore:    r.Float("engagement_score"),
			NPSCategory:        r.String("nps_category"),
		}
	},
	Fields: []Field[domain.CustomerRecord]{
		{Name: "customer_id", Kind: KindString, Get: func(c domain.CustomerRecord) any { return c.CustomerID }},
		{Name: "age", Kind: KindInt, Get: func(c domain.CustomerRecord) any { return c.Age }},
		{Name: "income", Kind: KindFloat, Get: func(c domain.CustomerRecord) any { return c.Income }},
		{Name: "lifetime_value", Kind: KindFloat, Get: func(c domain.CustomerRecord) any { return c.LifetimeValue }},
		{Name: "satisfaction_score", Kind: KindFloat, Get: func(c domain.CustomerRecord) any { return c.SatisfactionScore }},
		{Name: "segment", Kind: KindString, Get: func(c domain.CustomerRecord) any { return c.Segment }},
		{Name: "churn_flag", Kind: KindBool, Get: func(c domain.CustomerRecord) any { return c.ChurnFlag }},
		{Name: "acquisition_channel", Kind: KindString, Get: func(c domain.CustomerRecord) any { return c.AcquisitionChannel }},
		{Name: "number_of_purchases", Kind: KindInt, Get: func(c domain.CustomerRecord) any { return c.NumberOfPurchases }},
		{Name: "engagement_score", Kind: KindFloat, Get: func(c domain.CustomerRecord) any { return c.EngagementScore }},
		{Name: "nps_category", Kind: KindString, Get: func(c domain.CustomerRecord) any { return c.NPSCategory }},
	},
}

// ProductSpec describes product_sales.csv.
var ProductSpec = Spec[domain.ProductSale]{
	Name: ProductSales,
	File: "product_sales.csv",
	Columns: []Column{
		{Name: "category", Kind: KindString},
		{Name: "subcategory", Kind: KindString},
		{Name: "product", Kind: KindString},
		{Name: "region", Kind: KindString},
		{Name: "quarter", Kind: KindString},
		{Name: "sales", Kind: KindFloat},
		{Name: "units", Kind: KindInt},
		{Name: "margin", Kind: KindFloat},
	},
	Decode: func(r *Row) domain.ProductSale {
		return domain.ProductSale{
			Category:    r.String("category"),
			Subcategory: r.String("subcategory"),
			Product:     r.String("product"),
			Region:      r.String("region"),
			Quarter:     r.String("quarter"),
			Sales:       r.Float("sales"),
			Units:       r.Int("units"),
			Margin:      r.Float("margin"),
		}
	},
	Derive: derive.Product,
	Fields: []Field[domain.ProductSale]{
		{Name: "category", Kind: KindString, Get: func(p domain.ProductSale) any { return p.Category }},
		{Name: "subcategory", Kind: KindString, Get: func(p domain.ProductSale) any { return p.Subcategory }},
		{Name: "product", Kind: KindString, Get: func(p domain.ProductSale) any { return p.Product }},
		{Name: "region", Kind: KindString, Get: func(p domain.ProductSale) any { return p.Region }},
		{Name: "quarter", Kind: KindString, Get: func(p domain.ProductSale) any { return p.Quarter }},
		{Name: "sales", Kind: KindFloat, Get: func(p domain.ProductSale) any { return p.Sales }},
		{Name: "units", Kind: KindInt, Get: func(p domain.ProductSale) any { return p.Units }},
		{Name: "margin", Kind: KindFloat, Get: func(p domain.ProductSale) any { return p.Margin }},
		{Name: "profit", Kind: KindFloat, Derived: true, Get: func(p domain.ProductSale) any { return p.Profit }},
	},
}

// LeadSpec describes lead_scoring_results.csv.
var LeadSpec = Spec[domain.LeadScore]{
	Name: LeadScoringResults,
	File: "lead_scoring_results.csv",
	Columns: []Column{
		{Name: "lead_id", Kind: KindString},
		{Name: "true_label", Kind: KindInt},
		{Name: "predicted_probability", Kind: KindFloat},
		{Name: "predicted_label", Kind: KindInt},
	},
	Key: func(l domain.LeadScore) string { return l.LeadID },
	Decode: func(r *Row) domain.LeadScore {
		return domain.LeadScore{
			LeadID:               r.String("lead_id"),
			TrueLabel:            r.Int("true_label"),
			PredictedProbability: r.Float("predicted_probability"),
			PredictedLabel:       r.Int("predicted_label"),
		}
	},
	Fields: []Field[domain.LeadScore]{
		{Name: "lead_id", Kind: KindString, Get: func(l domain.LeadScore) any { return l.LeadID }},
		{Name: "true_label", Kind: KindInt, Get: func(l domain.LeadScore) any { return l.TrueLabel }},
		{Name: "predicted_probability", Kind: KindFloat, Get: func(l domain.LeadScore) any { return l.PredictedProbability }},
		{Name: "predicted_label", Kind: KindInt, Get: func(l domain.LeadScore) any { return l.PredictedLabel }},
	},
}

// GeographicSpec describes geographic_data.csv.
var GeographicSpec = Spec[domain.GeographicMetric]{
	Name: GeographicData,
	File: "geographic_data.csv",
	Columns: []Column{
		{Name: "state", Kind: KindString},
		{Name: "revenue", Kind: KindFloat},
		{Name: "customers", Kind: KindInt},
		{Name: "penetration_rate", Kind: KindFloat},
		{Name: "yoy_growth", Kind: KindFloat},
	},
	Key: func(g domain.GeographicMetric) string { return g.State },
	Decode: func(r *Row) domain.GeographicMetric {
		return domain.GeographicMetric{
			State:           r.String("state"),
			Revenue:         r.Float("revenue"),
			Customers:       r.Int("customers"),
			PenetrationRate: r.Float("penetration_rate"),
			YoYGrowth:       r.Float("yoy_growth"),
		}
	},
	Derive: derive.Geography,
	Fields: []Field[domain.GeographicMetric]{
		{Name: "state", Kind: KindString, Get: func(g domain.GeographicMetric) any { return g.State }},
		{Name: "revenue", Kind: KindFloat, Get: func(g domain.GeographicMetric) any { return g.Revenue }},
		{Name: "customers", Kind: KindInt, Get: func(g domain.GeographicMetric) any { return g.Customers }},
		{Name: "penetration_rate", Kind: KindFloat, Get: func(g domain.GeographicMetric) any { return g.PenetrationRate }},
		{Name: "yoy_growth", Kind: KindFloat, Get: func(g domain.GeographicMetric) any { return g.YoYGrowth }},
		{Name: "revenue_per_customer", Kind: KindFloat, Derived: true, Get: func(g domain.GeographicMetric) any { return g.RevenuePerCustomer }},
	},
}

// auxSpec describes a pass-through table. Its columns come from the file.
func auxSpec(name string) Spec[domain.AuxRecord] {
	return Spec[domain.AuxRecord]{
		Name: name,
		File: name + ".csv",
		Decode: func(r *Row) domain.AuxRecord {
			return domain.AuxRecord{Cells: r.Cells()}
		},
	}
}

var auxNames = []string{
	FeatureImportance,
	LearningCurve,
	ChannelAttribution,
	FunnelData,
	CustomerJourney,
	CorrelationMatrix,
}

// Names returns every logical dataset in a stable order.
func Names() []string {
	names := []string{CampaignPerformance, CustomerData, ProductSales, LeadScoringResults, GeographicData}
	return append(names, auxNames...)
}

// IsAuxiliary reports whether name is a pass-through table.
func IsAuxiliary(name string) bool {
	for _, n := range auxNames {
		if n == name {
			return true
		}
	}
	return false
}

// FileName returns the expected file of a dataset.
func FileName(name string) (string, error) {
	for _, n := range Names() {
		if n == name {
			return name + ".csv", nil
		}
	}
	return "", unknownDataset(name)
}
