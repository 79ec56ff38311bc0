package domain

import (
	"time"
)

// CampaignPerformance is one day of one campaign on one channel in one region.
// CTR, ROAS, CPA and ConversionRate are derived at load time.
type CampaignPerformance struct {
	Date         time.Time `json:"date" csv:"date" validate:"required"`
	Channel      string    `json:"channel" csv:"channel" validate:"required"`
	Region       string    `json:"region" csv:"region" validate:"required"`
	CampaignType string    `json:"campaign_type" csv:"campaign_type" validate:"required"`
	Impressions  int64     `json:"impressions" csv:"impressions" validate:"min=0,gtefield=Clicks"`
	Clicks       int64     `json:"clicks" csv:"clicks" validate:"min=0,gtefield=Conversions"`
	Conversions  int64     `json:"conversions" csv:"conversions" validate:"min=0"`
	Spend        float64   `json:"spend" csv:"spend" validate:"min=0"`
	Revenue      float64   `json:"revenue" csv:"revenue" validate:"min=0"`

	CTR            float64 `json:"ctr"`
	ROAS           float64 `json:"roas"`
	CPA            float64 `json:"cpa"`
	ConversionRate float64 `json:"conversion_rate"`
}

// CustomerRecord describes one customer. The trailing fields are optional in
// the source file and are zero when the column is absent.
type CustomerRecord struct {
	CustomerID        string  `json:"customer_id" csv:"customer_id" validate:"required"`
	Age               int64   `json:"age" csv:"age" validate:"min=0,max=130"`
	Income            float64 `json:"income" csv:"income" validate:"min=0"`
	LifetimeValue     float64 `json:"lifetime_value" csv:"lifetime_value" validate:"min=0"`
	SatisfactionScore float64 `json:"satisfaction_score" csv:"satisfaction_score" validate:"min=0"`
	Segment           string  `json:"segment" csv:"segment" validate:"required"`
	ChurnFlag         bool    `json:"churn_flag" csv:"churn_flag"`

	AcquisitionChannel string  `json:"acquisition_channel,omitempty" csv:"acquisition_channel"`
	NumberOfPurchases  int64   `json:"number_of_purchases,omitempty" csv:"number_of_purchases" validate:"min=0"`
	EngagementScore    float64 `json:"engagement_score,omitempty" csv:"engagement_score" validate:"min=0"`
	NPSCategory        string  `json:"nps_category,omitempty" csv:"nps_category"`
}

// ProductSale is the sales of one product in one region and quarter.
// Margin is a percentage; Profit is derived at load time.
type ProductSale struct {
	Category    string  `json:"category" csv:"category" validate:"required"`
	Subcategory string  `json:"subcategory" csv:"subcategory"`
	Product     string  `json:"product" csv:"product" validate:"required"`
	Region      string  `json:"region" csv:"region"`
	Quarter     string  `json:"quarter" csv:"quarter"`
	Sales       float64 `json:"sales" csv:"sales" validate:"min=0"`
	Units       int64   `json:"units" csv:"units" validate:"min=0"`
	Margin      float64 `json:"margin" csv:"margin" validate:"min=-100,max=100"`

	Profit float64 `json:"profit"`
}

// LeadScore is a pre-computed model prediction for one lead.
type LeadScore struct {
	LeadID               string  `json:"lead_id" csv:"lead_id" validate:"required"`
	TrueLabel            int64   `json:"true_label" csv:"true_label" validate:"oneof=0 1"`
	PredictedProbability float64 `json:"predicted_probability" csv:"predicted_probability" validate:"min=0,max=1"`
	PredictedLabel       int64   `json:"predicted_label" csv:"predicted_label" validate:"oneof=0 1"`
}

// GeographicMetric aggregates customers and revenue per state.
type GeographicMetric struct {
	State           string  `json:"state" csv:"state" validate:"required"`
	Revenue         float64 `json:"revenue" csv:"revenue" validate:"min=0"`
	Customers       int64   `json:"customers" csv:"customers" validate:"min=0"`
	PenetrationRate float64 `json:"penetration_rate" csv:"penetration_rate" validate:"min=0"`
	YoYGrowth       float64 `json:"yoy_growth" csv:"yoy_growth"`

	RevenuePerCustomer float64 `json:"revenue_per_customer"`
}

// AuxRecord is a row of a pass-through table. Cells line up with the
// table's header.
type AuxRecord struct {
	Cells []string `json:"cells"`
}
