package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Fixture CSV contents. Totals the page tests rely on:
// campaign revenue 2100 (Search 1000, Social 600, Email 500), spend 750,
// conversions 21; four customers with churn rate 0.5; product profit 7750;
// six leads giving TP=2 FP=1 FN=1 TN=2 at threshold 0.5.
const (
	CampaignCSV = `date,channel,region,campaign_type,impressions,clicks,conversions,spend,revenue
2024-01-01,Email,North,Awareness,1000,50,5,100,400
2024-01-02,Search,South,Conversion,2000,100,10,200,1000
2024-01-08,Email,South,Retention,1000,20,2,50,100
2024-02-05,Social,North,Awareness,4000,80,4,400,600
`

	CustomerCSV = `customer_id,age,income,lifetime_value,satisfaction_score,segment,churn_flag,acquisition_channel,number_of_purchases,engagement_score,nps_category
C001,25,40000,1200,4.5,Premium,0,Email,5,0.8,Promoter
C002,35,60000,800,3.0,Standard,1,Search,2,0.4,Detractor
C003,45,80000,2000,4.0,Premium,0,Social,8,0.9,Promoter
C004,52,50000,400,2.5,Basic,1,Email,1,0.2,Passive
`

	ProductCSV = `category,subcategory,product,region,quarter,sales,units,margin
Electronics,Phones,Phone X,North,Q1,10000,20,20
Electronics,Laptops,Laptop Pro,South,Q1,20000,10,15
Apparel,Shoes,Runner,North,Q2,5000,100,40
Home,Kitchen,Blender,South,Q2,3000,30,25
`

	LeadCSV = `lead_id,true_label,predicted_probability,predicted_label
L1,1,0.9,1
L2,1,0.7,1
L3,0,0.6,1
L4,1,0.4,0
L5,0,0.2,0
L6,0,0.1,0
`

	GeographicCSV = `state,revenue,customers,penetration_rate,yoy_growth
California,50000,100,12.5,8.0
Texas,30000,60,9.0,15.5
New York,45000,90,11.0,3.2
`

	FeatureImportanceCSV = `feature,importance
income,0.15
engagement_score,0.35
age,0.10
number_of_purchases,0.25
`

	LearningCurveCSV = `train_size,train_score,validation_score
100,0.95,0.70
500,0.90,0.78
1000,0.88,0.82
`

	ChannelAttributionCSV = `channel,first_touch,last_touch,linear
Email,120,100,110
Search,200,260,230
Social,80,40,60
`

	FunnelCSV = `stage,visitors
Interest,5000
Awareness,10000
Purchase,500
Consideration,2000
`

	CustomerJourneyCSV = `touchpoint,stage,avg_time_days,conversion_rate
Ad Click,Awareness,1.5,0.05
Website Visit,Interest,3.0,0.12
`

	CorrelationMatrixCSV = `,spend,revenue,clicks
spend,1.0,0.85,0.40
revenue,0.85,1.0,-0.75
clicks,0.40,-0.75,1.0
`
)

// MarketingFiles maps every dataset file name to its fixture content.
func MarketingFiles() map[string]string {
	return map[string]string{
		"campaign_performance.csv": CampaignCSV,
		"customer_data.csv":        CustomerCSV,
		"product_sales.csv":        ProductCSV,
		"lead_scoring_results.csv": LeadCSV,
		"geographic_data.csv":      GeographicCSV,
		"feature_importance.csv":   FeatureImportanceCSV,
		"learning_curve.csv":       LearningCurveCSV,
		"channel_attribution.csv":  ChannelAttributionCSV,
		"funnel_data.csv":          FunnelCSV,
		"customer_journey.csv":     CustomerJourneyCSV,
		"correlation_matrix.csv":   CorrelationMatrixCSV,
	}
}

// MarketingDataset writes the full fixture set into a fresh temp dir and
// returns it. Datasets named in omit are left out.
func MarketingDataset(t *testing.T, omit ...string) string {
	t.Helper()

	dir := t.TempDir()
	skip := make(map[string]bool, len(omit))
	for _, name := range omit {
		skip[name+".csv"] = true
	}
	for file, content := range MarketingFiles() {
		if skip[file] {
			continue
		}
		WriteFile(t, dir, file, content)
	}
	return dir
}

// WriteFile writes content to dir/name and returns the path
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
	return path
}

// Touch sets the modification time of path
func Touch(t *testing.T, path string, mod time.Time) {
	t.Helper()

	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatalf("touch %s: %v", path, err)
	}
}
