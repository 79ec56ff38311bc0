// Package api contains the query contracts of the dashboard HTTP API.
package api

// DateRangeRequest represents a date range in requests
type DateRangeRequest struct {
	From string `json:"from" query:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `json:"to" query:"to" validate:"omitempty,datetime=2006-01-02"`
}

// PageRequest carries the optional controls of a dashboard page. The
// granularity accepts daily/weekly/monthly and the D/W/M shorthands.
type PageRequest struct {
	DateRangeRequest
	Granularity string   `json:"granularity" query:"granularity" default:"weekly"`
	Channels    []string `json:"channels" query:"channels" validate:"omitempty,dive,required"`
	Threshold   float64  `json:"threshold" query:"threshold" default:"0.5" validate:"min=0,max=1"`
	Top         int      `json:"top" query:"top" default:"10" validate:"min=1,max=100"`
}

// AggregateRequest groups a dataset by one or more dimensions.
type AggregateRequest struct {
	GroupBy []string `json:"group_by" query:"group_by" validate:"required,min=1,dive,required"`
	Value   string   `json:"value" query:"value" validate:"required"`
	Op      string   `json:"op" query:"op" default:"sum" validate:"oneof=sum mean"`
}

// ResampleRequest buckets a dataset by time.
type ResampleRequest struct {
	Date        string `json:"date" query:"date" validate:"required"`
	Value       string `json:"value" query:"value" validate:"required"`
	Granularity string `json:"granularity" query:"granularity" default:"monthly"`
}

// TopRequest ranks a dataset by a numeric column.
type TopRequest struct {
	Rank string `json:"rank" query:"rank" validate:"required"`
	N    int    `json:"n" query:"n" default:"10" validate:"min=1,max=1000"`
}

// ExportRequest selects the export format.
type ExportRequest struct {
	Format string `json:"format" query:"format" default:"csv" validate:"oneof=csv xlsx"`
	BOM    bool   `json:"bom" query:"bom"`
}

// RecordsRequest pages through the rows of a dataset.
type RecordsRequest struct {
	Offset int `json:"offset" query:"offset" validate:"min=0"`
	Limit  int `json:"limit" query:"limit" default:"100" validate:"min=1,max=10000"`
}
