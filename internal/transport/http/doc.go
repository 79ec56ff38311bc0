// Package http implements the HTTP handlers of the dashboard API. Handlers
// are a thin layer over the services: they bind query parameters, call one
// service method and render the result as JSON.
//
// # Routes
//
//	GET    /api/pages                     list of page identifiers
//	GET    /api/pages/{page}              one dashboard page
//	GET    /api/datasets                  dataset file status
//	GET    /api/datasets/{name}           paged records
//	GET    /api/datasets/{name}/aggregate group-by over a numeric column
//	GET    /api/datasets/{name}/resample  time series of a numeric column
//	GET    /api/datasets/{name}/top       highest ranked rows
//	GET    /api/datasets/{name}/export    csv or xlsx download
//	GET    /api/cache                     cache statistics
//	DELETE /api/cache                     clear cache and page memo
//	DELETE /api/cache/{name}              invalidate one dataset
//	GET    /api/health, /api/health/ready, /api/health/live, /api/version
//
// # Error Handling
//
// All errors are rendered as RFC 7807 problem details by
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/data/not-found",
//	    "title": "Dataset Not Found",
//	    "status": 404,
//	    "detail": "dataset campaign_performance not found at data/campaign_performance.csv",
//	    "instance": "/api/datasets/campaign_performance"
//	}
//
// A page whose datasets are missing is not an error: it renders with
// notices in place of the affected sections.
package http
