// Package services implements the dashboard's business logic between the
// HTTP handlers and the dataset loader.
//
// DashboardService renders the seven dashboard pages. Every page follows the
// same sequence: load the datasets it needs, turn load failures into
// notices, then aggregate the typed tables into chart-ready sections. A page
// never fails because one of its datasets is missing or broken; the affected
// sections are left empty and the response carries a Notice instead.
//
// DatasetService exposes the loader to the generic dataset API (listing,
// paging through records, ad-hoc aggregation, export) and to cache
// administration. HealthService reports liveness, readiness and version
// information.
//
// Services receive their collaborators by injection:
//
//	cache := dataset.NewCache()
//	loader := dataset.NewLoader(dir, cache, dataset.WithLogger(logger))
//	dashboard := services.NewDashboardService(loader, metrics, logger)
//	page, err := dashboard.Render(ctx, "executive-overview", req)
package services
