// Package exporter streams loaded datasets to CSV or XLSX.
//
// Exports are read-only with respect to the data directory: every writer
// targets an io.Writer supplied by the caller, usually an HTTP response.
//
//	f, _ := loader.Load(ctx, dataset.CampaignPerformance)
//	n, err := exporter.Write(w, exporter.XLSX, f, exporter.Options{})
package exporter
