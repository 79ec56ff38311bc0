// Package shared groups helpers used by more than one layer of the
// dashboard. The testutil subpackage provides captured slog output and the
// marketing CSV fixtures used across package tests:
//
//	func TestSomething(t *testing.T) {
//	    dir := testutil.MarketingDataset(t, dataset.GeographicData)
//	    logger, logs := testutil.NewTestLogger(t)
//	    ...
//	}
package shared
