// Package table holds the typed in-memory table shared by every dashboard
// page and the pure helpers that aggregate it.
//
// A Table[T] is an ordered slice of records of one static type plus the
// metadata of the load that produced it. Columns are addressed through
// accessor functions rather than names, so a reference to a column that a
// record type does not declare fails to compile:
//
//	byChannel := table.GroupAndSum(campaigns,
//	    []func(domain.CampaignPerformance) string{
//	        func(c domain.CampaignPerformance) string { return c.Channel },
//	    },
//	    func(c domain.CampaignPerformance) float64 { return c.Revenue })
//
// None of the helpers modify their input.
package table
