// Package files discovers the CSV files in a directory. The dataset
// checker uses it to report files that no dataset reads and the most
// recently updated export.
//
//	discovery := files.NewDiscovery(dataDir)
//	found, err := discovery.FindCSVFiles("")
//	stray := files.Unrecognized(found, knownNames)
package files
