// Package dataset loads the marketing CSV files into typed tables.
//
// Each logical dataset has a Spec that names its file, declares its
// columns, decodes a row into a record from pkg/contracts/domain and
// computes derived fields once. Loading follows the same steps for every
// dataset:
//
//   - a missing file yields a *NotFoundError (ErrDatasetNotFound)
//   - a header without a required column yields a *SchemaMismatchError
//     (ErrSchemaMismatch) and nothing is cached
//   - a row that fails coercion, record validation or key uniqueness is
//     dropped and counted in Table.Skipped with its RowIssue
//
// Tables are cached in an injected Cache and served again until the file's
// modification time or size changes or the entry is invalidated. Failures
// are per dataset: LoadAll reports each outcome separately.
package dataset
