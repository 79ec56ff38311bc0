package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDatasetNotFound means the backing file of a dataset does not exist.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrSchemaMismatch means a required column is absent from the header.
	ErrSchemaMismatch = errors.New("dataset schema mismatch")
	// ErrUnknownDataset means the name is not one of the logical datasets.
	ErrUnknownDataset = errors.New("unknown dataset")
	// ErrUnknownColumn means a column name is not part of a dataset's schema.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrColumnType means a column exists but cannot be used the way requested.
	ErrColumnType = errors.New("column type mismatch")
)

// NotFoundError identifies the dataset and the path that was expected.
type NotFoundError struct {
	Dataset string
	Path    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("dataset %s not found at %s", e.Dataset, e.Path)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrDatasetNotFound
}

// SchemaMismatchError lists the required columns missing from a file.
type SchemaMismatchError struct {
	Dataset string
	Path    string
	Missing []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("dataset %s: missing required columns: %s", e.Dataset, strings.Join(e.Missing, ", "))
}

func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

func unknownDataset(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownDataset, name)
}

func unknownColumn(dataset, column string) error {
	return fmt.Errorf("%w: %q in dataset %s", ErrUnknownColumn, column, dataset)
}
