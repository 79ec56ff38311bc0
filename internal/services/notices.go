package services

import (
	"errors"
	"fmt"
	"time"

	"mktpulse/internal/dataset"
	"mktpulse/internal/table"
)

// NoticeKind classifies why a page section is incomplete.
type NoticeKind string

const (
	NoticeNotFound         NoticeKind = "not_found"
	NoticeSchemaMismatch   NoticeKind = "schema_mismatch"
	NoticeRowsSkipped      NoticeKind = "rows_skipped"
	NoticeLoadFailed       NoticeKind = "load_failed"
	NoticeInsufficientData NoticeKind = "insufficient_data"
)

// Notice tells the front-end that part of a page is degraded.
type Notice struct {
	Dataset string     `json:"dataset"`
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// Envelope is embedded in every page response.
type Envelope struct {
	Page        Page      `json:"page"`
	GeneratedAt time.Time `json:"generated_at"`
	Notices     []Notice  `json:"notices"`
}

// NoticeCount returns the number of notices attached to the page
func (e *Envelope) NoticeCount() int {
	return len(e.Notices)
}

func (e *Envelope) add(n Notice) {
	e.Notices = append(e.Notices, n)
}

// noticeFor converts a load error into a notice.
func noticeFor(name string, err error) Notice {
	var nf *dataset.NotFoundError
	var sm *dataset.SchemaMismatchError
	switch {
	case errors.As(err, &nf):
		return Notice{Dataset: name, Kind: NoticeNotFound, Message: fmt.Sprintf("%s is not available: expected %s", name, nf.Path)}
	case errors.As(err, &sm):
		return Notice{Dataset: name, Kind: NoticeSchemaMismatch, Message: err.Error()}
	default:
		return Notice{Dataset: name, Kind: NoticeLoadFailed, Message: err.Error()}
	}
}

// track records the outcome of one load on the envelope and returns the
// table, or nil when it could not be loaded.
func track[T any](e *Envelope, name string, t *table.Table[T], err error) *table.Table[T] {
	if err != nil {
		e.add(noticeFor(name, err))
		return nil
	}
	if t.Skipped > 0 {
		e.add(Notice{
			Dataset: name,
			Kind:    NoticeRowsSkipped,
			Message: fmt.Sprintf("%d rows skipped", t.Skipped),
		})
	}
	return t
}
