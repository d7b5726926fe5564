package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nozzip/seccional/internal/ledger"
)

// JobArchiveMirror uploads one archived day to object storage.
const JobArchiveMirror = "archive_mirror"

// ArchiveUploader is the object storage side of the mirror.
type ArchiveUploader interface {
	Put(ctx context.Context, day ledger.ArchivedDay) error
}

// ArchiveMirror copies archived days to object storage through the job pool.
// The archive in the database is authoritative; a lost upload only costs the copy.
type ArchiveMirror struct {
	store ArchiveUploader
	pool  *Pool
}

// NewArchiveMirror registers the upload handler on pool.
func NewArchiveMirror(store ArchiveUploader, pool *Pool) *ArchiveMirror {
	m := &ArchiveMirror{store: store, pool: pool}
	pool.Handle(JobArchiveMirror, m.upload)
	return m
}

// Mirror schedules the upload and returns immediately.
func (m *ArchiveMirror) Mirror(ctx context.Context, day ledger.ArchivedDay) error {
	return m.pool.Enqueue(ctx, JobArchiveMirror, day)
}

func (m *ArchiveMirror) upload(ctx context.Context, payload json.RawMessage) error {
	var day ledger.ArchivedDay
	if err := json.Unmarshal(payload, &day); err != nil {
		return fmt.Errorf("decode archived day: %w", err)
	}
	return m.store.Put(ctx, day)
}
