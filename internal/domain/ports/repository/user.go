package repository

import (
	"context"

	"telegram-signals-bot/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

// UserStore is the durable mapping from user identity to UserRecord.
//
// Consistency contract: CompareAndSwap serializes read-modify-write cycles on
// a single key via the record's Version field; writes to different keys never
// block each other. ScanAll returns a point-in-time snapshot that may be
// slightly stale relative to in-flight writes, which is acceptable for the
// scheduler and broadcast scans.
type UserStore interface {
	// Create inserts a fresh record. domain.ErrAlreadyExists if the id or
	// telegram id is taken.
	Create(ctx context.Context, u *model.UserRecord) error
	FindByID(ctx context.Context, id string) (*model.UserRecord, error)
	FindByTelegramID(ctx context.Context, tgID int64) (*model.UserRecord, error)
	// CompareAndSwap persists u only if the stored Version still matches
	// u.Version, then bumps it. domain.ErrStoreConflict on mismatch,
	// domain.ErrNotFound if the record vanished.
	CompareAndSwap(ctx context.Context, u *model.UserRecord) error
	// ScanAll returns a snapshot of every record, in no particular order.
	ScanAll(ctx context.Context) ([]*model.UserRecord, error)
	Count(ctx context.Context) (int, error)
}
