package repository

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultListLimit bounds list queries that do not set a limit
const DefaultListLimit = 50

// MaxListLimit is the largest page a caller may request
const MaxListLimit = 200

// ListOptions filters and paginates owned records
type ListOptions struct {
	Limit  int
	Offset int
	Done   *bool
}

func (o ListOptions) normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// OwnedBy scopes a select to rows whose owner is userID
func OwnedBy(userID int64) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.user_id = ?", userID)
	}
}

// RecordRepository stores records. Every method takes the owner id and
// scopes its query with it, rows of other owners behave as missing. The
// generic repository stays unexported so no unscoped query leaks out.
type RecordRepository struct {
	base repository.Repository[*Record]
	db   bun.IDB
}

// NewRecordRepository creates a repository backed by db
func NewRecordRepository(db *bun.DB) *RecordRepository {
	repo := repository.NewRepository[*Record](db, repository.ModelHandlers[*Record]{
		NewRecord: func() *Record { return &Record{} },
		GetID: func(r *Record) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *Record, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
	})

	return &RecordRepository{
		base: repo,
		db:   db,
	}
}

// ListOwned returns a page of userID's records, newest first, and the total
func (r *RecordRepository) ListOwned(ctx context.Context, userID int64, opts ListOptions) ([]*Record, int, error) {
	opts = opts.normalize()

	records := []*Record{}
	q := r.db.NewSelect().
		Model(&records).
		Apply(OwnedBy(userID))

	if opts.Done != nil {
		q = q.Where("?TableAlias.done = ?", *opts.Done)
	}

	total, err := q.
		OrderExpr("?TableAlias.created_at DESC").
		OrderExpr("?TableAlias.id ASC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		ScanAndCount(ctx)
	if err != nil && !repository.IsRecordNotFound(err) {
		return nil, 0, err
	}

	return records, total, nil
}

// GetOwned loads record id if userID owns it
func (r *RecordRepository) GetOwned(ctx context.Context, userID int64, id uuid.UUID) (*Record, error) {
	return r.base.GetByID(ctx, id.String(), OwnedBy(userID))
}

// CreateOwned inserts record on behalf of userID. Any owner set on the
// record is overwritten.
func (r *RecordRepository) CreateOwned(ctx context.Context, userID int64, record *Record) (*Record, error) {
	now := time.Now().UTC()
	record.ID = uuid.New()
	record.UserID = userID
	record.CreatedAt = now
	record.UpdatedAt = now

	return r.base.CreateTx(ctx, r.db, record)
}

// UpdateOwned writes the mutable fields of record if userID owns it
func (r *RecordRepository) UpdateOwned(ctx context.Context, userID int64, record *Record) (*Record, error) {
	record.UpdatedAt = time.Now().UTC()

	res, err := r.db.NewUpdate().
		Model((*Record)(nil)).
		Set("title = ?", record.Title).
		Set("description = ?", record.Description).
		Set("done = ?", record.Done).
		Set("updated_at = ?", record.UpdatedAt).
		Where("id = ?", record.ID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	if err := expectRows(res, "records", record.ID); err != nil {
		return nil, err
	}

	return r.GetOwned(ctx, userID, record.ID)
}

// DeleteOwned removes record id if userID owns it
func (r *RecordRepository) DeleteOwned(ctx context.Context, userID int64, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*Record)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRows(res, "records", id)
}
