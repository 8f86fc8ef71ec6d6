package repo

import (
	"context"
	"errors"
	"time"

	"github.com/artmirror-io/artmirror/internal/modules/model"
	"github.com/artmirror-io/artmirror/internal/pkg/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecordRepo interface {
	Create(ctx context.Context, r *model.Record) error
	ReadAll(ctx context.Context) ([]model.Record, error)
	ReadAllProjected(ctx context.Context) ([]model.Projection, error)
	GetByID(ctx context.Context, id int32) (*model.Record, error)
	Update(ctx context.Context, id int32, image, ipfsImageURL, category *string) (*model.Projection, error)
	DeleteByID(ctx context.Context, id int32) (int64, error)
}

type recordRepo struct{ db *gorm.DB }

func NewRecordRepo(db *gorm.DB) RecordRepo {
	return &recordRepo{db: db}
}

// Create inserts the record and reads back the generated id and server
// timestamps inside one transaction, so the echoed fields can never reflect
// a concurrently modified row.
func (r *recordRepo) Create(ctx context.Context, rec *model.Record) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(rec).Error
	})
	if err != nil {
		return &apperr.PersistenceError{Op: "create record", Err: err}
	}
	return nil
}

func (r *recordRepo) ReadAll(ctx context.Context) ([]model.Record, error) {
	var recs []model.Record
	if err := r.db.WithContext(ctx).Find(&recs).Error; err != nil {
		return nil, &apperr.PersistenceError{Op: "read records", Err: err}
	}
	return recs, nil
}

func (r *recordRepo) ReadAllProjected(ctx context.Context) ([]model.Projection, error) {
	recs, err := r.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	projected := make([]model.Projection, len(recs))
	for i := range recs {
		projected[i] = recs[i].Project()
	}
	return projected, nil
}

func (r *recordRepo) GetByID(ctx context.Context, id int32) (*model.Record, error) {
	var rec model.Record
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apperr.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "get record", Err: err}
	}
	return &rec, nil
}

// Update applies coalesce semantics: only non-nil fields overwrite their
// columns. updated_date is always refreshed. The RETURNING row count is the
// not-found signal; a missing id is an error, not a silent no-op.
func (r *recordRepo) Update(ctx context.Context, id int32, image, ipfsImageURL, category *string) (*model.Projection, error) {
	values := map[string]interface{}{
		"updated_date": time.Now().UTC(),
	}
	if image != nil {
		values["image"] = *image
	}
	if ipfsImageURL != nil {
		values["ipfs_image_url"] = *ipfsImageURL
	}
	if category != nil {
		values["category"] = *category
	}

	rec := model.Record{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&rec).
			Clauses(clause.Returning{}).
			Where("id = ?", id).
			Updates(values)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &apperr.NotFoundError{ID: id}
		}
		return nil
	})
	if err != nil {
		var nf *apperr.NotFoundError
		if errors.As(err, &nf) {
			return nil, err
		}
		return nil, &apperr.PersistenceError{Op: "update record", Err: err}
	}

	projected := rec.Project()
	return &projected, nil
}

// DeleteByID deletes in one transaction and reports the affected row count.
// Zero rows is a valid outcome, not an error.
func (r *recordRepo) DeleteByID(ctx context.Context, id int32) (int64, error) {
	var rows int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&model.Record{})
		if res.Error != nil {
			return res.Error
		}
		rows = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, &apperr.PersistenceError{Op: "delete record", Err: err}
	}
	return rows, nil
}
