package repo

import (
	"context"

	"github.com/artmirror-io/artmirror/internal/modules/model"
	"github.com/artmirror-io/artmirror/internal/pkg/apperr"
	"gorm.io/gorm"
)

type IngestRunRepo interface {
	Create(ctx context.Context, run *model.IngestRun) error
	List(ctx context.Context, limit int) ([]model.IngestRun, error)
}

type ingestRunRepo struct{ db *gorm.DB }

func NewIngestRunRepo(db *gorm.DB) IngestRunRepo {
	return &ingestRunRepo{db: db}
}

func (r *ingestRunRepo) Create(ctx context.Context, run *model.IngestRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return &apperr.PersistenceError{Op: "create ingest run", Err: err}
	}
	return nil
}

func (r *ingestRunRepo) List(ctx context.Context, limit int) ([]model.IngestRun, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []model.IngestRun
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "list ingest runs", Err: err}
	}
	return runs, nil
}
