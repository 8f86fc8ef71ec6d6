package service

import (
	"context"
	"fmt"

	"github.com/artmirror-io/artmirror/internal/infra/cache"
	"github.com/artmirror-io/artmirror/internal/modules/model"
	"github.com/artmirror-io/artmirror/internal/modules/repo"
)

// Operation is the closed set of record operations. Exactly one variant per
// store primitive; construction happens at the call site, routing happens in
// Execute.
type Operation interface{ isOperation() }

type CreateOp struct {
	Image        string
	IpfsImageURL string
	Category     *string
	Width        int32
	Height       int32
	Prompt       *string
	HashID       string
}

// FetchOp returns every record as its read projection.
type FetchOp struct{}

// UpdateOp carries coalesce semantics: nil fields leave the stored value
// untouched.
type UpdateOp struct {
	ID           int32
	Image        *string
	IpfsImageURL *string
	Category     *string
}

type DeleteOp struct {
	ID int32
}

func (CreateOp) isOperation() {}
func (FetchOp) isOperation()  {}
func (UpdateOp) isOperation() {}
func (DeleteOp) isOperation() {}

// OperationResult is the closed set of operation outcomes.
type OperationResult interface{ isOperationResult() }

type Created struct {
	ID           int32   `json:"id"`
	Image        string  `json:"image"`
	IpfsImageURL string  `json:"ipfs_image_url"`
	Category     *string `json:"category"`
	HashID       string  `json:"hash_id"`
}

type Fetched struct {
	Records []model.Projection `json:"records"`
}

type Updated struct {
	Record model.Projection `json:"record"`
}

type Deleted struct {
	RowsAffected int64 `json:"rows_affected"`
}

func (Created) isOperationResult() {}
func (Fetched) isOperationResult() {}
func (Updated) isOperationResult() {}
func (Deleted) isOperationResult() {}

type OperationService interface {
	Execute(ctx context.Context, op Operation) (OperationResult, error)
}

type operationService struct {
	r     repo.RecordRepo
	cache *cache.ProjectionCache
}

func NewOperationService(r repo.RecordRepo, c *cache.ProjectionCache) OperationService {
	return &operationService{r: r, cache: c}
}

// Execute routes one operation to its store primitive and reshapes the
// result. Store errors pass through untouched.
func (s *operationService) Execute(ctx context.Context, op Operation) (OperationResult, error) {
	switch op := op.(type) {
	case CreateOp:
		rec := &model.Record{
			Image:        op.Image,
			IpfsImageURL: op.IpfsImageURL,
			Category:     op.Category,
			Width:        op.Width,
			Height:       op.Height,
			Prompt:       op.Prompt,
			HashID:       op.HashID,
		}
		if err := s.r.Create(ctx, rec); err != nil {
			return nil, err
		}
		s.cache.Invalidate(ctx)
		return Created{
			ID:           rec.ID,
			Image:        rec.Image,
			IpfsImageURL: rec.IpfsImageURL,
			Category:     rec.Category,
			HashID:       rec.HashID,
		}, nil

	case FetchOp:
		if projected, ok := s.cache.Get(ctx); ok {
			return Fetched{Records: projected}, nil
		}
		projected, err := s.r.ReadAllProjected(ctx)
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, projected)
		return Fetched{Records: projected}, nil

	case UpdateOp:
		projected, err := s.r.Update(ctx, op.ID, op.Image, op.IpfsImageURL, op.Category)
		if err != nil {
			return nil, err
		}
		s.cache.Invalidate(ctx)
		return Updated{Record: *projected}, nil

	case DeleteOp:
		rows, err := s.r.DeleteByID(ctx, op.ID)
		if err != nil {
			return nil, err
		}
		s.cache.Invalidate(ctx)
		return Deleted{RowsAffected: rows}, nil

	default:
		return nil, fmt.Errorf("unknown operation %T", op)
	}
}
