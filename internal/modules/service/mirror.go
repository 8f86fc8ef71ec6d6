package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/artmirror-io/artmirror/internal/modules/model"
	"github.com/artmirror-io/artmirror/internal/modules/repo"
	"github.com/artmirror-io/artmirror/internal/pkg/apperr"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// Pinner uploads an image to the IPFS pinning service and returns its CID.
type Pinner interface {
	PinFromURL(ctx context.Context, imageURL string) (string, error)
}

// MirrorService replaces a record's NO_IPFS sentinel with the real
// content-addressed location.
type MirrorService interface {
	Mirror(ctx context.Context, recordID int32) (*model.Projection, error)
	HandleJob(ctx context.Context, body []byte) error
}

type mirrorService struct {
	r   repo.RecordRepo
	ops OperationService
	pin Pinner
	log *zap.Logger
}

func NewMirrorService(r repo.RecordRepo, ops OperationService, pin Pinner, log *zap.Logger) MirrorService {
	return &mirrorService{r: r, ops: ops, pin: pin, log: log}
}

// Mirror pins the record's source image and stores the ipfs:// location.
// Already-mirrored records are returned unchanged, so replayed jobs are
// harmless.
func (s *mirrorService) Mirror(ctx context.Context, recordID int32) (*model.Projection, error) {
	rec, err := s.r.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}

	if rec.IpfsImageURL != model.SentinelNoIPFS {
		projected := rec.Project()
		return &projected, nil
	}
	if rec.Image == "" {
		return nil, fmt.Errorf("record %d has no source image", recordID)
	}

	cid, err := s.pin.PinFromURL(ctx, rec.Image)
	if err != nil {
		return nil, err
	}

	ipfsURL := "ipfs://" + cid
	res, err := s.ops.Execute(ctx, UpdateOp{ID: recordID, IpfsImageURL: &ipfsURL})
	if err != nil {
		return nil, err
	}

	updated := res.(Updated)
	s.log.Info("record mirrored",
		zap.Int32("record_id", recordID),
		zap.String("cid", cid))
	return &updated.Record, nil
}

// HandleJob consumes one queued mirror job. A job for a record deleted in
// the meantime is dropped instead of requeued.
func (s *mirrorService) HandleJob(ctx context.Context, body []byte) error {
	job := MirrorJob{}
	if err := sonic.Unmarshal(body, &job); err != nil {
		s.log.Warn("drop undecodable mirror job", zap.Error(err))
		return nil
	}

	_, err := s.Mirror(ctx, job.RecordID)
	var nf *apperr.NotFoundError
	if errors.As(err, &nf) {
		s.log.Info("mirror job target gone", zap.Int32("record_id", job.RecordID))
		return nil
	}
	return err
}
