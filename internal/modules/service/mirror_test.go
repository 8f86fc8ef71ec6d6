package service

import (
	"context"
	"testing"

	"github.com/artmirror-io/artmirror/internal/modules/model"
	"github.com/artmirror-io/artmirror/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePinner struct {
	cid string
	err error

	calls int
}

func (p *fakePinner) PinFromURL(ctx context.Context, imageURL string) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return p.cid, nil
}

func TestMirrorPinsAndUpdates(t *testing.T) {
	r := &MockRecordRepo{}
	r.On("GetByID", mock.Anything, int32(9)).Return(&model.Record{
		ID:           9,
		Image:        "https://cdn.example.com/a.png",
		IpfsImageURL: model.SentinelNoIPFS,
	}, nil)

	ipfsURL := "ipfs://bafy123"
	r.On("Update", mock.Anything, int32(9), (*string)(nil), &ipfsURL, (*string)(nil)).
		Return(&model.Projection{ID: 9, Image: "https://cdn.example.com/a.png", IpfsImageURL: ipfsURL}, nil)

	pin := &fakePinner{cid: "bafy123"}
	svc := NewMirrorService(r, NewOperationService(r, nil), pin, zap.NewNop())

	projected, err := svc.Mirror(context.Background(), 9)
	require.NoError(t, err)

	assert.Equal(t, "ipfs://bafy123", projected.IpfsImageURL)
	assert.Equal(t, 1, pin.calls)
	r.AssertExpectations(t)
}

func TestMirrorAlreadyMirrored(t *testing.T) {
	r := &MockRecordRepo{}
	r.On("GetByID", mock.Anything, int32(9)).Return(&model.Record{
		ID:           9,
		Image:        "https://cdn.example.com/a.png",
		IpfsImageURL: "ipfs://bafyexisting",
	}, nil)

	pin := &fakePinner{cid: "bafyother"}
	svc := NewMirrorService(r, NewOperationService(r, nil), pin, zap.NewNop())

	projected, err := svc.Mirror(context.Background(), 9)
	require.NoError(t, err)

	assert.Equal(t, "ipfs://bafyexisting", projected.IpfsImageURL)
	assert.Zero(t, pin.calls, "mirroring an already-mirrored record must not pin again")
}

func TestHandleJobDropsMissingRecord(t *testing.T) {
	r := &MockRecordRepo{}
	r.On("GetByID", mock.Anything, int32(123)).Return(nil, &apperr.NotFoundError{ID: 123})

	svc := NewMirrorService(r, NewOperationService(r, nil), &fakePinner{}, zap.NewNop())

	err := svc.HandleJob(context.Background(), []byte(`{"record_id": 123, "image_url": "https://x"}`))
	assert.NoError(t, err, "jobs for deleted records are dropped, not requeued")
}

func TestHandleJobDropsBadPayload(t *testing.T) {
	svc := NewMirrorService(&MockRecordRepo{}, nil, &fakePinner{}, zap.NewNop())

	err := svc.HandleJob(context.Background(), []byte(`not json`))
	assert.NoError(t, err)
}
