package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/artmirror-io/artmirror/internal/infra/httpclient"
	"github.com/artmirror-io/artmirror/internal/modules/model"
	"github.com/artmirror-io/artmirror/internal/modules/repo"
	"github.com/artmirror-io/artmirror/internal/pkg/apperr"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MockSearchAPI is a mock implementation of SearchAPI
type MockSearchAPI struct {
	mock.Mock
}

func (m *MockSearchAPI) Search(ctx context.Context, keyword string, page int, tags []string) (*httpclient.SearchResponse, error) {
	args := m.Called(ctx, keyword, page, tags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*httpclient.SearchResponse), args.Error(1)
}

// fakeOps counts Create operations and fails the configured item indexes.
type fakeOps struct {
	failAt map[int]bool
	nextID int32
	ops    []CreateOp
}

func (f *fakeOps) Execute(ctx context.Context, op Operation) (OperationResult, error) {
	create, ok := op.(CreateOp)
	if !ok {
		return nil, fmt.Errorf("unexpected operation %T", op)
	}
	idx := len(f.ops)
	f.ops = append(f.ops, create)
	if f.failAt[idx] {
		return nil, &apperr.PersistenceError{Op: "create record", Err: errors.New("constraint violation")}
	}
	f.nextID++
	return Created{
		ID:           f.nextID,
		Image:        create.Image,
		IpfsImageURL: create.IpfsImageURL,
		Category:     create.Category,
		HashID:       create.HashID,
	}, nil
}

type capturePublisher struct {
	jobs []MirrorJob
	err  error
}

func (p *capturePublisher) PublishJSON(ctx context.Context, routingKey string, body any) error {
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, body.(MirrorJob))
	return nil
}

func searchResponseWithItems(t *testing.T, items []string) *httpclient.SearchResponse {
	t.Helper()
	resp := &httpclient.SearchResponse{}
	resp.Data.Items = json.RawMessage("[" + strings.Join(items, ",") + "]")
	return resp
}

func searchItem(id string, url string) string {
	return fmt.Sprintf(`{"id": %q, "prompt": "p", "banner": {"url": %q, "width": 512, "height": 768}}`, id, url)
}

func TestIngestAllItemsStored(t *testing.T) {
	search := &MockSearchAPI{}
	resp := searchResponseWithItems(t, []string{
		searchItem("a", "https://cdn.example.com/a.png"),
		searchItem("b", "https://cdn.example.com/b.png"),
	})
	search.On("Search", mock.Anything, "gundam", 1, []string{"mecha"}).Return(resp, nil)

	ops := &fakeOps{}
	pub := &capturePublisher{}
	category := "mecha"
	svc := NewIngestService(search, ops, nil, pub, zap.NewNop())

	report, err := svc.Ingest(context.Background(), "gundam", 1, []string{"mecha"}, &category)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, 0, report.Failed)

	require.Len(t, ops.ops, 2)
	first := ops.ops[0]
	assert.Equal(t, "https://cdn.example.com/a.png", first.Image)
	assert.Equal(t, model.SentinelNoIPFS, first.IpfsImageURL)
	require.NotNil(t, first.Category)
	assert.Equal(t, "mecha", *first.Category)
	assert.Equal(t, int32(512), first.Width)
	assert.Equal(t, int32(768), first.Height)
	assert.Equal(t, "a", first.HashID)

	require.Len(t, pub.jobs, 2)
	assert.Equal(t, "https://cdn.example.com/a.png", pub.jobs[0].ImageURL)
}

func TestIngestPartialFailure(t *testing.T) {
	items := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		items = append(items, searchItem(fmt.Sprintf("item-%d", i), fmt.Sprintf("https://cdn.example.com/%d.png", i)))
	}

	search := &MockSearchAPI{}
	search.On("Search", mock.Anything, "gundam", 1, mock.Anything).
		Return(searchResponseWithItems(t, items), nil)

	ops := &fakeOps{failAt: map[int]bool{2: true}}
	svc := NewIngestService(search, ops, nil, nil, zap.NewNop())

	report, err := svc.Ingest(context.Background(), "gundam", 1, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Inserted)
	assert.Equal(t, 1, report.Failed)
	assert.Len(t, ops.ops, 6, "a failed item must not stop the batch")
}

func TestIngestMalformedItemDegradesToPlaceholders(t *testing.T) {
	search := &MockSearchAPI{}
	search.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(searchResponseWithItems(t, []string{`{"unexpected": true}`}), nil)

	ops := &fakeOps{}
	svc := NewIngestService(search, ops, nil, nil, zap.NewNop())

	report, err := svc.Ingest(context.Background(), "gundam", 1, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Inserted)
	require.Len(t, ops.ops, 1)
	assert.Equal(t, "", ops.ops[0].Image)
	assert.Equal(t, int32(0), ops.ops[0].Width)
	assert.Equal(t, model.SentinelNoIPFS, ops.ops[0].IpfsImageURL)
}

func TestIngestMissingItemsIsBatchFatal(t *testing.T) {
	search := &MockSearchAPI{}
	search.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&httpclient.SearchResponse{}, nil)

	ops := &fakeOps{}
	svc := NewIngestService(search, ops, nil, nil, zap.NewNop())

	_, err := svc.Ingest(context.Background(), "gundam", 1, nil, nil)

	var ex *apperr.ExtractionError
	require.ErrorAs(t, err, &ex)
	assert.Empty(t, ops.ops, "no inserts may happen when the envelope is invalid")
}

func TestIngestUpstreamFailureIsBatchFatal(t *testing.T) {
	search := &MockSearchAPI{}
	search.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &apperr.UpstreamError{Err: errors.New("connection refused")})

	svc := NewIngestService(search, &fakeOps{}, nil, nil, zap.NewNop())

	_, err := svc.Ingest(context.Background(), "gundam", 1, nil, nil)

	var up *apperr.UpstreamError
	assert.ErrorAs(t, err, &up)
}

// flakyRecordRepo delegates to a real store but fails the insert of one
// configured item.
type flakyRecordRepo struct {
	repo.RecordRepo
	failHashID string
}

func (f *flakyRecordRepo) Create(ctx context.Context, rec *model.Record) error {
	if rec.HashID == f.failHashID {
		return &apperr.PersistenceError{Op: "create record", Err: errors.New("constraint violation")}
	}
	return f.RecordRepo.Create(ctx, rec)
}

func TestIngestThenFetchThroughStore(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&model.Record{}))

	store := &flakyRecordRepo{
		RecordRepo: repo.NewRecordRepo(gdb),
		failHashID: "item-2",
	}
	ops := NewOperationService(store, nil)

	items := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		items = append(items, searchItem(fmt.Sprintf("item-%d", i), fmt.Sprintf("https://cdn.example.com/%d.png", i)))
	}
	search := &MockSearchAPI{}
	search.On("Search", mock.Anything, "gundam", 1, mock.Anything).
		Return(searchResponseWithItems(t, items), nil)

	svc := NewIngestService(search, ops, nil, nil, zap.NewNop())
	report, err := svc.Ingest(context.Background(), "gundam", 1, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Inserted)
	assert.Equal(t, 1, report.Failed)

	res, err := ops.Execute(context.Background(), FetchOp{})
	require.NoError(t, err)
	fetched, ok := res.(Fetched)
	require.True(t, ok)
	require.Len(t, fetched.Records, 5)

	images := make([]string, 0, len(fetched.Records))
	for _, p := range fetched.Records {
		assert.Equal(t, model.SentinelNoIPFS, p.IpfsImageURL)
		images = append(images, p.Image)
	}
	for i := 0; i < 6; i++ {
		url := fmt.Sprintf("https://cdn.example.com/%d.png", i)
		if i == 2 {
			assert.NotContains(t, images, url, "the failed item must not be stored")
			continue
		}
		assert.Contains(t, images, url)
	}
}

func TestIngestPublishFailureDoesNotFailBatch(t *testing.T) {
	search := &MockSearchAPI{}
	search.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(searchResponseWithItems(t, []string{searchItem("a", "https://cdn.example.com/a.png")}), nil)

	pub := &capturePublisher{err: errors.New("broker gone")}
	svc := NewIngestService(search, &fakeOps{}, nil, pub, zap.NewNop())

	report, err := svc.Ingest(context.Background(), "gundam", 1, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted)
}
