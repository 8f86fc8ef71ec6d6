package service

import (
	"context"

	"github.com/artmirror-io/artmirror/internal/infra/httpclient"
	"github.com/artmirror-io/artmirror/internal/modules/model"
	"github.com/artmirror-io/artmirror/internal/modules/repo"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SearchAPI is the outbound surface of the artwork search client.
type SearchAPI interface {
	Search(ctx context.Context, keyword string, page int, tags []string) (*httpclient.SearchResponse, error)
}

// MirrorPublisher enqueues mirror jobs. May be nil when no queue is wired.
type MirrorPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, body any) error
}

// MirrorJob asks the mirror worker to pin one record's image.
type MirrorJob struct {
	RecordID int32  `json:"record_id"`
	ImageURL string `json:"image_url"`
}

// IngestReport aggregates one batch. Per-item failures are never surfaced
// individually, only counted.
type IngestReport struct {
	Inserted int `json:"inserted"`
	Failed   int `json:"failed"`
}

type IngestService interface {
	Ingest(ctx context.Context, keyword string, page int, tags []string, category *string) (*IngestReport, error)
}

type ingestService struct {
	search SearchAPI
	ops    OperationService
	runs   repo.IngestRunRepo
	pub    MirrorPublisher
	log    *zap.Logger
}

func NewIngestService(search SearchAPI, ops OperationService, runs repo.IngestRunRepo, pub MirrorPublisher, log *zap.Logger) IngestService {
	return &ingestService{search: search, ops: ops, runs: runs, pub: pub, log: log}
}

// Ingest runs one page of a search and stores every result item as a new
// record. An upstream or envelope failure aborts the whole batch; a single
// item's insert failure is counted and the batch continues.
func (s *ingestService) Ingest(ctx context.Context, keyword string, page int, tags []string, category *string) (*IngestReport, error) {
	resp, err := s.search.Search(ctx, keyword, page, tags)
	if err != nil {
		return nil, err
	}

	items, err := resp.Items()
	if err != nil {
		return nil, err
	}

	runID := uuid.New()
	log := s.log.With(zap.String("run_id", runID.String()), zap.String("keyword", keyword))
	log.Info("ingest started", zap.Int("items", len(items)))

	report := &IngestReport{}
	var jobs []MirrorJob
	for _, item := range items {
		meta := httpclient.ExtractItem(item)
		prompt := meta.Prompt

		res, err := s.ops.Execute(ctx, CreateOp{
			Image:        meta.ImageURL,
			IpfsImageURL: model.SentinelNoIPFS,
			Category:     category,
			Width:        meta.Width,
			Height:       meta.Height,
			Prompt:       &prompt,
			HashID:       meta.HashID,
		})
		if err != nil {
			report.Failed++
			log.Warn("item insert failed", zap.String("hash_id", meta.HashID), zap.Error(err))
			continue
		}

		report.Inserted++
		if created, ok := res.(Created); ok && created.Image != "" {
			jobs = append(jobs, MirrorJob{RecordID: created.ID, ImageURL: created.Image})
		}
	}

	s.enqueueMirrorJobs(ctx, log, jobs)
	s.recordRun(ctx, log, runID, keyword, page, tags, category, report, len(items))

	log.Info("ingest finished",
		zap.Int("inserted", report.Inserted),
		zap.Int("failed", report.Failed))
	return report, nil
}

// enqueueMirrorJobs is best-effort: records left at the NO_IPFS sentinel can
// be mirrored later through the mirror endpoint.
func (s *ingestService) enqueueMirrorJobs(ctx context.Context, log *zap.Logger, jobs []MirrorJob) {
	if s.pub == nil {
		return
	}
	for _, job := range jobs {
		if err := s.pub.PublishJSON(ctx, "mirror", job); err != nil {
			log.Warn("mirror job publish failed", zap.Int32("record_id", job.RecordID), zap.Error(err))
		}
	}
}

func (s *ingestService) recordRun(ctx context.Context, log *zap.Logger, runID uuid.UUID, keyword string, page int, tags []string, category *string, report *IngestReport, total int) {
	if s.runs == nil {
		return
	}
	tagsMeta := make([]interface{}, len(tags))
	for i, t := range tags {
		tagsMeta[i] = t
	}
	run := &model.IngestRun{
		ID:       runID,
		Keyword:  keyword,
		Page:     page,
		Category: category,
		Inserted: report.Inserted,
		Failed:   report.Failed,
		Meta: map[string]interface{}{
			"tags":  tagsMeta,
			"items": total,
		},
	}
	if err := s.runs.Create(ctx, run); err != nil {
		log.Warn("ingest run audit insert failed", zap.Error(err))
	}
}
