package handler

import (
	"net/http"

	"github.com/artmirror-io/artmirror/internal/modules/repo"
	"github.com/artmirror-io/artmirror/internal/modules/serializer"
	"github.com/artmirror-io/artmirror/internal/modules/service"
	"github.com/gin-gonic/gin"
)

type IngestHandler struct {
	ingest service.IngestService
	mirror service.MirrorService
	runs   repo.IngestRunRepo
}

func NewIngestHandler(ingest service.IngestService, mirror service.MirrorService, runs repo.IngestRunRepo) *IngestHandler {
	return &IngestHandler{ingest: ingest, mirror: mirror, runs: runs}
}

type IngestReq struct {
	Keyword  string   `json:"keyword" binding:"required"`
	Page     int      `json:"page" binding:"omitempty,gte=1"`
	Tags     []string `json:"tags"`
	Category *string  `json:"category"`
}

// Ingest godoc
//
//	@Summary		Ingest search results
//	@Description	Run one page of an artwork search and store every result item
//	@Tags			ingest
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.IngestReq	true	"Search to ingest"
//	@Success		200	{object}	serializer.Response{data=service.IngestReport}
//	@Router			/ingest [post]
func (h *IngestHandler) Ingest(c *gin.Context) {
	req := IngestReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	if req.Page == 0 {
		req.Page = 1
	}

	report, err := h.ingest.Ingest(c.Request.Context(), req.Keyword, req.Page, req.Tags, req.Category)
	if err != nil {
		respondOperationErr(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.Response{Data: report})
}

// MirrorRecord godoc
//
//	@Summary		Mirror record image
//	@Description	Pin the record's source image to IPFS and store the ipfs:// location
//	@Tags			ingest
//	@Produce		json
//	@Param			id	path	int	true	"Record ID"
//	@Success		200	{object}	serializer.Response{data=model.Projection}
//	@Router			/records/{id}/mirror [post]
func (h *IngestHandler) MirrorRecord(c *gin.Context) {
	id, ok := parseRecordID(c)
	if !ok {
		return
	}

	projected, err := h.mirror.Mirror(c.Request.Context(), id)
	if err != nil {
		respondOperationErr(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.Response{Data: projected})
}

// ListRuns godoc
//
//	@Summary		List ingest runs
//	@Description	List recent ingestion runs, newest first
//	@Tags			ingest
//	@Produce		json
//	@Success		200	{object}	serializer.Response{data=[]model.IngestRun}
//	@Router			/ingest/runs [get]
func (h *IngestHandler) ListRuns(c *gin.Context) {
	runs, err := h.runs.List(c.Request.Context(), 50)
	if err != nil {
		respondOperationErr(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.Response{Data: runs})
}
