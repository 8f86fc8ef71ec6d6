package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/artmirror-io/artmirror/internal/modules/model"
	"github.com/artmirror-io/artmirror/internal/modules/serializer"
	"github.com/artmirror-io/artmirror/internal/modules/service"
	"github.com/artmirror-io/artmirror/internal/pkg/apperr"
	"github.com/gin-gonic/gin"
)

type RecordHandler struct {
	ops service.OperationService
}

func NewRecordHandler(ops service.OperationService) *RecordHandler {
	return &RecordHandler{ops: ops}
}

// respondOperationErr maps the error taxonomy onto HTTP statuses.
func respondOperationErr(c *gin.Context, err error) {
	var nf *apperr.NotFoundError
	if errors.As(err, &nf) {
		c.JSON(http.StatusNotFound, serializer.NotFoundErr("", err))
		return
	}
	var up *apperr.UpstreamError
	if errors.As(err, &up) {
		c.JSON(http.StatusBadGateway, serializer.UpstreamErr("", err))
		return
	}
	var ex *apperr.ExtractionError
	if errors.As(err, &ex) {
		c.JSON(http.StatusBadGateway, serializer.UpstreamErr("", err))
		return
	}
	c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
}

func parseRecordID(c *gin.Context) (int32, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid record id", err))
		return 0, false
	}
	return int32(id), true
}

type CreateRecordReq struct {
	Image        string  `json:"image" binding:"required"`
	IpfsImageURL string  `json:"ipfs_image_url"`
	Category     *string `json:"category"`
	Width        int32   `json:"width" binding:"gte=0"`
	Height       int32   `json:"height" binding:"gte=0"`
	Prompt       *string `json:"prompt"`
	HashID       string  `json:"hash_id"`
}

// CreateRecord godoc
//
//	@Summary		Create record
//	@Description	Store one artwork record
//	@Tags			record
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.CreateRecordReq	true	"Record to store"
//	@Success		201	{object}	serializer.Response{data=service.Created}
//	@Router			/records [post]
func (h *RecordHandler) CreateRecord(c *gin.Context) {
	req := CreateRecordReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	if req.IpfsImageURL == "" {
		req.IpfsImageURL = model.SentinelNoIPFS
	}

	res, err := h.ops.Execute(c.Request.Context(), service.CreateOp{
		Image:        req.Image,
		IpfsImageURL: req.IpfsImageURL,
		Category:     req.Category,
		Width:        req.Width,
		Height:       req.Height,
		Prompt:       req.Prompt,
		HashID:       req.HashID,
	})
	if err != nil {
		respondOperationErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, serializer.Response{Data: res})
}

// FetchRecords godoc
//
//	@Summary		Fetch records
//	@Description	List every stored record as its read projection
//	@Tags			record
//	@Produce		json
//	@Success		200	{object}	serializer.Response{data=service.Fetched}
//	@Router			/records [get]
func (h *RecordHandler) FetchRecords(c *gin.Context) {
	res, err := h.ops.Execute(c.Request.Context(), service.FetchOp{})
	if err != nil {
		respondOperationErr(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.Response{Data: res})
}

type UpdateRecordReq struct {
	Image        *string `json:"image"`
	IpfsImageURL *string `json:"ipfs_image_url"`
	Category     *string `json:"category"`
}

// UpdateRecord godoc
//
//	@Summary		Update record
//	@Description	Overwrite the supplied fields; omitted fields keep their stored values
//	@Tags			record
//	@Accept			json
//	@Produce		json
//	@Param			id		path	int						true	"Record ID"
//	@Param			payload	body	handler.UpdateRecordReq	true	"Fields to overwrite"
//	@Success		200	{object}	serializer.Response{data=service.Updated}
//	@Router			/records/{id} [patch]
func (h *RecordHandler) UpdateRecord(c *gin.Context) {
	id, ok := parseRecordID(c)
	if !ok {
		return
	}

	req := UpdateRecordReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	res, err := h.ops.Execute(c.Request.Context(), service.UpdateOp{
		ID:           id,
		Image:        req.Image,
		IpfsImageURL: req.IpfsImageURL,
		Category:     req.Category,
	})
	if err != nil {
		respondOperationErr(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.Response{Data: res})
}

// DeleteRecord godoc
//
//	@Summary		Delete record
//	@Description	Delete one record; deleting an absent id reports zero affected rows
//	@Tags			record
//	@Produce		json
//	@Param			id	path	int	true	"Record ID"
//	@Success		200	{object}	serializer.Response{data=service.Deleted}
//	@Router			/records/{id} [delete]
func (h *RecordHandler) DeleteRecord(c *gin.Context) {
	id, ok := parseRecordID(c)
	if !ok {
		return
	}

	res, err := h.ops.Execute(c.Request.Context(), service.DeleteOp{ID: id})
	if err != nil {
		respondOperationErr(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.Response{Data: res})
}
