package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/fieldops-api/internal/dto"
	"github.com/noah-isme/fieldops-api/internal/models"
	"github.com/noah-isme/fieldops-api/internal/service"
	"github.com/noah-isme/fieldops-api/pkg/archive"
	appErrors "github.com/noah-isme/fieldops-api/pkg/errors"
	"github.com/noah-isme/fieldops-api/pkg/response"
)

const failureCountHeader = "X-Export-Failed-Photos"

type exportService interface {
	Export(ctx context.Context, userID string, scope models.ExportScope) (*service.PreparedExport, error)
}

// ExportHandler serves photo archives.
type ExportHandler struct {
	exports  exportService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(exports exportService, validate *validator.Validate, logger *zap.Logger) *ExportHandler {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportHandler{exports: exports, validate: validate, logger: logger}
}

// Day godoc
// @Summary Download every photo recorded on a date
// @Tags Export
// @Produce application/zip
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /export/day/{date} [get]
func (h *ExportHandler) Day(c *gin.Context) {
	var req dto.DayExportRequest
	if err := h.bind(c, &req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidDateFormat.Code, appErrors.ErrInvalidDateFormat.Status, appErrors.ErrInvalidDateFormat.Message))
		return
	}
	h.serve(c, models.AllForDate(req.Date))
}

// Worker godoc
// @Summary Download every photo of a worker
// @Tags Export
// @Produce application/zip
// @Param workerId path string true "Worker ID"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /export/worker/{workerId} [get]
func (h *ExportHandler) Worker(c *gin.Context) {
	var req dto.WorkerExportRequest
	if err := h.bind(c, &req); err != nil || !isUUID(req.WorkerID) {
		response.Error(c, appErrors.ErrWorkerHasNoItems)
		return
	}
	h.serve(c, models.SingleWorker(req.WorkerID))
}

// Item godoc
// @Summary Download the photos of one item
// @Tags Export
// @Produce application/zip
// @Param itemId path string true "Item ID"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /export/item/{itemId} [get]
func (h *ExportHandler) Item(c *gin.Context) {
	var req dto.ItemExportRequest
	if err := h.bind(c, &req); err != nil || !isUUID(req.ItemID) {
		response.Error(c, appErrors.ErrItemNotFound)
		return
	}
	h.serve(c, models.SingleItem(req.ItemID))
}

func (h *ExportHandler) bind(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindUri(req); err != nil {
		return err
	}
	return h.validate.Struct(req)
}

func (h *ExportHandler) serve(c *gin.Context, scope models.ExportScope) {
	claims := claimsFromContext(c)
	if claims == nil || claims.UserID() == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	prepared, err := h.exports.Export(c.Request.Context(), claims.UserID(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", archive.Disposition(prepared.Filename))
	c.Header("Cache-Control", "no-store")
	c.Header(failureCountHeader, strconv.Itoa(len(prepared.Failures)))

	if prepared.Stream {
		c.Header("Content-Type", archive.ContentType)
		c.Status(http.StatusOK)
		if _, err := prepared.WriteTo(c.Writer); err != nil {
			// Every photo is already in memory, so the only failure left is a write to a dropped
			// connection. The 200 is already on the wire and the client is gone; log and stop.
			h.logger.Error("archive stream failed", zap.String("filename", prepared.Filename), zap.Error(err))
			_ = c.Error(err)
			c.Abort()
		}
		return
	}

	data, err := prepared.Bytes()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Data(http.StatusOK, archive.ContentType, data)
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
