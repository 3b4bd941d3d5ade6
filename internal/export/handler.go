package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kingscode/bootcamp-api/internal/courses"
	"github.com/kingscode/bootcamp-api/internal/models"
	"github.com/kingscode/bootcamp-api/internal/registrations"
	"github.com/kingscode/bootcamp-api/pkg/response"
	"github.com/kingscode/bootcamp-api/pkg/storage"
)

// Lister loads the registrations to export.
type Lister interface {
	List(ctx context.Context, f registrations.ListFilter) ([]models.Registration, error)
}

// Uploader stores a finished workbook and signs a download link for it.
type Uploader interface {
	Upload(ctx context.Context, bucket, key, contentType string, body io.Reader, contentLength int64) error
	GeneratePresignedDownloadURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
	ExportsBucket() string
	PresignExpire() time.Duration
}

// Download is returned when the workbook was uploaded instead of streamed.
type Download struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	Count     int       `json:"count"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Handler serves registration exports.
type Handler struct {
	regs     Lister
	uploader Uploader
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandler creates an export handler. A nil uploader streams the workbook in the response.
func NewHandler(regs Lister, uploader Uploader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{regs: regs, uploader: uploader, logger: logger, now: time.Now}
}

// Registrations handles GET /api/registrations/export?course=.
func (h *Handler) Registrations(c *gin.Context) {
	course := c.Query("course")
	if course != "" && !courses.Valid(course) {
		response.BadRequest(c, "unknown course")
		return
	}
	ctx := c.Request.Context()
	list, err := h.regs.List(ctx, registrations.ListFilter{Course: course})
	if err != nil {
		h.logger.Error("export list failed", zap.Error(err))
		response.Internal(c, "failed to load registrations")
		return
	}

	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, list); err != nil {
		h.logger.Error("build workbook failed", zap.Error(err))
		response.Internal(c, "failed to build export")
		return
	}

	now := h.now()
	filename := fmt.Sprintf("registrations-%s.xlsx", now.UTC().Format("20060102-150405"))

	if h.uploader == nil {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		c.Data(http.StatusOK, ContentType, buf.Bytes())
		return
	}

	bucket := h.uploader.ExportsBucket()
	key := storage.ExportKey(now, filename)
	if err := h.uploader.Upload(ctx, bucket, key, ContentType, bytes.NewReader(buf.Bytes()), int64(buf.Len())); err != nil {
		h.logger.Error("export upload failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to upload export")
		return
	}
	expires := h.uploader.PresignExpire()
	url, err := h.uploader.GeneratePresignedDownloadURL(ctx, bucket, key, expires)
	if err != nil {
		h.logger.Error("export presign failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to sign export url")
		return
	}
	h.logger.Info("registrations exported", zap.String("key", key), zap.Int("count", len(list)))
	response.OK(c, Download{URL: url, Key: key, Count: len(list), ExpiresAt: now.Add(expires)})
}
