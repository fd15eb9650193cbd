package answer

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/liliang-cn/exaanswer/internal/api/middleware"
	"github.com/liliang-cn/exaanswer/internal/domain"
	"github.com/liliang-cn/exaanswer/internal/service"
)

// Handler handles answer relay requests
type Handler struct {
	answerService *service.AnswerService
	logger        *zap.Logger
}

// NewHandler creates a new answer handler
func NewHandler(answerService *service.AnswerService, logger *zap.Logger) *Handler {
	return &Handler{answerService: answerService, logger: logger}
}

// RegisterRoutes registers answer routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/exaanswer", h.Answer)
}

// Answer streams an upstream answer as newline-delimited JSON records
func (h *Handler) Answer(c *gin.Context) {
	var req domain.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": searchFailed(err)})
		return
	}

	stream, err := h.answerService.Open(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrQueryRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": searchFailed(err)})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	if err := h.answerService.Relay(c.Request.Context(), stream, newRecordWriter(c.Writer)); err != nil {
		h.logger.Error("Streaming error",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		// Headers are committed; abort the connection so the client sees a
		// truncated body instead of a clean end of stream.
		panic(http.ErrAbortHandler)
	}
}

func searchFailed(err error) string {
	return "Failed to perform search | " + err.Error()
}

// recordWriter writes each record as one JSON line and flushes it.
type recordWriter struct {
	w   gin.ResponseWriter
	enc *json.Encoder
}

func newRecordWriter(w gin.ResponseWriter) *recordWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &recordWriter{w: w, enc: enc}
}

// WriteRecord encodes record followed by a newline
func (rw *recordWriter) WriteRecord(record any) error {
	if err := rw.enc.Encode(record); err != nil {
		return err
	}
	rw.w.Flush()
	return nil
}
