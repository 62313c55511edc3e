package approval

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/curricula/backend/pkg/response"
)

// Handler serves the approve and reject admin actions.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an approval handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

func submissionID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid submission id")
		return 0, false
	}
	return id, true
}

// Approve handles POST /api/admin/submissions/:id/approve.
func (h *Handler) Approve(c *gin.Context) {
	id, ok := submissionID(c)
	if !ok {
		return
	}
	// An empty body is an empty request; the service reports what is missing.
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	req.SubmissionID = id

	res, err := h.svc.Approve(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("approve submission", zap.Int64("submission_id", id), zap.Error(err))
		response.Error(c, err, "Failed to approve submission")
		return
	}
	response.OK(c, res)
}

// Reject handles POST /api/admin/submissions/:id/reject. The body is optional.
func (h *Handler) Reject(c *gin.Context) {
	id, ok := submissionID(c)
	if !ok {
		return
	}
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if err := h.svc.Reject(c.Request.Context(), id, req.Notes); err != nil {
		h.logger.Error("reject submission", zap.Int64("submission_id", id), zap.Error(err))
		response.Error(c, err, "Failed to reject submission")
		return
	}
	response.OK(c, gin.H{"id": id})
}
