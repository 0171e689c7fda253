package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/courseguide-backend/internal/http/response"
	"github.com/yungbote/courseguide-backend/internal/platform/apierr"
	"github.com/yungbote/courseguide-backend/internal/platform/ctxutil"
	"github.com/yungbote/courseguide-backend/internal/platform/logger"
	"github.com/yungbote/courseguide-backend/internal/services"
)

type CourseGuideHandler struct {
	log *logger.Logger
	svc services.CourseGuideService
}

func NewCourseGuideHandler(log *logger.Logger, svc services.CourseGuideService) *CourseGuideHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &CourseGuideHandler{log: log.With("handler", "CourseGuideHandler"), svc: svc}
}

type createGuideRequest struct {
	Input  string `json:"input"`
	UserID string `json:"userId"`
}

type deleteGuideRequest struct {
	UserID    string `json:"userId"`
	Input     string `json:"input"`
	CreatedAt string `json:"createdAt"`
}

// POST /api/course-guide
func (h *CourseGuideHandler) Create(c *gin.Context) {
	var req createGuideRequest
	// A malformed body is treated the same as missing fields.
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug("create body not bound", "error", err)
	}
	userID, ok := authorizeUser(c, req.UserID)
	if !ok {
		return
	}
	rec, err := h.svc.Create(c.Request.Context(), req.Input, userID)
	if err != nil {
		_ = c.Error(err)
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, rec)
}

// GET /api/course-guide?userId=
func (h *CourseGuideHandler) List(c *gin.Context) {
	userID, ok := authorizeUser(c, c.Query("userId"))
	if !ok {
		return
	}
	rows, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// DELETE /api/course-guide
func (h *CourseGuideHandler) Delete(c *gin.Context) {
	var req deleteGuideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug("delete body not bound", "error", err)
	}
	userID, ok := authorizeUser(c, req.UserID)
	if !ok {
		return
	}
	if _, err := h.svc.Delete(c.Request.Context(), userID, req.Input, req.CreatedAt); err != nil {
		_ = c.Error(err)
		response.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// authorizeUser resolves the acting user id. With a verified identity the
// claimed id must match it (an empty claim defaults to it); without one the
// claim is trusted as sent.
func authorizeUser(c *gin.Context, claimed string) (string, bool) {
	id := ctxutil.GetIdentity(c.Request.Context())
	if id == nil || id.UserID == "" {
		return claimed, true
	}
	claimed = strings.TrimSpace(claimed)
	if claimed == "" {
		return id.UserID, true
	}
	if claimed != id.UserID {
		response.RespondError(c, apierr.Forbidden())
		c.Abort()
		return "", false
	}
	return claimed, true
}
