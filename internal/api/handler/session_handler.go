package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"box-schedule/backend/internal/dto"
	"box-schedule/backend/internal/service"
	"box-schedule/backend/pkg/response"
)

// SessionHandler 课程模块 HTTP 处理器（生成 + 查询）
type SessionHandler struct {
	seederSvc  service.SeederService
	catalogSvc service.CatalogService
}

// NewSessionHandler 创建 SessionHandler
func NewSessionHandler(seederSvc service.SeederService, catalogSvc service.CatalogService) *SessionHandler {
	return &SessionHandler{seederSvc: seederSvc, catalogSvc: catalogSvc}
}

// SeedSessions 按模板生成课程实例
// POST /api/v1/sessions/seed
func (h *SessionHandler) SeedSessions(c *gin.Context) {
	var req dto.SeedSessionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.seederSvc.SeedSessions(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, result)
}

// ListSessions 课程列表（附当前用户的预约与出勤状态）
// GET /api/v1/sessions?date_from=2026-02-02&days=7
func (h *SessionHandler) ListSessions(c *gin.Context) {
	var req dto.ListSessionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	views, err := h.catalogSvc.ListSessions(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, gin.H{"list": views})
}

// GetSession 课程详情
// GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "课程ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	view, err := h.catalogSvc.GetSession(c.Request.Context(), id, userID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, view)
}

// handleSessionError 统一处理课程模块业务错误
func (h *SessionHandler) handleSessionError(c *gin.Context, err error) {
	var tplErr *service.TemplateError
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 20001, "课程不存在")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 20002, "日期格式无效，应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrInvalidDays):
		response.BadRequest(c, 20003, "天数必须在 1-62 之间")
	case errors.Is(err, service.ErrTemplateInvalid) && errors.As(err, &tplErr):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20004, "课程模板配置无效", tplErr.TemplateID)
	default:
		response.InternalError(c)
	}
}
