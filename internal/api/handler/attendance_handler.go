package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"box-schedule/backend/internal/dto"
	"box-schedule/backend/internal/service"
	"box-schedule/backend/pkg/response"
)

// AttendanceHandler 出勤模块 HTTP 处理器
// 路由层已限定 admin / coach
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// MarkAttendance 点名
// PUT /api/v1/sessions/:id/attendance/:user_id
func (h *AttendanceHandler) MarkAttendance(c *gin.Context) {
	sessionID := c.Param("id")
	userID := c.Param("user_id")
	if sessionID == "" || userID == "" {
		response.BadRequest(c, 10001, "课程ID与用户ID不能为空")
		return
	}

	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.attendanceSvc.Mark(c.Request.Context(), sessionID, userID, req.Status, callerID); err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, nil)
}

// ResetAttendance 重置课程出勤
// DELETE /api/v1/sessions/:id/attendance
func (h *AttendanceHandler) ResetAttendance(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		response.BadRequest(c, 10001, "课程ID不能为空")
		return
	}

	result, err := h.attendanceSvc.ResetSession(c.Request.Context(), sessionID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// CloseSession 结课
// POST /api/v1/sessions/:id/close
func (h *AttendanceHandler) CloseSession(c *gin.Context) {
	h.transition(c, h.attendanceSvc.CloseSession)
}

// ReopenSession 重新开放
// POST /api/v1/sessions/:id/reopen
func (h *AttendanceHandler) ReopenSession(c *gin.Context) {
	h.transition(c, h.attendanceSvc.ReopenSession)
}

type transitionFunc func(ctx context.Context, sessionID, callerID string) (*dto.SessionStatusResponse, error)

func (h *AttendanceHandler) transition(c *gin.Context, fn transitionFunc) {
	sessionID := c.Param("id")
	if sessionID == "" {
		response.BadRequest(c, 10001, "课程ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), sessionID, callerID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// handleAttendanceError 统一处理出勤模块业务错误
func (h *AttendanceHandler) handleAttendanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 20001, "课程不存在")
	case errors.Is(err, service.ErrInvalidAttendanceStatus):
		response.BadRequest(c, 22001, "出勤状态无效，应为 present 或 absent")
	case errors.Is(err, service.ErrOptimisticLock):
		response.Conflict(c, 22002, "课程状态已被修改，请刷新后重试")
	case errors.Is(err, service.ErrSessionUnavailable):
		response.Conflict(c, 21005, "课程已取消")
	default:
		response.InternalError(c)
	}
}
