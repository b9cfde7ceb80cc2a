package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"box-schedule/backend/internal/dto"
	"box-schedule/backend/internal/service"
	"box-schedule/backend/pkg/response"
)

// ReservationHandler 预约模块 HTTP 处理器
type ReservationHandler struct {
	reservationSvc service.ReservationService
	calendarSvc    service.CalendarService
}

// NewReservationHandler 创建 ReservationHandler
func NewReservationHandler(reservationSvc service.ReservationService, calendarSvc service.CalendarService) *ReservationHandler {
	return &ReservationHandler{reservationSvc: reservationSvc, calendarSvc: calendarSvc}
}

// Reserve 预约课程（当前用户）
// POST /api/v1/sessions/:id/reservations
func (h *ReservationHandler) Reserve(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		response.BadRequest(c, 10001, "课程ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.reservationSvc.Reserve(c.Request.Context(), sessionID, userID)
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	response.Created(c, result)
}

// Cancel 取消预约（当前用户）
// DELETE /api/v1/sessions/:id/reservations
func (h *ReservationHandler) Cancel(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		response.BadRequest(c, 10001, "课程ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.reservationSvc.Cancel(c.Request.Context(), sessionID, userID); err != nil {
		h.handleReservationError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListRoster 课程名单（教练点名）
// GET /api/v1/sessions/:id/roster
func (h *ReservationHandler) ListRoster(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		response.BadRequest(c, 10001, "课程ID不能为空")
		return
	}

	roster, err := h.reservationSvc.ListRoster(c.Request.Context(), sessionID)
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	response.OK(c, roster)
}

// ExportCalendar 导出我的预约日历
// GET /api/v1/reservations/me.ics?from=2026-02-01&days=28
func (h *ReservationHandler) ExportCalendar(c *gin.Context) {
	var req dto.CalendarRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	out, err := h.calendarSvc.ExportMyReservations(c.Request.Context(), userID, req.From, req.Days)
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="reservations.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(out))
}

// handleReservationError 统一处理预约模块业务错误
// 业务拒绝一律 409，客户端不应自动重试
func (h *ReservationHandler) handleReservationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 20001, "课程不存在")
	case errors.Is(err, service.ErrReservationNotFound):
		response.NotFound(c, 21001, "未找到有效预约")
	case errors.Is(err, service.ErrAlreadyBooked):
		response.Conflict(c, 21002, "已预约该课程")
	case errors.Is(err, service.ErrSessionFull):
		response.Conflict(c, 21003, "课程名额已满")
	case errors.Is(err, service.ErrOverlap):
		response.Conflict(c, 21004, "同一时段已预约其他课程")
	case errors.Is(err, service.ErrSessionUnavailable):
		response.Conflict(c, 21005, "课程不可预约")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 20002, "日期格式无效，应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrInvalidDays):
		response.BadRequest(c, 20003, "天数必须在 1-62 之间")
	default:
		response.InternalError(c)
	}
}
