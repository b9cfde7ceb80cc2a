package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"box-schedule/backend/internal/dto"
	"box-schedule/backend/internal/service"
	"box-schedule/backend/pkg/response"
)

// HistoryHandler 训练历史 HTTP 处理器
type HistoryHandler struct {
	historySvc service.HistoryService
}

// NewHistoryHandler 创建 HistoryHandler
func NewHistoryHandler(historySvc service.HistoryService) *HistoryHandler {
	return &HistoryHandler{historySvc: historySvc}
}

// ListHistory 我的训练历史
// GET /api/v1/history?month=2026-01
func (h *HistoryHandler) ListHistory(c *gin.Context) {
	var req dto.HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	entries, err := h.historySvc.ListHistory(c.Request.Context(), userID, req.Month)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMonth) {
			response.BadRequest(c, 23001, "月份格式无效，应为 YYYY-MM")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": entries})
}
