package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"box-schedule/backend/internal/dto"
	"box-schedule/backend/internal/service"
	"box-schedule/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportAttendance 导出月度出勤表
// GET /api/v1/export/attendance?month=2026-01
func (h *ExportHandler) ExportAttendance(c *gin.Context) {
	var req dto.ExportAttendanceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "month 格式应为 YYYY-MM")
		return
	}

	buf, filename, err := h.exportSvc.ExportAttendance(c.Request.Context(), req.Month)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidMonth):
		response.BadRequest(c, 23001, "月份格式无效，应为 YYYY-MM")
	case errors.Is(err, service.ErrExportNoData):
		response.NotFound(c, 24001, "该月份暂无可导出的预约记录")
	default:
		response.InternalError(c)
	}
}
