package dto

// ── 出勤模块 DTO ──

// MarkAttendanceRequest 点名请求
type MarkAttendanceRequest struct {
	Status string `json:"status" binding:"required,oneof=present absent"`
}

// ResetAttendanceResponse 重置结果
type ResetAttendanceResponse struct {
	Deleted int64 `json:"deleted"`
}

// SessionStatusResponse 课程状态变更结果
type SessionStatusResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Version int    `json:"version"`
}

// ExportAttendanceRequest 出勤导出参数
type ExportAttendanceRequest struct {
	Month string `form:"month" binding:"required,yyyymm"`
}
