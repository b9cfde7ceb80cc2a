package dto

// ── 历史记录模块 DTO ──

// HistoryRequest 历史记录查询参数
type HistoryRequest struct {
	Month string `form:"month" binding:"required,yyyymm"`
}

// HistoryEntry 历史记录项
type HistoryEntry struct {
	SessionID        string `json:"session_id"`
	ReservationID    string `json:"reservation_id"`
	Name             string `json:"name,omitempty"`
	Date             string `json:"date"`
	Time             string `json:"time"`
	DurationMin      int    `json:"duration_min"`
	AttendanceStatus string `json:"attendance_status"` // present | absent | unknown
}
