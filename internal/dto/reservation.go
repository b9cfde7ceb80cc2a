package dto

// ── 预约模块 DTO ──

// ReservationResponse 预约结果
type ReservationResponse struct {
	ReservationID string `json:"reservation_id"`
	SessionID     string `json:"session_id"`
	Reactivated   bool   `json:"reactivated"`
}

// RosterEntry 课程名单项（教练点名用）
type RosterEntry struct {
	ReservationID    string `json:"reservation_id"`
	UserID           string `json:"user_id"`
	Name             string `json:"name,omitempty"`
	ReservedAt       string `json:"reserved_at"`
	AttendanceStatus string `json:"attendance_status"` // present | absent | none
}

// RosterResponse 课程名单
type RosterResponse struct {
	Session SessionView   `json:"session"`
	Entries []RosterEntry `json:"entries"`
}

// CalendarRequest 我的预约日历导出参数
type CalendarRequest struct {
	From string `form:"from" binding:"omitempty,yyyymmdd"` // 缺省今天
	Days int    `form:"days" binding:"omitempty,min=1,max=62"`
}
