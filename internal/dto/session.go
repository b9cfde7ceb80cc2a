package dto

// ── 课程实例模块 DTO ──

// SeedSessionsRequest 生成课程实例请求
type SeedSessionsRequest struct {
	StartDate string `json:"start_date" binding:"required,yyyymmdd"`
	Days      int    `json:"days"       binding:"omitempty,min=1,max=62"` // 缺省 7
}

// ListSessionsRequest 课程列表查询参数
type ListSessionsRequest struct {
	DateFrom string `form:"date_from" binding:"required,yyyymmdd"`
	Days     int    `form:"days"      binding:"omitempty,min=1,max=62"` // 缺省 7
}

// ── 响应 ──

// SeedSessionsResponse 生成结果
type SeedSessionsResponse struct {
	CreatedOrUpdated int `json:"created_or_updated"`
	Templates        int `json:"templates"`
}

// 我的预约状态
const (
	MyReservationNone      = "none"
	MyReservationActive    = "active"
	MyReservationCancelled = "cancelled"
)

// 我的出勤状态；none 仅用于课程列表，unknown 仅用于历史记录
const (
	AttendanceNone    = "none"
	AttendanceUnknown = "unknown"
)

// SessionView 课程列表项
type SessionView struct {
	ID                  string `json:"id"`
	TemplateID          string `json:"template_id"`
	Name                string `json:"name,omitempty"`
	Date                string `json:"date"`
	Time                string `json:"time"`
	DurationMin         int    `json:"duration_min"`
	Capacity            int    `json:"capacity"`
	ReservedCount       int    `json:"reserved_count"`
	Remaining           int    `json:"remaining"`
	Status              string `json:"status"`
	Notes               string `json:"notes,omitempty"`
	ReservedByMe        bool   `json:"reserved_by_me"`
	MyReservationStatus string `json:"my_reservation_status"`
	AttendanceStatus    string `json:"attendance_status"`
}
