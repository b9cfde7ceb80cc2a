package model

import "time"

// 出勤状态
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
)

// AttendanceRecord 出勤记录表，对应 attendance_records
// 与预约生命周期独立：预约取消后记录仍保留；按课程整体重置时删除
type AttendanceRecord struct {
	AttendanceID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"attendance_id"`
	SessionID    string    `gorm:"type:uuid;not null"                             json:"session_id"`
	UserID       string    `gorm:"type:uuid;not null"                             json:"user_id"`
	Status       string    `gorm:"type:varchar(10);not null"                      json:"status"` // present | absent
	MarkedBy     string    `gorm:"type:uuid;not null"                             json:"marked_by"`
	MarkedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"marked_at"`
}

// TableName 指定表名
func (AttendanceRecord) TableName() string { return "attendance_records" }

// IsValidAttendanceStatus 校验出勤状态取值
func IsValidAttendanceStatus(status string) bool {
	return status == AttendancePresent || status == AttendanceAbsent
}
