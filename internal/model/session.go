package model

import (
	"time"

	"gorm.io/datatypes"
)

// 课程实例状态
const (
	SessionStatusScheduled = "scheduled"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
)

// Session 课程实例表，对应 sessions
// 容量、时间、时长均在生成时从模板快照，之后模板变更不影响已生成实例
type Session struct {
	SessionID        string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"    json:"session_id"`
	TemplateID       string            `gorm:"type:uuid;not null"                                json:"template_id"`
	SessionDate      time.Time         `gorm:"type:date;not null"                                json:"session_date"`
	StartTime        string            `gorm:"type:varchar(5);not null"                          json:"start_time"`
	DurationMin      int               `gorm:"not null"                                          json:"duration_min"`
	Capacity         int               `gorm:"not null"                                          json:"capacity"`
	Status           string            `gorm:"type:varchar(20);not null;default:'scheduled'"     json:"status"` // scheduled | completed | cancelled
	Notes            string            `gorm:"type:varchar(500);not null;default:''"             json:"notes"`
	TemplateSnapshot datatypes.JSONMap `gorm:"type:jsonb"                                        json:"template_snapshot,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (Session) TableName() string { return "sessions" }

// SlotKey 课程所在时段（日期 + 开始时间），重叠预约按此判定
func (s *Session) SlotKey() string {
	return s.SessionDate.Format("2006-01-02") + " " + s.StartTime
}
