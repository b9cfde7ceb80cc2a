package model

import "time"

// Reservation 预约表，对应 reservations
// 每个 (session, user) 只有一行：取消为软取消，重新预约时清空 cancelled_at 复用该行
type Reservation struct {
	ReservationID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"reservation_id"`
	SessionID     string     `gorm:"type:uuid;not null"                             json:"session_id"`
	UserID        string     `gorm:"type:uuid;not null"                             json:"user_id"`
	SessionDate   time.Time  `gorm:"type:date;not null"                             json:"session_date"` // 冗余快照，用于重叠唯一索引
	StartTime     string     `gorm:"type:varchar(5);not null"                       json:"start_time"`   // 冗余快照
	CreatedAt     time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`

	// 关联
	Session *Session `gorm:"foreignKey:SessionID;references:SessionID" json:"session,omitempty"`
}

// TableName 指定表名
func (Reservation) TableName() string { return "reservations" }

// IsActive 未取消即为有效预约
func (r *Reservation) IsActive() bool { return r.CancelledAt == nil }
