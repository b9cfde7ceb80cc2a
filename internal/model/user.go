package model

import "time"

// 角色
const (
	RoleAthlete = "athlete"
	RoleCoach   = "coach"
	RoleAdmin   = "admin"
)

// User 用户表，对应 users（由身份服务同步，本服务只读）
type User struct {
	UserID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name      string    `gorm:"type:varchar(100);not null"                     json:"name"`
	Email     string    `gorm:"type:varchar(255);not null"                     json:"email"`
	Role      string    `gorm:"type:varchar(20);not null;default:'athlete'"    json:"role"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }
