package model

// ClassTemplate 每周课程模板表，对应 class_templates（外部配置，只读）
type ClassTemplate struct {
	TemplateID  string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"template_id"`
	Name        string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Weekday     int     `gorm:"type:smallint;not null"                         json:"weekday"`    // 0=周日 … 6=周六
	StartTime   string  `gorm:"type:varchar(5);not null"                       json:"start_time"` // HH:MM
	DurationMin int     `gorm:"not null"                                       json:"duration_min"`
	Capacity    int     `gorm:"not null"                                       json:"capacity"`
	CoachID     *string `gorm:"type:uuid"                                      json:"coach_id,omitempty"`
	IsActive    bool    `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (ClassTemplate) TableName() string { return "class_templates" }
