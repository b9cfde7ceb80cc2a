package repository

import (
	"context"

	"gorm.io/gorm"

	"box-schedule/backend/internal/model"
)

// ClassTemplateRepository 课程模板数据访问接口（只读）
type ClassTemplateRepository interface {
	GetByID(ctx context.Context, id string) (*model.ClassTemplate, error)
	ListActive(ctx context.Context) ([]model.ClassTemplate, error)
}

type classTemplateRepo struct {
	db *gorm.DB
}

// NewClassTemplateRepo 创建 ClassTemplateRepository 实例
func NewClassTemplateRepo(db *gorm.DB) ClassTemplateRepository {
	return &classTemplateRepo{db: db}
}

func (r *classTemplateRepo) GetByID(ctx context.Context, id string) (*model.ClassTemplate, error) {
	var tpl model.ClassTemplate
	err := r.db.WithContext(ctx).
		Where("template_id = ?", id).
		First(&tpl).Error
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *classTemplateRepo) ListActive(ctx context.Context) ([]model.ClassTemplate, error) {
	var templates []model.ClassTemplate
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("weekday ASC, start_time ASC, template_id ASC").
		Find(&templates).Error
	return templates, err
}
