package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"box-schedule/backend/internal/model"
	pkgerrors "box-schedule/backend/pkg/errors"
)

// SessionRepository 课程实例数据访问接口
type SessionRepository interface {
	// UpsertDrafts 按 (template_id, session_date, start_time) 幂等写入，已存在的实例保持不变
	UpsertDrafts(ctx context.Context, sessions []model.Session) (int64, error)
	GetByID(ctx context.Context, id string) (*model.Session, error)
	// ListByRange 列出 [from, to) 日期区间内的课程，按日期、开始时间排序
	ListByRange(ctx context.Context, from, to time.Time) ([]model.Session, error)
	UpdateStatus(ctx context.Context, session *model.Session) error
}

type sessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo 创建 SessionRepository 实例
func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) UpsertDrafts(ctx context.Context, sessions []model.Session) (int64, error) {
	if len(sessions) == 0 {
		return 0, nil
	}
	// 主键在客户端生成：ON CONFLICT DO NOTHING 时 RETURNING 行数与入参不一致
	for i := range sessions {
		if sessions[i].SessionID == "" {
			sessions[i].SessionID = uuid.New().String()
		}
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "template_id"}, {Name: "session_date"}, {Name: "start_time"}},
			DoNothing: true,
		}).
		Create(&sessions)
	return result.RowsAffected, result.Error
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.WithContext(ctx).
		Where("session_id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) ListByRange(ctx context.Context, from, to time.Time) ([]model.Session, error) {
	var sessions []model.Session
	err := r.db.WithContext(ctx).
		Where("session_date >= ? AND session_date < ?", from, to).
		Order("session_date ASC, start_time ASC, template_id ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepo) UpdateStatus(ctx context.Context, session *model.Session) error {
	oldVersion := session.Version
	result := r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("session_id = ? AND version = ?", session.SessionID, oldVersion).
		Updates(map[string]interface{}{
			"status":     session.Status,
			"updated_by": session.UpdatedBy,
			"updated_at": time.Now(),
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	session.Version = oldVersion + 1
	return nil
}
