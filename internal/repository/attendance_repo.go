package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"box-schedule/backend/internal/model"
)

// AttendanceRepository 出勤记录数据访问接口
type AttendanceRepository interface {
	// Upsert 按 (session_id, user_id) 写入，已存在则覆盖（后写为准）
	Upsert(ctx context.Context, record *model.AttendanceRecord) error
	DeleteBySession(ctx context.Context, sessionID string) (int64, error)
	ListBySessions(ctx context.Context, sessionIDs []string) ([]model.AttendanceRecord, error)
	ListByUserAndSessions(ctx context.Context, userID string, sessionIDs []string) ([]model.AttendanceRecord, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Upsert(ctx context.Context, record *model.AttendanceRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "marked_by", "marked_at"}),
		}).
		Create(record).Error
}

func (r *attendanceRepo) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&model.AttendanceRecord{})
	return result.RowsAffected, result.Error
}

func (r *attendanceRepo) ListBySessions(ctx context.Context, sessionIDs []string) ([]model.AttendanceRecord, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("session_id IN ?", sessionIDs).
		Find(&records).Error
	return records, err
}

func (r *attendanceRepo) ListByUserAndSessions(ctx context.Context, userID string, sessionIDs []string) ([]model.AttendanceRecord, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND session_id IN ?", userID, sessionIDs).
		Find(&records).Error
	return records, err
}
