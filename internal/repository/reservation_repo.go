package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"box-schedule/backend/internal/model"
	pkgerrors "box-schedule/backend/pkg/errors"
)

// ReservationRepository 预约数据访问接口
type ReservationRepository interface {
	// Reserve 在单个事务内完成预约：锁定课程行 → 校验状态/重复/重叠/容量 → 新建或恢复
	// 返回的 bool 表示是否为恢复已取消的预约
	Reserve(ctx context.Context, sessionID, userID string, now time.Time) (*model.Reservation, bool, error)
	// Cancel 软取消有效预约；无有效预约时返回 gorm.ErrRecordNotFound
	Cancel(ctx context.Context, sessionID, userID string, now time.Time) (*model.Reservation, error)
	// CountActiveBySessions 一次聚合查询统计多个课程的有效预约数
	CountActiveBySessions(ctx context.Context, sessionIDs []string) (map[string]int, error)
	ListByUserAndSessions(ctx context.Context, userID string, sessionIDs []string) ([]model.Reservation, error)
	ListActiveBySession(ctx context.Context, sessionID string) ([]model.Reservation, error)
	// ListActiveByUserInRange 用户在 [from, to) 内的有效预约（含课程）
	ListActiveByUserInRange(ctx context.Context, userID string, from, to time.Time) ([]model.Reservation, error)
	// ListActiveInRange 所有用户在 [from, to) 内的有效预约（含课程）
	ListActiveInRange(ctx context.Context, from, to time.Time) ([]model.Reservation, error)
}

type reservationRepo struct {
	db *gorm.DB
}

// NewReservationRepo 创建 ReservationRepository 实例
func NewReservationRepo(db *gorm.DB) ReservationRepository {
	return &reservationRepo{db: db}
}

func (r *reservationRepo) Reserve(ctx context.Context, sessionID, userID string, now time.Time) (*model.Reservation, bool, error) {
	var reservation model.Reservation
	reactivated := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 行锁：同一课程的预约串行化，容量校验与写入之间不会插入其他预约
		var session model.Session
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("session_id = ?", sessionID).
			First(&session).Error; err != nil {
			return err
		}
		if session.Status != model.SessionStatusScheduled {
			return pkgerrors.ErrSessionUnavailable
		}

		// 2. 同一 (session, user) 已有记录
		var existing model.Reservation
		err := tx.Where("session_id = ? AND user_id = ?", sessionID, userID).Take(&existing).Error
		found := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if found && existing.IsActive() {
			return pkgerrors.ErrAlreadyBooked
		}

		// 3. 同一时段的其他课程
		var overlapping int64
		if err := tx.Model(&model.Reservation{}).
			Where("user_id = ? AND session_date = ? AND start_time = ? AND session_id <> ? AND cancelled_at IS NULL",
				userID, session.SessionDate, session.StartTime, sessionID).
			Count(&overlapping).Error; err != nil {
			return err
		}
		if overlapping > 0 {
			return pkgerrors.ErrOverlap
		}

		// 4. 容量
		var reserved int64
		if err := tx.Model(&model.Reservation{}).
			Where("session_id = ? AND cancelled_at IS NULL", sessionID).
			Count(&reserved).Error; err != nil {
			return err
		}
		if reserved >= int64(session.Capacity) {
			return pkgerrors.ErrSessionFull
		}

		// 5. 恢复或新建
		if found {
			if err := tx.Model(&model.Reservation{}).
				Where("reservation_id = ?", existing.ReservationID).
				Updates(map[string]interface{}{
					"cancelled_at": nil,
					"session_date": session.SessionDate,
					"start_time":   session.StartTime,
					"updated_at":   now,
				}).Error; err != nil {
				return err
			}
			existing.CancelledAt = nil
			existing.SessionDate = session.SessionDate
			existing.StartTime = session.StartTime
			existing.UpdatedAt = now
			reservation = existing
			reactivated = true
			return nil
		}

		reservation = model.Reservation{
			SessionID:   sessionID,
			UserID:      userID,
			SessionDate: session.SessionDate,
			StartTime:   session.StartTime,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return tx.Create(&reservation).Error
	})
	if err != nil {
		// 并发下由唯一约束兜底：另一事务抢先写入了同一用户的记录
		switch {
		case isUniqueViolation(err, constraintReservationSessionUser):
			return nil, false, pkgerrors.ErrAlreadyBooked
		case isUniqueViolation(err, constraintReservationUserSlot):
			return nil, false, pkgerrors.ErrOverlap
		}
		return nil, false, err
	}
	return &reservation, reactivated, nil
}

func (r *reservationRepo) Cancel(ctx context.Context, sessionID, userID string, now time.Time) (*model.Reservation, error) {
	var reservation model.Reservation
	result := r.db.WithContext(ctx).
		Model(&reservation).
		Clauses(clause.Returning{}).
		Where("session_id = ? AND user_id = ? AND cancelled_at IS NULL", sessionID, userID).
		Updates(map[string]interface{}{
			"cancelled_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &reservation, nil
}

func (r *reservationRepo) CountActiveBySessions(ctx context.Context, sessionIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		SessionID string
		Reserved  int
	}
	err := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Select("session_id, COUNT(*) AS reserved").
		Where("session_id IN ? AND cancelled_at IS NULL", sessionIDs).
		Group("session_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.SessionID] = row.Reserved
	}
	return counts, nil
}

func (r *reservationRepo) ListByUserAndSessions(ctx context.Context, userID string, sessionIDs []string) ([]model.Reservation, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	var reservations []model.Reservation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND session_id IN ?", userID, sessionIDs).
		Find(&reservations).Error
	return reservations, err
}

func (r *reservationRepo) ListActiveBySession(ctx context.Context, sessionID string) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND cancelled_at IS NULL", sessionID).
		Order("created_at ASC").
		Find(&reservations).Error
	return reservations, err
}

func (r *reservationRepo) ListActiveByUserInRange(ctx context.Context, userID string, from, to time.Time) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Session").
		Where("user_id = ? AND session_date >= ? AND session_date < ? AND cancelled_at IS NULL", userID, from, to).
		Order("session_date ASC, start_time ASC").
		Find(&reservations).Error
	return reservations, err
}

func (r *reservationRepo) ListActiveInRange(ctx context.Context, from, to time.Time) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Session").
		Where("session_date >= ? AND session_date < ? AND cancelled_at IS NULL", from, to).
		Order("session_date ASC, start_time ASC, created_at ASC").
		Find(&reservations).Error
	return reservations, err
}
