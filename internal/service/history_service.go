package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"box-schedule/backend/internal/dto"
	"box-schedule/backend/internal/repository"
	"box-schedule/backend/pkg/clock"
)

// ErrInvalidMonth 月份格式错误
var ErrInvalidMonth = errors.New("月份格式无效，应为 YYYY-MM")

// HistoryService 个人训练历史业务接口
type HistoryService interface {
	// ListHistory 用户在指定月份、且日期早于场馆 "今天" 的有效预约及出勤状态
	ListHistory(ctx context.Context, userID, month string) ([]dto.HistoryEntry, error)
}

type historyService struct {
	repo   *repository.Repository
	clock  clock.Clock
	logger *zap.Logger
}

// NewHistoryService 创建 HistoryService 实例
func NewHistoryService(repo *repository.Repository, clk clock.Clock, logger *zap.Logger) HistoryService {
	return &historyService{repo: repo, clock: clk, logger: logger}
}

func (s *historyService) ListHistory(ctx context.Context, userID, month string) ([]dto.HistoryEntry, error) {
	from, to, err := clock.ParseMonth(month)
	if err != nil {
		return nil, ErrInvalidMonth
	}
	// 今天及以后的课程不计入历史
	if today := s.clock.Today(); today.Before(to) {
		to = today
	}

	entries := make([]dto.HistoryEntry, 0)
	if !from.Before(to) {
		return entries, nil
	}

	// 以预约为驱动：没有有效预约的课程即使有出勤记录也不会出现
	reservations, err := s.repo.Reservation.ListActiveByUserInRange(ctx, userID, from, to)
	if err != nil {
		s.logger.Error("查询历史预约失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if len(reservations) == 0 {
		return entries, nil
	}

	records, err := s.repo.Attendance.ListByUserAndSessions(ctx, userID, activeSessionIDs(reservations))
	if err != nil {
		s.logger.Error("查询历史出勤失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	attendance := make(map[string]string, len(records))
	for _, rec := range records {
		attendance[rec.SessionID] = rec.Status
	}

	for _, r := range reservations {
		status, ok := attendance[r.SessionID]
		if !ok {
			status = dto.AttendanceUnknown
		}
		entry := dto.HistoryEntry{
			SessionID:        r.SessionID,
			ReservationID:    r.ReservationID,
			Date:             r.SessionDate.Format(clock.DateLayout),
			Time:             r.StartTime,
			AttendanceStatus: status,
		}
		if r.Session != nil {
			entry.Name = snapshotName(r.Session)
			entry.DurationMin = r.Session.DurationMin
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
