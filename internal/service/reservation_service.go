package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"box-schedule/backend/internal/dto"
	"box-schedule/backend/internal/model"
	"box-schedule/backend/internal/repository"
	"box-schedule/backend/pkg/clock"
	pkgerrors "box-schedule/backend/pkg/errors"
)

// ── 预约模块业务错误 ──

var (
	ErrReservationNotFound = errors.New("未找到有效预约")

	// 以下由 Repository 在预约事务内判定，此处导出便于 Handler 统一映射
	ErrSessionUnavailable = pkgerrors.ErrSessionUnavailable
	ErrAlreadyBooked      = pkgerrors.ErrAlreadyBooked
	ErrOverlap            = pkgerrors.ErrOverlap
	ErrSessionFull        = pkgerrors.ErrSessionFull
)

// ReservationService 预约业务接口
//
// 设计说明：
//   - 容量、重复、重叠校验与写入在同一个存储事务内完成，服务层不做先查后写
//   - 取消为软取消；重新预约复用原记录，reservation_id 保持不变
//   - 业务拒绝不重试
type ReservationService interface {
	// Reserve 为用户预约课程
	Reserve(ctx context.Context, sessionID, userID string) (*dto.ReservationResponse, error)
	// Cancel 取消用户在该课程上的有效预约；无有效预约（含重复取消）返回 ErrReservationNotFound
	Cancel(ctx context.Context, sessionID, userID string) error
	// ListRoster 课程名单：有效预约及每人的出勤状态
	ListRoster(ctx context.Context, sessionID string) (*dto.RosterResponse, error)
}

type reservationService struct {
	repo   *repository.Repository
	clock  clock.Clock
	logger *zap.Logger
}

// NewReservationService 创建 ReservationService 实例
func NewReservationService(repo *repository.Repository, clk clock.Clock, logger *zap.Logger) ReservationService {
	return &reservationService{repo: repo, clock: clk, logger: logger}
}

func (s *reservationService) Reserve(ctx context.Context, sessionID, userID string) (*dto.ReservationResponse, error) {
	reservation, reactivated, err := s.repo.Reservation.Reserve(ctx, sessionID, userID, s.clock.Now())
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrSessionNotFound
		case errors.Is(err, ErrSessionUnavailable),
			errors.Is(err, ErrAlreadyBooked),
			errors.Is(err, ErrOverlap),
			errors.Is(err, ErrSessionFull):
			s.logger.Info("预约被拒绝",
				zap.String("session_id", sessionID),
				zap.String("user_id", userID),
				zap.String("reason", err.Error()),
			)
			return nil, err
		}
		s.logger.Error("预约失败", zap.String("session_id", sessionID), zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("预约成功",
		zap.String("reservation_id", reservation.ReservationID),
		zap.String("session_id", sessionID),
		zap.String("user_id", userID),
		zap.Bool("reactivated", reactivated),
	)

	return &dto.ReservationResponse{
		ReservationID: reservation.ReservationID,
		SessionID:     sessionID,
		Reactivated:   reactivated,
	}, nil
}

func (s *reservationService) Cancel(ctx context.Context, sessionID, userID string) error {
	reservation, err := s.repo.Reservation.Cancel(ctx, sessionID, userID, s.clock.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReservationNotFound
		}
		s.logger.Error("取消预约失败", zap.String("session_id", sessionID), zap.String("user_id", userID), zap.Error(err))
		return err
	}

	s.logger.Info("预约已取消",
		zap.String("reservation_id", reservation.ReservationID),
		zap.String("session_id", sessionID),
		zap.String("user_id", userID),
	)
	return nil
}

func (s *reservationService) ListRoster(ctx context.Context, sessionID string) (*dto.RosterResponse, error) {
	session, err := s.repo.Session.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询课程失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	reservations, err := s.repo.Reservation.ListActiveBySession(ctx, sessionID)
	if err != nil {
		s.logger.Error("查询课程预约失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	records, err := s.repo.Attendance.ListBySessions(ctx, []string{sessionID})
	if err != nil {
		s.logger.Error("查询出勤记录失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	attendance := make(map[string]string, len(records))
	for _, rec := range records {
		attendance[rec.UserID] = rec.Status
	}

	userIDs := make([]string, len(reservations))
	for i := range reservations {
		userIDs[i] = reservations[i].UserID
	}
	names, err := s.userNames(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.RosterEntry, 0, len(reservations))
	for _, r := range reservations {
		status, ok := attendance[r.UserID]
		if !ok {
			status = dto.AttendanceNone
		}
		entries = append(entries, dto.RosterEntry{
			ReservationID:    r.ReservationID,
			UserID:           r.UserID,
			Name:             names[r.UserID],
			ReservedAt:       r.CreatedAt.In(s.clock.Location()).Format("2006-01-02 15:04"),
			AttendanceStatus: status,
		})
	}

	return &dto.RosterResponse{
		Session: toSessionView(session, len(reservations)),
		Entries: entries,
	}, nil
}

func (s *reservationService) userNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	users, err := s.repo.User.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	for _, u := range users {
		names[u.UserID] = u.Name
	}
	return names, nil
}

// activeSessionIDs 提取预约对应的课程 ID（保持顺序、去重）
func activeSessionIDs(reservations []model.Reservation) []string {
	seen := make(map[string]struct{}, len(reservations))
	ids := make([]string, 0, len(reservations))
	for _, r := range reservations {
		if _, ok := seen[r.SessionID]; ok {
			continue
		}
		seen[r.SessionID] = struct{}{}
		ids = append(ids, r.SessionID)
	}
	return ids
}
