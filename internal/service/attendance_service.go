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

// ── 出勤模块业务错误 ──

var (
	ErrInvalidAttendanceStatus = errors.New("出勤状态无效，应为 present 或 absent")
	ErrOptimisticLock          = pkgerrors.ErrOptimisticLock
)

// AttendanceService 出勤业务接口
// 调用方须已具备教练/管理员权限，由路由层 RoleAuth 保证
type AttendanceService interface {
	// Mark 记录 (课程, 用户) 的出勤状态，重复标记以最后一次为准
	Mark(ctx context.Context, sessionID, userID, status, markedBy string) error
	// ResetSession 删除该课程的全部出勤记录，其他课程不受影响
	ResetSession(ctx context.Context, sessionID string) (*dto.ResetAttendanceResponse, error)
	// CloseSession scheduled → completed
	CloseSession(ctx context.Context, sessionID, callerID string) (*dto.SessionStatusResponse, error)
	// ReopenSession completed → scheduled
	ReopenSession(ctx context.Context, sessionID, callerID string) (*dto.SessionStatusResponse, error)
}

type attendanceService struct {
	repo   *repository.Repository
	clock  clock.Clock
	logger *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(repo *repository.Repository, clk clock.Clock, logger *zap.Logger) AttendanceService {
	return &attendanceService{repo: repo, clock: clk, logger: logger}
}

func (s *attendanceService) Mark(ctx context.Context, sessionID, userID, status, markedBy string) error {
	if !model.IsValidAttendanceStatus(status) {
		return ErrInvalidAttendanceStatus
	}
	if _, err := s.getSession(ctx, sessionID); err != nil {
		return err
	}

	record := &model.AttendanceRecord{
		SessionID: sessionID,
		UserID:    userID,
		Status:    status,
		MarkedBy:  markedBy,
		MarkedAt:  s.clock.Now(),
	}
	if err := s.repo.Attendance.Upsert(ctx, record); err != nil {
		s.logger.Error("记录出勤失败", zap.String("session_id", sessionID), zap.String("user_id", userID), zap.Error(err))
		return err
	}

	s.logger.Info("出勤已记录",
		zap.String("session_id", sessionID),
		zap.String("user_id", userID),
		zap.String("status", status),
		zap.String("marked_by", markedBy),
	)
	return nil
}

func (s *attendanceService) ResetSession(ctx context.Context, sessionID string) (*dto.ResetAttendanceResponse, error) {
	if _, err := s.getSession(ctx, sessionID); err != nil {
		return nil, err
	}

	deleted, err := s.repo.Attendance.DeleteBySession(ctx, sessionID)
	if err != nil {
		s.logger.Error("重置出勤失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("课程出勤已重置", zap.String("session_id", sessionID), zap.Int64("deleted", deleted))
	return &dto.ResetAttendanceResponse{Deleted: deleted}, nil
}

func (s *attendanceService) CloseSession(ctx context.Context, sessionID, callerID string) (*dto.SessionStatusResponse, error) {
	return s.transition(ctx, sessionID, callerID, model.SessionStatusCompleted)
}

func (s *attendanceService) ReopenSession(ctx context.Context, sessionID, callerID string) (*dto.SessionStatusResponse, error) {
	return s.transition(ctx, sessionID, callerID, model.SessionStatusScheduled)
}

// transition 在 scheduled 与 completed 之间切换；已处于目标状态时直接返回
func (s *attendanceService) transition(ctx context.Context, sessionID, callerID, target string) (*dto.SessionStatusResponse, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionStatusCancelled {
		return nil, ErrSessionUnavailable
	}

	if session.Status != target {
		from := session.Status
		session.Status = target
		if callerID != "" {
			session.UpdatedBy = &callerID
		}
		if err := s.repo.Session.UpdateStatus(ctx, session); err != nil {
			if errors.Is(err, ErrOptimisticLock) {
				return nil, ErrOptimisticLock
			}
			s.logger.Error("更新课程状态失败", zap.String("session_id", sessionID), zap.Error(err))
			return nil, err
		}
		s.logger.Info("课程状态已变更",
			zap.String("session_id", sessionID),
			zap.String("from", from),
			zap.String("to", target),
		)
	}

	return &dto.SessionStatusResponse{
		ID:      session.SessionID,
		Status:  session.Status,
		Version: session.Version,
	}, nil
}

func (s *attendanceService) getSession(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.repo.Session.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询课程失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	return session, nil
}
