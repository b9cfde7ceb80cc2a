package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"box-schedule/backend/internal/dto"
	"box-schedule/backend/internal/model"
	"box-schedule/backend/internal/repository"
	"box-schedule/backend/pkg/clock"
)

// ── 课程查询模块业务错误 ──

var (
	ErrSessionNotFound = errors.New("课程不存在")
	ErrInvalidDate     = errors.New("日期格式无效，应为 YYYY-MM-DD")
	ErrInvalidDays     = errors.New("天数必须在 1-62 之间")
)

const (
	defaultWindowDays = 7
	maxWindowDays     = 62
)

// CatalogService 课程查询业务接口（只读投影）
type CatalogService interface {
	// ListSessions 列出日期区间内的课程，附带实时预约数与当前用户状态
	// asUserID 为空时不查询个人状态
	ListSessions(ctx context.Context, req *dto.ListSessionsRequest, asUserID string) ([]dto.SessionView, error)
	// GetSession 获取单个课程
	GetSession(ctx context.Context, sessionID, asUserID string) (*dto.SessionView, error)
}

type catalogService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCatalogService 创建 CatalogService 实例
func NewCatalogService(repo *repository.Repository, logger *zap.Logger) CatalogService {
	return &catalogService{repo: repo, logger: logger}
}

func (s *catalogService) ListSessions(ctx context.Context, req *dto.ListSessionsRequest, asUserID string) ([]dto.SessionView, error) {
	from, to, err := resolveWindow(req.DateFrom, req.Days)
	if err != nil {
		return nil, err
	}

	sessions, err := s.repo.Session.ListByRange(ctx, from, to)
	if err != nil {
		s.logger.Error("查询课程列表失败", zap.Error(err))
		return nil, err
	}

	views, err := buildSessionViews(ctx, s.repo, sessions, asUserID)
	if err != nil {
		s.logger.Error("组装课程视图失败", zap.Error(err))
		return nil, err
	}
	return views, nil
}

func (s *catalogService) GetSession(ctx context.Context, sessionID, asUserID string) (*dto.SessionView, error) {
	session, err := s.repo.Session.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询课程失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	views, err := buildSessionViews(ctx, s.repo, []model.Session{*session}, asUserID)
	if err != nil {
		s.logger.Error("组装课程视图失败", zap.Error(err))
		return nil, err
	}
	return &views[0], nil
}

// ── 辅助函数 ──

// resolveWindow 将 (起始日期, 天数) 解析为 [from, to) 日期区间；days 为 0 时取默认值
func resolveWindow(dateFrom string, days int) (time.Time, time.Time, error) {
	from, err := clock.ParseDate(dateFrom)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDate
	}
	if days == 0 {
		days = defaultWindowDays
	}
	if days < 1 || days > maxWindowDays {
		return time.Time{}, time.Time{}, ErrInvalidDays
	}
	return from, from.AddDate(0, 0, days), nil
}

// buildSessionViews 以集合查询组装课程视图：
// 预约数一次 GROUP BY，个人预约与出勤各一次 IN 查询，不做逐行查询
func buildSessionViews(ctx context.Context, repo *repository.Repository, sessions []model.Session, userID string) ([]dto.SessionView, error) {
	views := make([]dto.SessionView, 0, len(sessions))
	if len(sessions) == 0 {
		return views, nil
	}

	ids := make([]string, len(sessions))
	for i := range sessions {
		ids[i] = sessions[i].SessionID
	}

	counts, err := repo.Reservation.CountActiveBySessions(ctx, ids)
	if err != nil {
		return nil, err
	}

	myReservations := make(map[string]*model.Reservation)
	myAttendance := make(map[string]string)
	if userID != "" {
		reservations, err := repo.Reservation.ListByUserAndSessions(ctx, userID, ids)
		if err != nil {
			return nil, err
		}
		for i := range reservations {
			myReservations[reservations[i].SessionID] = &reservations[i]
		}

		records, err := repo.Attendance.ListByUserAndSessions(ctx, userID, ids)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			myAttendance[rec.SessionID] = rec.Status
		}
	}

	for i := range sessions {
		v := toSessionView(&sessions[i], counts[sessions[i].SessionID])

		if r, ok := myReservations[v.ID]; ok {
			if r.IsActive() {
				v.MyReservationStatus = dto.MyReservationActive
				v.ReservedByMe = true
			} else {
				v.MyReservationStatus = dto.MyReservationCancelled
			}
		}
		if status, ok := myAttendance[v.ID]; ok {
			v.AttendanceStatus = status
		}
		views = append(views, v)
	}
	return views, nil
}

func toSessionView(s *model.Session, reserved int) dto.SessionView {
	remaining := s.Capacity - reserved
	if remaining < 0 {
		remaining = 0
	}
	return dto.SessionView{
		ID:                  s.SessionID,
		TemplateID:          s.TemplateID,
		Name:                snapshotName(s),
		Date:                s.SessionDate.Format(clock.DateLayout),
		Time:                s.StartTime,
		DurationMin:         s.DurationMin,
		Capacity:            s.Capacity,
		ReservedCount:       reserved,
		Remaining:           remaining,
		Status:              s.Status,
		Notes:               s.Notes,
		MyReservationStatus: dto.MyReservationNone,
		AttendanceStatus:    dto.AttendanceNone,
	}
}

// snapshotName 取生成时快照的课程名
func snapshotName(s *model.Session) string {
	if s.TemplateSnapshot == nil {
		return ""
	}
	name, _ := s.TemplateSnapshot["name"].(string)
	return name
}
