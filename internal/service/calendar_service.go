package service

import (
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"box-schedule/backend/internal/repository"
	"box-schedule/backend/pkg/clock"
)

const calendarDefaultDays = 28

// CalendarService 个人预约日历业务接口
type CalendarService interface {
	// ExportMyReservations 将用户在 [from, from+days) 内的有效预约导出为 iCalendar 文本
	// from 为空时取场馆今天；days 为 0 时取 28 天
	ExportMyReservations(ctx context.Context, userID, from string, days int) (string, error)
}

type calendarService struct {
	repo   *repository.Repository
	clock  clock.Clock
	logger *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, clk clock.Clock, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, clock: clk, logger: logger}
}

func (s *calendarService) ExportMyReservations(ctx context.Context, userID, from string, days int) (string, error) {
	if from == "" {
		from = s.clock.Today().Format(clock.DateLayout)
	}
	if days == 0 {
		days = calendarDefaultDays
	}
	start, end, err := resolveWindow(from, days)
	if err != nil {
		return "", err
	}

	reservations, err := s.repo.Reservation.ListActiveByUserInRange(ctx, userID, start, end)
	if err != nil {
		s.logger.Error("查询日历预约失败", zap.String("user_id", userID), zap.Error(err))
		return "", err
	}

	loc := s.clock.Location()
	now := s.clock.Now()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//box-schedule//reservations//ZH")
	cal.SetXWRCalName("我的课程预约")
	cal.SetXWRTimezone(loc.String())

	for _, r := range reservations {
		startAt, err := clock.At(r.SessionDate, r.StartTime, loc)
		if err != nil {
			// 时间格式由生成时校验保证，这里仅跳过脏数据
			s.logger.Warn("预约时间格式异常", zap.String("reservation_id", r.ReservationID), zap.String("start_time", r.StartTime))
			continue
		}
		duration := 60
		summary := "课程"
		if r.Session != nil {
			duration = r.Session.DurationMin
			if name := snapshotName(r.Session); name != "" {
				summary = name
			}
		}

		event := cal.AddEvent(fmt.Sprintf("%s@box-schedule", r.ReservationID))
		event.SetDtStampTime(now)
		event.SetCreatedTime(r.CreatedAt)
		event.SetStartAt(startAt)
		event.SetEndAt(startAt.Add(time.Duration(duration) * time.Minute))
		event.SetSummary(summary)
		event.SetDescription(fmt.Sprintf("session_id=%s", r.SessionID))
	}

	return cal.Serialize(), nil
}
