package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"box-schedule/backend/internal/dto"
	"box-schedule/backend/internal/model"
	"box-schedule/backend/internal/repository"
	"box-schedule/backend/pkg/clock"
)

// ── 课程生成模块业务错误 ──

// ErrTemplateInvalid 模板数据不合法（星期、时间、时长或容量）
var ErrTemplateInvalid = errors.New("课程模板配置无效")

// TemplateError 指明哪个模板导致整批生成失败
type TemplateError struct {
	TemplateID string
	Err        error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("模板 %s 生成课程失败: %v", e.TemplateID, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// SeederService 课程生成业务接口
type SeederService interface {
	// SeedSessions 将有效模板展开为 [start_date, start_date+days) 内的课程实例
	// 幂等：重复执行不会新增重复实例，也不会修改已生成实例的容量与时间
	SeedSessions(ctx context.Context, req *dto.SeedSessionsRequest, callerID string) (*dto.SeedSessionsResponse, error)
}

type seederService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSeederService 创建 SeederService 实例
func NewSeederService(repo *repository.Repository, logger *zap.Logger) SeederService {
	return &seederService{repo: repo, logger: logger}
}

func (s *seederService) SeedSessions(ctx context.Context, req *dto.SeedSessionsRequest, callerID string) (*dto.SeedSessionsResponse, error) {
	start, end, err := resolveWindow(req.StartDate, req.Days)
	if err != nil {
		return nil, err
	}
	days := int(end.Sub(start).Hours() / 24)

	templates, err := s.repo.ClassTemplate.ListActive(ctx)
	if err != nil {
		s.logger.Error("查询课程模板失败", zap.Error(err))
		return nil, err
	}

	// 1. 纯计算展开：任一模板不合法时整批放弃，此时尚未写库
	drafts, err := ExpandTemplates(templates, start, days)
	if err != nil {
		s.logger.Warn("课程模板校验失败", zap.Error(err))
		return nil, err
	}
	if callerID != "" {
		for i := range drafts {
			drafts[i].CreatedBy = &callerID
			drafts[i].UpdatedBy = &callerID
		}
	}

	// 2. 单事务批量幂等写入；任一模板写入失败则整体回滚
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	var created int64
	for _, batch := range groupByTemplate(drafts) {
		n, err := txRepo.Session.UpsertDrafts(ctx, batch)
		if err != nil {
			if tx != nil {
				tx.Rollback()
			}
			tplErr := &TemplateError{TemplateID: batch[0].TemplateID, Err: err}
			s.logger.Error("写入课程实例失败", zap.String("template_id", tplErr.TemplateID), zap.Error(err))
			return nil, tplErr
		}
		created += n
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	s.logger.Info("课程实例生成完成",
		zap.String("start_date", start.Format(clock.DateLayout)),
		zap.Int("days", days),
		zap.Int("templates", len(templates)),
		zap.Int64("created", created),
	)

	return &dto.SeedSessionsResponse{
		CreatedOrUpdated: int(created),
		Templates:        len(templates),
	}, nil
}

// ExpandTemplates 将模板集合展开为 [start, start+days) 内的课程草稿
//
// 纯函数：输出只取决于 (templates, start, days)。输出按模板分组、组内按日期升序，
// 容量、时间、时长从模板快照。
func ExpandTemplates(templates []model.ClassTemplate, start time.Time, days int) ([]model.Session, error) {
	start = clock.DateOf(start)
	var drafts []model.Session

	for i := range templates {
		tpl := &templates[i]
		if err := validateTemplate(tpl); err != nil {
			return nil, &TemplateError{TemplateID: tpl.TemplateID, Err: err}
		}

		for d := 0; d < days; d++ {
			date := start.AddDate(0, 0, d)
			if int(date.Weekday()) != tpl.Weekday {
				continue
			}
			drafts = append(drafts, model.Session{
				TemplateID:       tpl.TemplateID,
				SessionDate:      date,
				StartTime:        tpl.StartTime,
				DurationMin:      tpl.DurationMin,
				Capacity:         tpl.Capacity,
				Status:           model.SessionStatusScheduled,
				TemplateSnapshot: templateSnapshot(tpl),
				VersionedModel:   model.VersionedModel{Version: 1},
			})
		}
	}
	return drafts, nil
}

func validateTemplate(tpl *model.ClassTemplate) error {
	if tpl.Weekday < 0 || tpl.Weekday > 6 {
		return fmt.Errorf("%w: weekday=%d", ErrTemplateInvalid, tpl.Weekday)
	}
	if _, err := clock.ParseClock(tpl.StartTime); err != nil || len(tpl.StartTime) != 5 {
		return fmt.Errorf("%w: start_time=%q", ErrTemplateInvalid, tpl.StartTime)
	}
	if tpl.DurationMin <= 0 {
		return fmt.Errorf("%w: duration_min=%d", ErrTemplateInvalid, tpl.DurationMin)
	}
	if tpl.Capacity <= 0 {
		return fmt.Errorf("%w: capacity=%d", ErrTemplateInvalid, tpl.Capacity)
	}
	return nil
}

func templateSnapshot(tpl *model.ClassTemplate) datatypes.JSONMap {
	snap := datatypes.JSONMap{
		"name":    tpl.Name,
		"weekday": tpl.Weekday,
	}
	if tpl.CoachID != nil {
		snap["coach_id"] = *tpl.CoachID
	}
	return snap
}

// groupByTemplate 将草稿按模板切分（输入已按模板连续排列）
func groupByTemplate(drafts []model.Session) [][]model.Session {
	var groups [][]model.Session
	for i := 0; i < len(drafts); {
		j := i
		for j < len(drafts) && drafts[j].TemplateID == drafts[i].TemplateID {
			j++
		}
		groups = append(groups, drafts[i:j])
		i = j
	}
	return groups
}
