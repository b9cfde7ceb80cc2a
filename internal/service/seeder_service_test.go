package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"box-schedule/backend/internal/dto"
	"box-schedule/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestSeederService() (SeederService, *mockStore) {
	store := newMockStore()
	// 2026-02-02 为周一
	store.addTemplate(model.ClassTemplate{TemplateID: "tpl-mon", Name: "CrossFit", Weekday: 1, StartTime: "07:00", DurationMin: 60, Capacity: 12, IsActive: true})
	store.addTemplate(model.ClassTemplate{TemplateID: "tpl-wed", Name: "LPO", Weekday: 3, StartTime: "18:00", DurationMin: 45, Capacity: 8, IsActive: true})
	store.addTemplate(model.ClassTemplate{TemplateID: "tpl-off", Name: "Open Box", Weekday: 2, StartTime: "10:00", DurationMin: 60, Capacity: 5, IsActive: false})
	return NewSeederService(store.repository(), zap.NewNop()), store
}

// ── SeedSessions 测试 ──

func TestSeederService_SeedSessions_Success(t *testing.T) {
	svc, store := setupTestSeederService()

	result, err := svc.SeedSessions(context.Background(), &dto.SeedSessionsRequest{StartDate: "2026-02-02", Days: 7}, "admin-001")
	if err != nil {
		t.Fatalf("SeedSessions 应成功: %v", err)
	}
	if result.CreatedOrUpdated != 2 {
		t.Errorf("期望生成 2 节课，实际 %d", result.CreatedOrUpdated)
	}
	if result.Templates != 2 {
		t.Errorf("期望 2 个有效模板，实际 %d", result.Templates)
	}
	for _, sess := range store.sessions {
		if sess.TemplateID == "tpl-off" {
			t.Error("停用模板不应生成课程")
		}
		if sess.CreatedBy == nil || *sess.CreatedBy != "admin-001" {
			t.Error("期望记录操作人")
		}
	}
}

func TestSeederService_SeedSessions_DefaultDays(t *testing.T) {
	svc, store := setupTestSeederService()

	if _, err := svc.SeedSessions(context.Background(), &dto.SeedSessionsRequest{StartDate: "2026-02-02"}, ""); err != nil {
		t.Fatalf("SeedSessions 应成功: %v", err)
	}
	if len(store.sessions) != 2 {
		t.Errorf("缺省 7 天应生成 2 节课，实际 %d", len(store.sessions))
	}
}

func TestSeederService_SeedSessions_Idempotent(t *testing.T) {
	svc, store := setupTestSeederService()
	ctx := context.Background()
	req := &dto.SeedSessionsRequest{StartDate: "2026-02-02", Days: 7}

	if _, err := svc.SeedSessions(ctx, req, ""); err != nil {
		t.Fatalf("首次 SeedSessions 应成功: %v", err)
	}

	// 模板修改后再次生成：已生成课程的容量与时间保持不变
	store.templates["tpl-mon"].Capacity = 30
	store.templates["tpl-mon"].DurationMin = 90

	result, err := svc.SeedSessions(ctx, req, "")
	if err != nil {
		t.Fatalf("再次 SeedSessions 应成功: %v", err)
	}
	if result.CreatedOrUpdated != 0 {
		t.Errorf("重复生成不应新增课程，实际新增 %d", result.CreatedOrUpdated)
	}
	if len(store.sessions) != 2 {
		t.Errorf("期望仍为 2 节课，实际 %d", len(store.sessions))
	}
	for _, sess := range store.sessions {
		if sess.TemplateID == "tpl-mon" && (sess.Capacity != 12 || sess.DurationMin != 60 || sess.StartTime != "07:00") {
			t.Errorf("已生成课程被修改: capacity=%d duration=%d start=%s", sess.Capacity, sess.DurationMin, sess.StartTime)
		}
	}
}

func TestSeederService_SeedSessions_OverlappingRange(t *testing.T) {
	svc, store := setupTestSeederService()
	ctx := context.Background()

	if _, err := svc.SeedSessions(ctx, &dto.SeedSessionsRequest{StartDate: "2026-02-02", Days: 7}, ""); err != nil {
		t.Fatalf("SeedSessions 应成功: %v", err)
	}
	result, err := svc.SeedSessions(ctx, &dto.SeedSessionsRequest{StartDate: "2026-02-04", Days: 7}, "")
	if err != nil {
		t.Fatalf("SeedSessions 应成功: %v", err)
	}
	// 02-04 周三已存在，仅新增 02-09 周一
	if result.CreatedOrUpdated != 1 {
		t.Errorf("期望新增 1 节课，实际 %d", result.CreatedOrUpdated)
	}
	if len(store.sessions) != 3 {
		t.Errorf("期望共 3 节课，实际 %d", len(store.sessions))
	}
}

func TestSeederService_SeedSessions_InvalidTemplateWritesNothing(t *testing.T) {
	svc, store := setupTestSeederService()
	store.addTemplate(model.ClassTemplate{TemplateID: "tpl-bad", Name: "Broken", Weekday: 5, StartTime: "25:00", DurationMin: 60, Capacity: 10, IsActive: true})

	_, err := svc.SeedSessions(context.Background(), &dto.SeedSessionsRequest{StartDate: "2026-02-02", Days: 7}, "")
	var tplErr *TemplateError
	if !errors.As(err, &tplErr) {
		t.Fatalf("期望 *TemplateError，实际: %v", err)
	}
	if tplErr.TemplateID != "tpl-bad" {
		t.Errorf("期望指出 tpl-bad，实际 %s", tplErr.TemplateID)
	}
	if !errors.Is(err, ErrTemplateInvalid) {
		t.Errorf("期望 ErrTemplateInvalid，实际: %v", err)
	}
	if len(store.sessions) != 0 {
		t.Errorf("模板校验失败时不应写入任何课程，实际 %d", len(store.sessions))
	}
}

func TestSeederService_SeedSessions_StoreFailureNamesTemplate(t *testing.T) {
	svc, store := setupTestSeederService()
	store.failUpsertTemplate = "tpl-wed"

	_, err := svc.SeedSessions(context.Background(), &dto.SeedSessionsRequest{StartDate: "2026-02-02", Days: 7}, "")
	var tplErr *TemplateError
	if !errors.As(err, &tplErr) {
		t.Fatalf("期望 *TemplateError，实际: %v", err)
	}
	if tplErr.TemplateID != "tpl-wed" {
		t.Errorf("期望指出 tpl-wed，实际 %s", tplErr.TemplateID)
	}
	if errors.Is(err, ErrTemplateInvalid) {
		t.Error("存储失败不应归为模板无效")
	}
}

func TestSeederService_SeedSessions_InvalidInput(t *testing.T) {
	svc, _ := setupTestSeederService()
	ctx := context.Background()

	if _, err := svc.SeedSessions(ctx, &dto.SeedSessionsRequest{StartDate: "02/02/2026"}, ""); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("期望 ErrInvalidDate，实际: %v", err)
	}
	if _, err := svc.SeedSessions(ctx, &dto.SeedSessionsRequest{StartDate: "2026-02-02", Days: 63}, ""); !errors.Is(err, ErrInvalidDays) {
		t.Errorf("期望 ErrInvalidDays，实际: %v", err)
	}
}

// ── ExpandTemplates 测试 ──

func TestExpandTemplates_WeekdayMatch(t *testing.T) {
	templates := []model.ClassTemplate{
		{TemplateID: "a", Name: "AM", Weekday: 0, StartTime: "09:00", DurationMin: 60, Capacity: 10},
		{TemplateID: "b", Name: "PM", Weekday: 6, StartTime: "17:30", DurationMin: 60, Capacity: 6},
	}
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC) // 周日

	drafts, err := ExpandTemplates(templates, start, 14)
	if err != nil {
		t.Fatalf("ExpandTemplates 应成功: %v", err)
	}
	if len(drafts) != 4 {
		t.Fatalf("期望 4 个草稿，实际 %d", len(drafts))
	}

	want := []struct {
		template string
		date     string
	}{
		{"a", "2026-02-01"}, {"a", "2026-02-08"},
		{"b", "2026-02-07"}, {"b", "2026-02-14"},
	}
	for i, w := range want {
		if drafts[i].TemplateID != w.template || drafts[i].SessionDate.Format("2006-01-02") != w.date {
			t.Errorf("草稿 %d 期望 %s@%s，实际 %s@%s", i, w.template, w.date,
				drafts[i].TemplateID, drafts[i].SessionDate.Format("2006-01-02"))
		}
		if drafts[i].Status != model.SessionStatusScheduled {
			t.Errorf("草稿 %d 状态应为 scheduled", i)
		}
	}
	if drafts[2].Capacity != 6 || drafts[2].StartTime != "17:30" {
		t.Error("容量与时间应从模板快照")
	}
	if drafts[0].TemplateSnapshot["name"] != "AM" {
		t.Error("期望快照课程名")
	}
}

func TestExpandTemplates_Deterministic(t *testing.T) {
	templates := []model.ClassTemplate{
		{TemplateID: "a", Weekday: 2, StartTime: "06:00", DurationMin: 60, Capacity: 10},
	}
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	first, _ := ExpandTemplates(templates, start, 30)
	second, _ := ExpandTemplates(templates, start, 30)
	if len(first) != len(second) {
		t.Fatalf("相同输入应得到相同输出")
	}
	for i := range first {
		if !first[i].SessionDate.Equal(second[i].SessionDate) {
			t.Errorf("草稿 %d 日期不一致", i)
		}
	}
}

func TestExpandTemplates_InvalidTemplate(t *testing.T) {
	cases := []model.ClassTemplate{
		{TemplateID: "weekday", Weekday: 7, StartTime: "06:00", DurationMin: 60, Capacity: 10},
		{TemplateID: "time", Weekday: 1, StartTime: "6:00", DurationMin: 60, Capacity: 10},
		{TemplateID: "duration", Weekday: 1, StartTime: "06:00", DurationMin: 0, Capacity: 10},
		{TemplateID: "capacity", Weekday: 1, StartTime: "06:00", DurationMin: 60, Capacity: 0},
	}
	for _, tpl := range cases {
		_, err := ExpandTemplates([]model.ClassTemplate{tpl}, time.Now(), 7)
		if !errors.Is(err, ErrTemplateInvalid) {
			t.Errorf("模板 %s 期望 ErrTemplateInvalid，实际: %v", tpl.TemplateID, err)
		}
	}
}
