package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"box-schedule/backend/internal/model"
	"box-schedule/backend/internal/repository"
	"box-schedule/backend/pkg/clock"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoData       = errors.New("该月份暂无可导出的预约记录")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出指定月份截至今天（含）的课程出勤情况为 Excel (.xlsx)
//   - Sheet "出勤明细"：每条有效预约一行，附出勤状态，未点名记为 unknown
//   - Sheet "汇总"：每节课程一行，预约数 / 出勤 / 缺勤 / 未点名
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportAttendance 导出月度出勤表
	ExportAttendance(ctx context.Context, month string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	clock  clock.Clock
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, clk clock.Clock, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, clock: clk, logger: logger}
}

const (
	detailSheet  = "出勤明细"
	summarySheet = "汇总"
)

// sessionTally 汇总 Sheet 中一节课程的统计
type sessionTally struct {
	session  *model.Session
	reserved int
	present  int
	absent   int
}

// ═══════════════════════════════════════════════════════════
// ExportAttendance 导出月度出勤表
// ═══════════════════════════════════════════════════════════
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportAttendance(ctx context.Context, month string) (*bytes.Buffer, string, error) {
	from, to, err := clock.ParseMonth(month)
	if err != nil {
		return nil, "", ErrInvalidMonth
	}
	if tomorrow := s.clock.Today().AddDate(0, 0, 1); tomorrow.Before(to) {
		to = tomorrow
	}
	if !from.Before(to) {
		return nil, "", ErrExportNoData
	}

	// 1. 查询有效预约（含课程）
	reservations, err := s.repo.Reservation.ListActiveInRange(ctx, from, to)
	if err != nil {
		s.logger.Error("查询月度预约失败", zap.Error(err))
		return nil, "", err
	}
	if len(reservations) == 0 {
		return nil, "", ErrExportNoData
	}

	// 2. 出勤与用户
	sessionIDs := activeSessionIDs(reservations)
	records, err := s.repo.Attendance.ListBySessions(ctx, sessionIDs)
	if err != nil {
		s.logger.Error("查询出勤记录失败", zap.Error(err))
		return nil, "", err
	}
	attendance := make(map[string]string, len(records)) // "session:user" → status
	for _, rec := range records {
		attendance[rec.SessionID+":"+rec.UserID] = rec.Status
	}

	userSeen := make(map[string]bool)
	var userIDs []string
	for _, r := range reservations {
		if !userSeen[r.UserID] {
			userSeen[r.UserID] = true
			userIDs = append(userIDs, r.UserID)
		}
	}
	users, err := s.repo.User.ListByIDs(ctx, userIDs)
	if err != nil {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, "", err
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.UserID] = u.Name
	}

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	idx, _ := f.NewSheet(detailSheet)
	f.SetActiveSheet(idx)
	f.NewSheet(summarySheet)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// ── 明细 ──
	detailHeaders := []string{"日期", "时间", "课程", "会员", "会员ID", "出勤"}
	widths := []float64{12, 8, 20, 16, 38, 10}
	for i, h := range detailHeaders {
		f.SetCellValue(detailSheet, cell(colName(i), 1), h)
		f.SetColWidth(detailSheet, colName(i), colName(i), widths[i])
	}
	f.SetCellStyle(detailSheet, "A1", cell(colName(len(detailHeaders)-1), 1), headerStyle)

	var order []string
	tallies := make(map[string]*sessionTally)

	row := 2
	for _, r := range reservations {
		status, ok := attendance[r.SessionID+":"+r.UserID]
		if !ok {
			status = "unknown"
		}

		name := ""
		if r.Session != nil {
			name = snapshotName(r.Session)
		}
		f.SetCellValue(detailSheet, cell("A", row), r.SessionDate.Format(clock.DateLayout))
		f.SetCellValue(detailSheet, cell("B", row), r.StartTime)
		f.SetCellValue(detailSheet, cell("C", row), name)
		f.SetCellValue(detailSheet, cell("D", row), names[r.UserID])
		f.SetCellValue(detailSheet, cell("E", row), r.UserID)
		f.SetCellValue(detailSheet, cell("F", row), status)
		row++

		t, ok := tallies[r.SessionID]
		if !ok {
			t = &sessionTally{session: r.Session}
			tallies[r.SessionID] = t
			order = append(order, r.SessionID)
		}
		t.reserved++
		switch status {
		case model.AttendancePresent:
			t.present++
		case model.AttendanceAbsent:
			t.absent++
		}
	}

	// ── 汇总 ──
	summaryHeaders := []string{"日期", "时间", "课程", "容量", "预约", "出勤", "缺勤", "未点名", "状态"}
	for i, h := range summaryHeaders {
		f.SetCellValue(summarySheet, cell(colName(i), 1), h)
		f.SetColWidth(summarySheet, colName(i), colName(i), 12)
	}
	f.SetColWidth(summarySheet, "C", "C", 20)
	f.SetCellStyle(summarySheet, "A1", cell(colName(len(summaryHeaders)-1), 1), headerStyle)

	row = 2
	for _, id := range order {
		t := tallies[id]
		if t.session == nil {
			continue
		}
		f.SetCellValue(summarySheet, cell("A", row), t.session.SessionDate.Format(clock.DateLayout))
		f.SetCellValue(summarySheet, cell("B", row), t.session.StartTime)
		f.SetCellValue(summarySheet, cell("C", row), snapshotName(t.session))
		f.SetCellValue(summarySheet, cell("D", row), t.session.Capacity)
		f.SetCellValue(summarySheet, cell("E", row), t.reserved)
		f.SetCellValue(summarySheet, cell("F", row), t.present)
		f.SetCellValue(summarySheet, cell("G", row), t.absent)
		f.SetCellValue(summarySheet, cell("H", row), t.reserved-t.present-t.absent)
		f.SetCellValue(summarySheet, cell("I", row), t.session.Status)
		row++
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	s.logger.Info("出勤表导出完成", zap.String("month", month), zap.Int("rows", len(reservations)))
	return buf, fmt.Sprintf("出勤表_%s.xlsx", month), nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
