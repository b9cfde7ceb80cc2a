package clock

import (
	"fmt"
	"time"
)

// DateLayout 日期格式（无时区的日历日期）
const DateLayout = "2006-01-02"

// MonthLayout 月份格式
const MonthLayout = "2006-01"

// Clock 系统时钟
//
// 场馆的 "今天" 只有一个定义：按配置的场馆时区计算的日历日期，
// 与调用方所在时区及 UTC 均无关。
type Clock interface {
	// Now 当前时刻
	Now() time.Time
	// Today 场馆时区下的当前日期（UTC 零点表示）
	Today() time.Time
	// Location 场馆时区
	Location() *time.Location
}

type zoneClock struct {
	loc *time.Location
}

// New 按 IANA 时区名创建时钟
func New(timezone string) (Clock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("加载时区 %q 失败: %w", timezone, err)
	}
	return &zoneClock{loc: loc}, nil
}

func (c *zoneClock) Now() time.Time { return time.Now() }

func (c *zoneClock) Today() time.Time { return DateOf(time.Now().In(c.loc)) }

func (c *zoneClock) Location() *time.Location { return c.loc }

// Fixed 固定时刻的时钟，用于测试与批处理重放
type Fixed struct {
	At  time.Time
	Loc *time.Location
}

func (f Fixed) Now() time.Time { return f.At }

func (f Fixed) Today() time.Time { return DateOf(f.At.In(f.Location())) }

func (f Fixed) Location() *time.Location {
	if f.Loc == nil {
		return time.UTC
	}
	return f.Loc
}

// DateOf 取 t 所在日历日期，统一用 UTC 零点表示，便于与 PostgreSQL date 列比较
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate 解析 YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// ParseMonth 解析 YYYY-MM，返回当月首日与次月首日
func ParseMonth(s string) (first, next time.Time, err error) {
	first, err = time.Parse(MonthLayout, s)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return first, first.AddDate(0, 1, 0), nil
}

// ParseClock 解析 HH:MM 墙上时间，返回距零点的分钟数
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// At 将日历日期与 HH:MM 组合为场馆时区下的时刻
func At(date time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	minutes, err := ParseClock(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), minutes/60, minutes%60, 0, 0, loc), nil
}
