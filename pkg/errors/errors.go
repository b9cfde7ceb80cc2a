package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ── 预约事务内的业务拒绝 ──
// 由 Repository 在同一事务内判定后返回，事务随之回滚，不产生任何部分写入

var (
	ErrSessionUnavailable = errors.New("课程不可预约")
	ErrAlreadyBooked      = errors.New("已预约该课程")
	ErrOverlap            = errors.New("同一时段已预约其他课程")
	ErrSessionFull        = errors.New("课程名额已满")
)
