package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User          UserRepository
	ClassTemplate ClassTemplateRepository
	Session       SessionRepository
	Reservation   ReservationRepository
	Attendance    AttendanceRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:            db,
		User:          NewUserRepo(db),
		ClassTemplate: NewClassTemplateRepo(db),
		Session:       NewSessionRepo(db),
		Reservation:   NewReservationRepo(db),
		Attendance:    NewAttendanceRepo(db),
	}
}

// BeginTx 开启事务
// 聚合由测试直接组装（无底层连接）时返回 nil 事务，调用方按 tx != nil 判断
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到事务连接的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}
