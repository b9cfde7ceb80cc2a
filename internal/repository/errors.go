package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// 唯一约束名（与 migrations 保持一致）
const (
	constraintReservationSessionUser = "uq_reservations_session_user"
	constraintReservationUserSlot    = "uq_reservations_user_slot_active"
)

// pgUniqueViolation PostgreSQL unique_violation 错误码
const pgUniqueViolation = "23505"

// isUniqueViolation 判断 err 是否为指定约束的唯一性冲突
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == constraint
}
