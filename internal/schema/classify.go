package schema

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Outcome 探测结果的三分类。
// SchemaMissing 与 AccessDenied 必须严格区分：前者继续探测下一个候选，
// 后者是配置错误，立刻中止——降级成"未命中"会让服务静默跑在错误的库上。
type Outcome int

const (
	Usable Outcome = iota
	SchemaMissing
	AccessDenied
	Unknown
)

// PostgreSQL SQLSTATE
const (
	pgUndefinedTable        = "42P01"
	pgUndefinedColumn       = "42703"
	pgInsufficientPrivilege = "42501"
	pgUniqueViolation       = "23505"
)

// ClassifyProbe 把探测错误归入唯一一类。
func ClassifyProbe(err error) Outcome {
	if err == nil {
		return Usable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUndefinedTable, pgUndefinedColumn:
			return SchemaMissing
		case pgInsufficientPrivilege:
			return AccessDenied
		}
		// RLS 拒绝在部分托管库上报成 42501 之外的权限类错误
		if strings.Contains(pgErr.Message, "row-level security") {
			return AccessDenied
		}
		return Unknown
	}

	// sqlite（mattn 驱动无结构化错误码，按文本判别）
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such table"),
		strings.Contains(msg, "no such column"):
		return SchemaMissing
	case strings.Contains(msg, "permission denied"),
		strings.Contains(msg, "authorization denied"):
		return AccessDenied
	}
	return Unknown
}

// IsDuplicate 判断写入是否撞了唯一约束（幂等创建的预期路径）。
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
