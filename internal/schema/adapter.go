// Package schema 屏蔽"会话"在底层关系库中的多种物理布局。
//
// 线上观测到的布局是一个设计期已知的有限集合（历史迁移遗留），用策略接口
// 收敛，不做运行时反射。进程启动后按顺序探测一次，命中即缓存。
package schema

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/rental-chat/internal/pair"
)

// Record 某一物理布局下的会话行，统一成规范视图。
// Low/High 已按 pair.Key 的全序归一化，与底层列的实际存放顺序无关。
type Record struct {
	ID            string
	Low           string
	High          string
	Scope         string
	IsActive      bool
	LastMessageAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Adapter 一种物理布局的读写策略。实现必须无状态：所有方法接收调用方
// 传入的 *gorm.DB 会话，以便 Match 开通流程把建会话放进同一个事务。
type Adapter interface {
	Name() string

	// Probe 廉价、无副作用的存在性探测。返回的错误由 Classify 分类。
	Probe(ctx context.Context, db *gorm.DB) error

	// Find 查找规范键对应的会话 id；不存在时返回 ("", nil)。
	Find(ctx context.Context, db *gorm.DB, key pair.Key) (string, error)

	// Create 插入会话行，靠存储层唯一约束兜底；
	// 撞约束时返回 CONFLICT，由调用方回读既有行。
	Create(ctx context.Context, db *gorm.DB, key pair.Key) (string, error)

	// Get 按 id 取会话。
	Get(ctx context.Context, db *gorm.DB, id string) (Record, error)

	// List 列出参与者的全部会话，按最近活跃倒序。
	List(ctx context.Context, db *gorm.DB, participant string) ([]Record, error)

	// Touch 尽力而为地刷新 last_message_at / updated_at；失败不影响消息写入。
	Touch(ctx context.Context, db *gorm.DB, id string, at time.Time) error

	// SetActive 软关闭/恢复会话；布局不支持时返回 INVALID_ARGUMENT。
	SetActive(ctx context.Context, db *gorm.DB, id string, active bool) error
}

// Candidates 返回按优先级排列的候选布局。
// 顺序即探测顺序：规范布局优先，其后是各历史迁移批次的遗留布局。
func Candidates() []Adapter {
	return []Adapter{
		&pairAdapter{},
		&numberedAdapter{},
		&senderReceiverAdapter{},
		&namedPairAdapter{},
		&participantsAdapter{},
	}
}
