package model

import "time"

// Conversation 规范布局的会话行：参与者对按全序归一化后落在 (low_id, high_id)。
// 复合唯一键是"每对参与者至多一个会话"的唯一真相来源，应用层判重只是快路径。
// idx_conversation_pair = (low_id, high_id, scope)
type Conversation struct {
	ID            string `gorm:"primaryKey;type:varchar(36)"`
	LowID         string `gorm:"type:varchar(36);not null;index:idx_conversation_low;index:idx_conversation_pair,unique,priority:1"`
	HighID        string `gorm:"type:varchar(36);not null;index:idx_conversation_high;index:idx_conversation_pair,unique,priority:2"`
	Scope         string `gorm:"type:varchar(64);not null;default:'';index:idx_conversation_pair,unique,priority:3"`
	IsActive      bool   `gorm:"not null;default:true"`
	LastMessageAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Conversation) TableName() string { return "conversations" }
