package model

import "time"

// Match 双向意向成立后的物化记录，作为会话自动开通的持久触发点。
// 同一对参与者至多一条，撤回点赞不删除已形成的 Match。
// idx_match_pair = (low_id, high_id)
type Match struct {
	ID             string `gorm:"primaryKey;type:varchar(36)"`
	LowID          string `gorm:"type:varchar(36);not null;index:idx_match_pair,unique,priority:1;index:idx_match_low"`
	HighID         string `gorm:"type:varchar(36);not null;index:idx_match_pair,unique,priority:2;index:idx_match_high"`
	ConversationID string `gorm:"type:varchar(36);not null;default:''"`
	Status         string `gorm:"type:varchar(16);not null;default:'active'"` // active, archived
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Match) TableName() string { return "matches" }
