package model

import "time"

// Message 会话内消息。自增主键用于同一时间戳下的排序决胜，不接受客户端取值。
// is_read 只允许 false -> true 单向翻转。
type Message struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement"`
	ConversationID string    `gorm:"type:varchar(36);not null;index:idx_message_conv_created,priority:1;index:idx_message_unread,priority:1"`
	SenderID       string    `gorm:"type:varchar(36);not null;index:idx_message_unread,priority:2"`
	Body           string    `gorm:"type:text;not null"`
	IsRead         bool      `gorm:"not null;default:false;index:idx_message_unread,priority:3"`
	CreatedAt      time.Time `gorm:"index:idx_message_conv_created,priority:2"`
}

func (Message) TableName() string { return "messages" }
