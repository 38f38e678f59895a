package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/rental-chat/internal/model"
)

type MessageRepository interface {
	// Append 持久化消息；返回时消息已落库。会话元数据刷新由上层异步补。
	Append(ctx context.Context, conversationID, senderID, body string) (*model.Message, error)
	List(ctx context.Context, conversationID string, offset, limit int) ([]*model.Message, error)
	Last(ctx context.Context, conversationID string) (*model.Message, error)
	CountUnread(ctx context.Context, conversationID, viewer string) (int64, error)
	// MarkRead 把非 viewer 发送的未读消息置为已读；单向翻转，重复调用安全。
	MarkRead(ctx context.Context, conversationID, viewer string) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository { return &messageRepository{db: db} }

func (r *messageRepository) Append(ctx context.Context, conversationID, senderID, body string) (*model.Message, error) {
	m := &model.Message{ConversationID: conversationID, SenderID: senderID, Body: body}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

func (r *messageRepository) List(ctx context.Context, conversationID string, offset, limit int) ([]*model.Message, error) {
	var res []*model.Message
	// 时间戳 + 自增 id 决胜，排序不依赖任何客户端取值
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *messageRepository) Last(ctx context.Context, conversationID string) (*model.Message, error) {
	var res []*model.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		Limit(1).Find(&res).Error
	if err != nil || len(res) == 0 {
		return nil, err
	}
	return res[0], nil
}

func (r *messageRepository) CountUnread(ctx context.Context, conversationID, viewer string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, viewer, false).
		Count(&cnt).Error
	return cnt, err
}

func (r *messageRepository) MarkRead(ctx context.Context, conversationID, viewer string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, viewer, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
