package service

import (
	"context"
	"time"

	"github.com/d60-Lab/rental-chat/internal/model"
	"github.com/d60-Lab/rental-chat/internal/pair"
	"github.com/d60-Lab/rental-chat/internal/repository"
	"github.com/d60-Lab/rental-chat/internal/schema"
	"github.com/d60-Lab/rental-chat/pkg/apperr"
)

// MessageView 消息的对外视图。
type MessageView struct {
	ID        uint64    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Body      string    `json:"body"`
	IsMine    bool      `json:"is_mine"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// ThreadSummary 会话列表行。
type ThreadSummary struct {
	ThreadID         string       `json:"thread_id"`
	OtherParticipant string       `json:"other_participant"`
	OtherName        string       `json:"other_name"`
	Scope            string       `json:"scope,omitempty"`
	IsActive         bool         `json:"is_active"`
	LastMessage      *MessageView `json:"last_message,omitempty"`
	UnreadCount      int64        `json:"unread_count"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

type ThreadService interface {
	CreateOrOpen(ctx context.Context, viewer, other, scope string) (threadID string, existing bool, err error)
	List(ctx context.Context, viewer string) ([]ThreadSummary, error)
	Messages(ctx context.Context, viewer, threadID string, page, pageSize int) ([]MessageView, error)
	Send(ctx context.Context, viewer, threadID, body string) (*model.Message, error)
	MarkRead(ctx context.Context, viewer, threadID string) (int64, error)
	SetActive(ctx context.Context, viewer, threadID string, active bool) error
}

type threadService struct {
	threads  repository.ThreadRepository
	messages repository.MessageRepository
	users    repository.UserRepository
	toucher  *ConversationToucher
	notifier *Notifier
}

func NewThreadService(
	threads repository.ThreadRepository,
	messages repository.MessageRepository,
	users repository.UserRepository,
	toucher *ConversationToucher,
	notifier *Notifier,
) ThreadService {
	return &threadService{threads: threads, messages: messages, users: users, toucher: toucher, notifier: notifier}
}

func (s *threadService) CreateOrOpen(ctx context.Context, viewer, other, scope string) (string, bool, error) {
	key, err := pair.Normalize(viewer, other, scope)
	if err != nil {
		return "", false, err
	}
	id, created, err := s.threads.GetOrCreate(ctx, key)
	if err != nil {
		return "", false, err
	}
	return id, !created, nil
}

// member 校验 viewer 是该会话参与者；不是则按 NOT_FOUND 处理，
// 不向无关方暴露会话是否存在。
func (s *threadService) member(ctx context.Context, viewer, threadID string) (schema.Record, error) {
	rec, err := s.threads.Get(ctx, threadID)
	if err != nil {
		return schema.Record{}, err
	}
	if viewer != rec.Low && viewer != rec.High {
		return schema.Record{}, apperr.New(apperr.CodeNotFound, "thread not found")
	}
	return rec, nil
}

func (s *threadService) List(ctx context.Context, viewer string) ([]ThreadSummary, error) {
	recs, err := s.threads.ListFor(ctx, viewer)
	if err != nil {
		return nil, err
	}

	others := make([]string, 0, len(recs))
	for _, rec := range recs {
		if o := otherOf(rec, viewer); o != "" {
			others = append(others, o)
		}
	}
	names, err := s.users.DisplayNames(ctx, others)
	if err != nil {
		// 展示名缺失不致命，回落到裸 id
		names = map[string]string{}
	}

	out := make([]ThreadSummary, 0, len(recs))
	for _, rec := range recs {
		other := otherOf(rec, viewer)
		row := ThreadSummary{
			ThreadID:         rec.ID,
			OtherParticipant: other,
			OtherName:        names[other],
			Scope:            rec.Scope,
			IsActive:         rec.IsActive,
			UpdatedAt:        rec.UpdatedAt,
		}
		if row.OtherName == "" {
			row.OtherName = other
		}

		if last, err := s.messages.Last(ctx, rec.ID); err == nil && last != nil {
			row.LastMessage = messageView(last, viewer)
		}
		if cnt, err := s.messages.CountUnread(ctx, rec.ID, viewer); err == nil {
			row.UnreadCount = cnt
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *threadService) Messages(ctx context.Context, viewer, threadID string, page, pageSize int) ([]MessageView, error) {
	if _, err := s.member(ctx, viewer, threadID); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	msgs, err := s.messages.List(ctx, threadID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	out := make([]MessageView, len(msgs))
	for i, m := range msgs {
		out[i] = *messageView(m, viewer)
	}
	return out, nil
}

func (s *threadService) Send(ctx context.Context, viewer, threadID, body string) (*model.Message, error) {
	rec, err := s.member(ctx, viewer, threadID)
	if err != nil {
		return nil, err
	}
	msg, err := s.messages.Append(ctx, threadID, viewer, body)
	if err != nil {
		return nil, err
	}
	// 消息已落库；元数据刷新与通知均为尽力而为
	s.toucher.Enqueue(threadID, msg.CreatedAt)
	s.notifier.Publish(ctx, otherOf(rec, viewer), Event{
		Type: EventMessage, ThreadID: threadID, From: viewer, At: msg.CreatedAt,
	})
	return msg, nil
}

func (s *threadService) MarkRead(ctx context.Context, viewer, threadID string) (int64, error) {
	if _, err := s.member(ctx, viewer, threadID); err != nil {
		return 0, err
	}
	return s.messages.MarkRead(ctx, threadID, viewer)
}

func (s *threadService) SetActive(ctx context.Context, viewer, threadID string, active bool) error {
	if _, err := s.member(ctx, viewer, threadID); err != nil {
		return err
	}
	return s.threads.SetActive(ctx, threadID, active)
}

func otherOf(rec schema.Record, viewer string) string {
	if viewer == rec.Low {
		return rec.High
	}
	return rec.Low
}

func messageView(m *model.Message, viewer string) *MessageView {
	return &MessageView{
		ID:        m.ID,
		SenderID:  m.SenderID,
		Body:      m.Body,
		IsMine:    m.SenderID == viewer,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
}
