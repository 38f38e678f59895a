package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/rental-chat/internal/repository"
	"github.com/d60-Lab/rental-chat/pkg/logger"
)

type touchJob struct {
	conversationID string
	at             time.Time
}

// ConversationToucher 会话元数据（last_message_at / updated_at）的异步刷新器。
// 元数据是咨询性质的：刷新失败不回滚消息写入，队列打满直接丢弃并告警。
type ConversationToucher struct {
	threads repository.ThreadRepository
	ch      chan touchJob
}

func NewConversationToucher(threads repository.ThreadRepository, queueSize int) *ConversationToucher {
	if queueSize <= 0 {
		queueSize = 10000
	}
	return &ConversationToucher{threads: threads, ch: make(chan touchJob, queueSize)}
}

func (t *ConversationToucher) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 2
	}
	stopCh := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			for {
				select {
				case job := <-t.ch:
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					if err := t.threads.Touch(ctx, job.conversationID, job.at); err != nil {
						logger.Warn("touch conversation failed",
							zap.String("conversation", job.conversationID), zap.Error(err))
					}
					cancel()
				case <-stopCh:
					return
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		close(stopCh)
		// 等待队列自然排空一小段时间
		timeout := time.After(2 * time.Second)
		for {
			select {
			case <-timeout:
				return nil
			default:
				if len(t.ch) == 0 {
					return nil
				}
				time.Sleep(50 * time.Millisecond)
			}
		}
	}
}

func (t *ConversationToucher) Enqueue(conversationID string, at time.Time) {
	select {
	case t.ch <- touchJob{conversationID: conversationID, at: at}:
	default:
		logger.Warn("toucher queue full, drop", zap.String("conversation", conversationID))
	}
}

// QueueLen 返回当前队列长度（采样值）。
func (t *ConversationToucher) QueueLen() int { return len(t.ch) }
