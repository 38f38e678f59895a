package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/rental-chat/pkg/logger"
)

const (
	EventMessage = "thread.message"
	EventMatch   = "interest.match"
)

// Event 推给外部实时层的通知载荷。投递不做任何保证，纯 fire-and-forget。
type Event struct {
	Type     string    `json:"type"`
	ThreadID string    `json:"thread_id"`
	From     string    `json:"from,omitempty"`
	At       time.Time `json:"at"`
}

// Notifier 把事件发布到参与者各自的 redis 频道，供被排除在本服务之外的
// 实时推送层消费。rdb 为 nil 时整体退化为 no-op。
type Notifier struct {
	rdb *redis.Client
}

func NewNotifier(rdb *redis.Client) *Notifier { return &Notifier{rdb: rdb} }

func channelFor(participant string) string { return "rc:events:" + participant }

func (n *Notifier) Publish(ctx context.Context, participant string, ev Event) {
	if n == nil || n.rdb == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := n.rdb.Publish(ctx, channelFor(participant), payload).Err(); err != nil {
		logger.Warn("event publish failed",
			zap.String("participant", participant), zap.String("type", ev.Type), zap.Error(err))
	}
}
