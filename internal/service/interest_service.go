package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/rental-chat/internal/model"
	"github.com/d60-Lab/rental-chat/internal/pair"
	"github.com/d60-Lab/rental-chat/internal/repository"
)

// MatchSummary 匹配列表行。
type MatchSummary struct {
	MatchID          string    `json:"match_id"`
	OtherParticipant string    `json:"other_participant"`
	ThreadID         string    `json:"thread_id"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// InterestService 意向台账 + 匹配开通。
//
// 每个无序对的状态机：NoInterest -(单向点赞)-> OneSidedLike -(反向点赞)-> Matched。
// Matched 是终态：撤回点赞不退出 Matched，已开通的会话保留（产品策略，
// 匹配一旦形成即永久可聊）。
type InterestService interface {
	// RecordLike 记录单向意向（重复点赞幂等）；双向成立时物化 Match 并
	// 在同一事务里开通会话——Match 绝不允许在没有会话的情况下存在。
	RecordLike(ctx context.Context, liker, liked string) (matched bool, threadID string, err error)
	WithdrawLike(ctx context.Context, liker, liked string) error
	ListMatches(ctx context.Context, viewer string) ([]MatchSummary, error)
}

type interestService struct {
	db       *gorm.DB
	likes    repository.LikeRepository
	matches  repository.MatchRepository
	threads  repository.ThreadRepository
	notifier *Notifier
}

func NewInterestService(
	db *gorm.DB,
	likes repository.LikeRepository,
	matches repository.MatchRepository,
	threads repository.ThreadRepository,
	notifier *Notifier,
) InterestService {
	return &interestService{db: db, likes: likes, matches: matches, threads: threads, notifier: notifier}
}

func (s *interestService) RecordLike(ctx context.Context, liker, liked string) (bool, string, error) {
	key, err := pair.Normalize(liker, liked, "")
	if err != nil {
		return false, "", err
	}

	if err := s.likes.Create(ctx, liker, liked); err != nil {
		return false, "", err
	}

	// 已匹配过则幂等返回（撤回再点赞也走这里，Matched 是终态）
	if m, err := s.matches.FindByPair(ctx, key); err != nil {
		return false, "", err
	} else if m != nil {
		return true, m.ConversationID, nil
	}

	reverse, err := s.likes.Exists(ctx, liked, liker)
	if err != nil {
		return false, "", err
	}
	if !reverse {
		return false, "", nil
	}

	threadID, err := s.provision(ctx, key)
	if err != nil {
		return false, "", err
	}

	now := time.Now()
	s.notifier.Publish(ctx, liker, Event{Type: EventMatch, ThreadID: threadID, From: liked, At: now})
	s.notifier.Publish(ctx, liked, Event{Type: EventMatch, ThreadID: threadID, From: liker, At: now})
	return true, threadID, nil
}

// provision 物化 Match 并开通会话。事务保证两者同生：会话建不出来则
// Match 插入一并回滚，超时重试安全（两条路径都幂等）。
func (s *interestService) provision(ctx context.Context, key pair.Key) (string, error) {
	var threadID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := &model.Match{
			ID:     uuid.New().String(),
			LowID:  key.Low,
			HighID: key.High,
			Status: "active",
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(m)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// 并发方已物化；沿用它的会话
			var existing model.Match
			if err := tx.Where("low_id = ? AND high_id = ?", key.Low, key.High).
				First(&existing).Error; err != nil {
				return err
			}
			if existing.ConversationID != "" {
				threadID = existing.ConversationID
				return nil
			}
			// 极端竞态下回填未见，走同一条幂等建会话路径收敛
			id, _, err := s.threads.GetOrCreateIn(ctx, tx, key)
			if err != nil {
				return err
			}
			threadID = id
			return nil
		}

		id, _, err := s.threads.GetOrCreateIn(ctx, tx, key)
		if err != nil {
			return err
		}
		if err := tx.Model(&model.Match{}).Where("id = ?", m.ID).
			Update("conversation_id", id).Error; err != nil {
			return err
		}
		threadID = id
		return nil
	})
	if err != nil {
		return "", err
	}
	return threadID, nil
}

func (s *interestService) WithdrawLike(ctx context.Context, liker, liked string) error {
	if _, err := pair.Normalize(liker, liked, ""); err != nil {
		return err
	}
	// 撤回只删台账；已形成的 Match 与会话不动
	return s.likes.Delete(ctx, liker, liked)
}

func (s *interestService) ListMatches(ctx context.Context, viewer string) ([]MatchSummary, error) {
	items, err := s.matches.ListFor(ctx, viewer)
	if err != nil {
		return nil, err
	}
	out := make([]MatchSummary, len(items))
	for i, m := range items {
		other := m.LowID
		if viewer == m.LowID {
			other = m.HighID
		}
		out[i] = MatchSummary{
			MatchID:          m.ID,
			OtherParticipant: other,
			ThreadID:         m.ConversationID,
			Status:           m.Status,
			CreatedAt:        m.CreatedAt,
		}
	}
	return out, nil
}
