package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/rental-chat/internal/model"
	"github.com/d60-Lab/rental-chat/internal/pair"
)

// MatchRepository 只承担读路径；写入发生在意向服务的开通事务里。
type MatchRepository interface {
	FindByPair(ctx context.Context, key pair.Key) (*model.Match, error)
	ListFor(ctx context.Context, participant string) ([]*model.Match, error)
}

type matchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) MatchRepository { return &matchRepository{db: db} }

func (r *matchRepository) FindByPair(ctx context.Context, key pair.Key) (*model.Match, error) {
	var m model.Match
	err := r.db.WithContext(ctx).
		Where("low_id = ? AND high_id = ?", key.Low, key.High).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *matchRepository) ListFor(ctx context.Context, participant string) ([]*model.Match, error) {
	var res []*model.Match
	err := r.db.WithContext(ctx).
		Where("low_id = ? OR high_id = ?", participant, participant).
		Order("created_at DESC").
		Find(&res).Error
	return res, err
}
