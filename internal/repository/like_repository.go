package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/rental-chat/internal/model"
)

type LikeRepository interface {
	Create(ctx context.Context, likerID, likedID string) error
	Delete(ctx context.Context, likerID, likedID string) error
	Exists(ctx context.Context, likerID, likedID string) (bool, error)
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository { return &likeRepository{db: db} }

func (r *likeRepository) Create(ctx context.Context, likerID, likedID string) error {
	l := &model.Like{ID: uuid.New().String(), LikerID: likerID, LikedID: likedID}
	// 幂等：重复点赞不报错
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(l).Error
}

func (r *likeRepository) Delete(ctx context.Context, likerID, likedID string) error {
	return r.db.WithContext(ctx).
		Where("liker_id = ? AND liked_id = ?", likerID, likedID).
		Delete(&model.Like{}).Error
}

func (r *likeRepository) Exists(ctx context.Context, likerID, likedID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Like{}).
		Where("liker_id = ? AND liked_id = ?", likerID, likedID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}
