package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/rental-chat/internal/model"
)

// UserRepository 参与者展示名的只读查询。
type UserRepository interface {
	DisplayNames(ctx context.Context, ids []string) (map[string]string, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) DisplayNames(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []model.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		name := u.DisplayName
		if name == "" {
			name = u.Username
		}
		out[u.ID] = name
	}
	return out, nil
}
