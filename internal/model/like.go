package model

import "time"

// Like 单向意向（A 喜欢 B）
type Like struct {
	ID      string `gorm:"primaryKey;type:varchar(36)"`
	LikerID string `gorm:"type:varchar(36);index:idx_like_liker;index:idx_like_pair,unique;not null"`
	LikedID string `gorm:"type:varchar(36);not null;index:idx_like_liked;index:idx_like_pair,unique"`
	// 复合唯一键，重复点赞幂等
	// idx_like_pair = (liker_id, liked_id)
	CreatedAt time.Time
}

func (Like) TableName() string { return "likes" }
