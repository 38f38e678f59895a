package schema

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/rental-chat/internal/model"
	"github.com/d60-Lab/rental-chat/internal/pair"
	"github.com/d60-Lab/rental-chat/pkg/apperr"
)

// pairAdapter 规范布局：conversations(low_id, high_id, scope)，
// (low_id, high_id, scope) 复合唯一。新部署一律走这里。
type pairAdapter struct{}

func (*pairAdapter) Name() string { return "pair" }

func (*pairAdapter) Probe(ctx context.Context, db *gorm.DB) error {
	var id string
	return db.WithContext(ctx).Raw("SELECT low_id FROM conversations LIMIT 1").Scan(&id).Error
}

func (*pairAdapter) Find(ctx context.Context, db *gorm.DB, key pair.Key) (string, error) {
	var c model.Conversation
	err := db.WithContext(ctx).
		Where("low_id = ? AND high_id = ? AND scope = ?", key.Low, key.High, key.Scope).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", wrapStorage(err)
	}
	return c.ID, nil
}

func (*pairAdapter) Create(ctx context.Context, db *gorm.DB, key pair.Key) (string, error) {
	c := model.Conversation{
		ID:       uuid.New().String(),
		LowID:    key.Low,
		HighID:   key.High,
		Scope:    key.Scope,
		IsActive: true,
	}
	res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&c)
	if res.Error != nil {
		if IsDuplicate(res.Error) {
			return "", apperr.New(apperr.CodeConflict, "conversation already exists")
		}
		return "", wrapStorage(res.Error)
	}
	if res.RowsAffected == 0 {
		// 撞唯一键被 DoNothing 吞掉，交给调用方回读
		return "", apperr.New(apperr.CodeConflict, "conversation already exists")
	}
	return c.ID, nil
}

func (*pairAdapter) Get(ctx context.Context, db *gorm.DB, id string) (Record, error) {
	var c model.Conversation
	err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, apperr.New(apperr.CodeNotFound, "conversation not found")
	}
	if err != nil {
		return Record{}, wrapStorage(err)
	}
	return pairRecord(&c), nil
}

func (*pairAdapter) List(ctx context.Context, db *gorm.DB, participant string) ([]Record, error) {
	var rows []model.Conversation
	err := db.WithContext(ctx).
		Where("low_id = ? OR high_id = ?", participant, participant).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStorage(err)
	}
	out := make([]Record, len(rows))
	for i := range rows {
		out[i] = pairRecord(&rows[i])
	}
	return out, nil
}

func (*pairAdapter) Touch(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	return db.WithContext(ctx).Model(&model.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"last_message_at": at, "updated_at": at}).Error
}

func (*pairAdapter) SetActive(ctx context.Context, db *gorm.DB, id string, active bool) error {
	res := db.WithContext(ctx).Model(&model.Conversation{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return wrapStorage(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.CodeNotFound, "conversation not found")
	}
	return nil
}

func pairRecord(c *model.Conversation) Record {
	return Record{
		ID:            c.ID,
		Low:           c.LowID,
		High:          c.HighID,
		Scope:         c.Scope,
		IsActive:      c.IsActive,
		LastMessageAt: c.LastMessageAt,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// wrapStorage 把底层读写错误按可重试与否归类，原始报错只进日志不出接口。
func wrapStorage(err error) error {
	switch ClassifyProbe(err) {
	case AccessDenied:
		return apperr.Wrap(apperr.CodeAccessDenied, "storage denied access", err)
	default:
		return apperr.Wrap(apperr.CodeTransient, "storage operation failed", err)
	}
}
