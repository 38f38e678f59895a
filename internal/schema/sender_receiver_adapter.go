package schema

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/rental-chat/internal/pair"
	"github.com/d60-Lab/rental-chat/pkg/apperr"
)

// senderReceiverAdapter 托管后端遗留布局：conversations(sender_id, receiver_id,
// property_id)。列名带方向性但语义是无序对，读取时两个方向都查；
// property_id 即规范键的 scope。(sender_id, receiver_id, property_id) 唯一。
// 该布局没有软关闭列。
type senderReceiverAdapter struct{}

const srTable = "conversations"

type srRow struct {
	ID            string     `gorm:"column:id"`
	SenderID      string     `gorm:"column:sender_id"`
	ReceiverID    string     `gorm:"column:receiver_id"`
	PropertyID    string     `gorm:"column:property_id"`
	LastMessageAt *time.Time `gorm:"column:last_message_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (*senderReceiverAdapter) Name() string { return "sender_receiver" }

func (*senderReceiverAdapter) Probe(ctx context.Context, db *gorm.DB) error {
	var id string
	return db.WithContext(ctx).Raw("SELECT sender_id FROM conversations LIMIT 1").Scan(&id).Error
}

func (*senderReceiverAdapter) Find(ctx context.Context, db *gorm.DB, key pair.Key) (string, error) {
	var rows []srRow
	err := db.WithContext(ctx).Table(srTable).
		Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND COALESCE(property_id, '') = ?",
			key.Low, key.High, key.High, key.Low, key.Scope).
		Limit(1).Find(&rows).Error
	if err != nil {
		return "", wrapStorage(err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].ID, nil
}

func (*senderReceiverAdapter) Create(ctx context.Context, db *gorm.DB, key pair.Key) (string, error) {
	now := time.Now()
	row := srRow{
		ID:         uuid.New().String(),
		SenderID:   key.Low,
		ReceiverID: key.High,
		PropertyID: key.Scope,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := db.WithContext(ctx).Table(srTable).Create(&row).Error; err != nil {
		if IsDuplicate(err) {
			return "", apperr.New(apperr.CodeConflict, "conversation already exists")
		}
		return "", wrapStorage(err)
	}
	return row.ID, nil
}

func (*senderReceiverAdapter) Get(ctx context.Context, db *gorm.DB, id string) (Record, error) {
	var rows []srRow
	err := db.WithContext(ctx).Table(srTable).Where("id = ?", id).Limit(1).Find(&rows).Error
	if err != nil {
		return Record{}, wrapStorage(err)
	}
	if len(rows) == 0 {
		return Record{}, apperr.New(apperr.CodeNotFound, "conversation not found")
	}
	return srRecord(&rows[0]), nil
}

func (*senderReceiverAdapter) List(ctx context.Context, db *gorm.DB, participant string) ([]Record, error) {
	var rows []srRow
	err := db.WithContext(ctx).Table(srTable).
		Where("sender_id = ? OR receiver_id = ?", participant, participant).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStorage(err)
	}
	out := make([]Record, len(rows))
	for i := range rows {
		out[i] = srRecord(&rows[i])
	}
	return out, nil
}

func (*senderReceiverAdapter) Touch(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	return db.WithContext(ctx).Table(srTable).
		Where("id = ?", id).
		Updates(map[string]interface{}{"last_message_at": at, "updated_at": at}).Error
}

func (*senderReceiverAdapter) SetActive(ctx context.Context, db *gorm.DB, id string, active bool) error {
	return apperr.New(apperr.CodeInvalidArgument, "closing conversations is not supported by this storage layout")
}

func srRecord(r *srRow) Record {
	low, high := r.SenderID, r.ReceiverID
	if low > high {
		low, high = high, low
	}
	return Record{
		ID:            r.ID,
		Low:           low,
		High:          high,
		Scope:         r.PropertyID,
		IsActive:      true,
		LastMessageAt: r.LastMessageAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
