package schema

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/rental-chat/internal/pair"
	"github.com/d60-Lab/rental-chat/pkg/apperr"
)

// numberedAdapter 社区版遗留布局：community_conversations(user1_id, user2_id)。
// 迁移批次已补 (user1_id, user2_id) 唯一索引；写入前归一化存放顺序，
// 读取时兼容历史上未归一化的旧行（两个方向都查）。
// 该布局没有 scope 列，按房源区分会话不受支持。
type numberedAdapter struct{}

const numberedTable = "community_conversations"

type numberedRow struct {
	ID            string     `gorm:"column:id"`
	User1ID       string     `gorm:"column:user1_id"`
	User2ID       string     `gorm:"column:user2_id"`
	Status        string     `gorm:"column:status"`
	LastMessageAt *time.Time `gorm:"column:last_message_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (*numberedAdapter) Name() string { return "numbered" }

func (*numberedAdapter) Probe(ctx context.Context, db *gorm.DB) error {
	var id string
	return db.WithContext(ctx).Raw("SELECT user1_id FROM community_conversations LIMIT 1").Scan(&id).Error
}

func (*numberedAdapter) Find(ctx context.Context, db *gorm.DB, key pair.Key) (string, error) {
	if err := rejectScope(key); err != nil {
		return "", err
	}
	var rows []numberedRow
	err := db.WithContext(ctx).Table(numberedTable).
		Where("(user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)",
			key.Low, key.High, key.High, key.Low).
		Limit(1).Find(&rows).Error
	if err != nil {
		return "", wrapStorage(err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].ID, nil
}

func (*numberedAdapter) Create(ctx context.Context, db *gorm.DB, key pair.Key) (string, error) {
	if err := rejectScope(key); err != nil {
		return "", err
	}
	now := time.Now()
	row := numberedRow{
		ID:        uuid.New().String(),
		User1ID:   key.Low,
		User2ID:   key.High,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Table(numberedTable).Create(&row).Error; err != nil {
		if IsDuplicate(err) {
			return "", apperr.New(apperr.CodeConflict, "conversation already exists")
		}
		return "", wrapStorage(err)
	}
	return row.ID, nil
}

func (*numberedAdapter) Get(ctx context.Context, db *gorm.DB, id string) (Record, error) {
	var rows []numberedRow
	err := db.WithContext(ctx).Table(numberedTable).Where("id = ?", id).Limit(1).Find(&rows).Error
	if err != nil {
		return Record{}, wrapStorage(err)
	}
	if len(rows) == 0 {
		return Record{}, apperr.New(apperr.CodeNotFound, "conversation not found")
	}
	return numberedRecord(&rows[0]), nil
}

func (*numberedAdapter) List(ctx context.Context, db *gorm.DB, participant string) ([]Record, error) {
	var rows []numberedRow
	err := db.WithContext(ctx).Table(numberedTable).
		Where("user1_id = ? OR user2_id = ?", participant, participant).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStorage(err)
	}
	out := make([]Record, len(rows))
	for i := range rows {
		out[i] = numberedRecord(&rows[i])
	}
	return out, nil
}

func (*numberedAdapter) Touch(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	return db.WithContext(ctx).Table(numberedTable).
		Where("id = ?", id).
		Updates(map[string]interface{}{"last_message_at": at, "updated_at": at}).Error
}

func (*numberedAdapter) SetActive(ctx context.Context, db *gorm.DB, id string, active bool) error {
	status := "archived"
	if active {
		status = "active"
	}
	res := db.WithContext(ctx).Table(numberedTable).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return wrapStorage(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.CodeNotFound, "conversation not found")
	}
	return nil
}

func numberedRecord(r *numberedRow) Record {
	low, high := r.User1ID, r.User2ID
	if low > high {
		low, high = high, low
	}
	return Record{
		ID:            r.ID,
		Low:           low,
		High:          high,
		IsActive:      r.Status != "archived",
		LastMessageAt: r.LastMessageAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func rejectScope(key pair.Key) error {
	if key.Scope != "" {
		return apperr.New(apperr.CodeInvalidArgument, "per-listing conversations are not supported by this storage layout")
	}
	return nil
}
