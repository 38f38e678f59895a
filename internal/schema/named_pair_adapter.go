package schema

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/rental-chat/internal/pair"
	"github.com/d60-Lab/rental-chat/pkg/apperr"
)

// namedPairAdapter 最早期 ORM 迁移的遗留布局：大小写敏感的 "Conversation"
// 表，列名驼峰（"aId"/"bId"/"isActive"）。标识符必须带引号，统一走裸 SQL，
// 查询时列别名转 snake_case 方便扫描。("aId","bId") 唯一。无 scope 列。
type namedPairAdapter struct{}

type namedPairRow struct {
	ID            string     `gorm:"column:id"`
	AID           string     `gorm:"column:a_id"`
	BID           string     `gorm:"column:b_id"`
	IsActive      bool       `gorm:"column:is_active"`
	LastMessageAt *time.Time `gorm:"column:last_message_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

const namedPairSelect = `SELECT id, "aId" AS a_id, "bId" AS b_id, "isActive" AS is_active,
"lastMessageAt" AS last_message_at, "createdAt" AS created_at, "updatedAt" AS updated_at
FROM "Conversation"`

func (*namedPairAdapter) Name() string { return "named_pair" }

func (*namedPairAdapter) Probe(ctx context.Context, db *gorm.DB) error {
	var id string
	return db.WithContext(ctx).Raw(`SELECT "aId" FROM "Conversation" LIMIT 1`).Scan(&id).Error
}

func (*namedPairAdapter) Find(ctx context.Context, db *gorm.DB, key pair.Key) (string, error) {
	if err := rejectScope(key); err != nil {
		return "", err
	}
	var rows []namedPairRow
	err := db.WithContext(ctx).
		Raw(namedPairSelect+` WHERE ("aId" = ? AND "bId" = ?) OR ("aId" = ? AND "bId" = ?) LIMIT 1`,
			key.Low, key.High, key.High, key.Low).
		Scan(&rows).Error
	if err != nil {
		return "", wrapStorage(err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].ID, nil
}

func (*namedPairAdapter) Create(ctx context.Context, db *gorm.DB, key pair.Key) (string, error) {
	if err := rejectScope(key); err != nil {
		return "", err
	}
	id := uuid.New().String()
	now := time.Now()
	err := db.WithContext(ctx).Exec(
		`INSERT INTO "Conversation" (id, "aId", "bId", "isActive", "createdAt", "updatedAt") VALUES (?, ?, ?, ?, ?, ?)`,
		id, key.Low, key.High, true, now, now,
	).Error
	if err != nil {
		if IsDuplicate(err) {
			return "", apperr.New(apperr.CodeConflict, "conversation already exists")
		}
		return "", wrapStorage(err)
	}
	return id, nil
}

func (*namedPairAdapter) Get(ctx context.Context, db *gorm.DB, id string) (Record, error) {
	var rows []namedPairRow
	err := db.WithContext(ctx).Raw(namedPairSelect+` WHERE id = ? LIMIT 1`, id).Scan(&rows).Error
	if err != nil {
		return Record{}, wrapStorage(err)
	}
	if len(rows) == 0 {
		return Record{}, apperr.New(apperr.CodeNotFound, "conversation not found")
	}
	return namedPairRecord(&rows[0]), nil
}

func (*namedPairAdapter) List(ctx context.Context, db *gorm.DB, participant string) ([]Record, error) {
	var rows []namedPairRow
	err := db.WithContext(ctx).
		Raw(namedPairSelect+` WHERE "aId" = ? OR "bId" = ? ORDER BY "updatedAt" DESC`,
			participant, participant).
		Scan(&rows).Error
	if err != nil {
		return nil, wrapStorage(err)
	}
	out := make([]Record, len(rows))
	for i := range rows {
		out[i] = namedPairRecord(&rows[i])
	}
	return out, nil
}

func (*namedPairAdapter) Touch(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE "Conversation" SET "lastMessageAt" = ?, "updatedAt" = ? WHERE id = ?`, at, at, id,
	).Error
}

func (*namedPairAdapter) SetActive(ctx context.Context, db *gorm.DB, id string, active bool) error {
	res := db.WithContext(ctx).Exec(
		`UPDATE "Conversation" SET "isActive" = ?, "updatedAt" = ? WHERE id = ?`, active, time.Now(), id,
	)
	if res.Error != nil {
		return wrapStorage(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.CodeNotFound, "conversation not found")
	}
	return nil
}

func namedPairRecord(r *namedPairRow) Record {
	low, high := r.AID, r.BID
	if low > high {
		low, high = high, low
	}
	return Record{
		ID:            r.ID,
		Low:           low,
		High:          high,
		IsActive:      r.IsActive,
		LastMessageAt: r.LastMessageAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
