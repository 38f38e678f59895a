package schema

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/rental-chat/internal/pair"
	"github.com/d60-Lab/rental-chat/pkg/apperr"
)

// participantsAdapter 多对多遗留布局：裸 conversations(id) +
// conversation_participants(conversation_id, user_id) 关联表。
// 关联表表达不了"每对至多一个会话"的唯一约束，这里用规范键派生确定性
// 会话 id（UUIDv5），让主键本身成为约束：并发双方算出同一个 id，
// 后写者撞主键走 CONFLICT 回读。历史随机 id 的旧行靠双 JOIN 查找兜住。
// 无 scope 列，无软关闭列。
type participantsAdapter struct{}

type participantsConvRow struct {
	ID        string    `gorm:"column:id"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
	Other     string    `gorm:"column:other"`
}

func (*participantsAdapter) Name() string { return "participants" }

func participantsConvID(key pair.Key) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("conversation:"+key.Low+"|"+key.High)).String()
}

func (*participantsAdapter) Probe(ctx context.Context, db *gorm.DB) error {
	var id string
	return db.WithContext(ctx).Raw("SELECT conversation_id FROM conversation_participants LIMIT 1").Scan(&id).Error
}

func (*participantsAdapter) Find(ctx context.Context, db *gorm.DB, key pair.Key) (string, error) {
	if err := rejectScope(key); err != nil {
		return "", err
	}
	var ids []string
	err := db.WithContext(ctx).Raw(
		`SELECT c.id FROM conversations c
		 JOIN conversation_participants p1 ON p1.conversation_id = c.id AND p1.user_id = ?
		 JOIN conversation_participants p2 ON p2.conversation_id = c.id AND p2.user_id = ?
		 LIMIT 1`, key.Low, key.High,
	).Scan(&ids).Error
	if err != nil {
		return "", wrapStorage(err)
	}
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}

func (*participantsAdapter) Create(ctx context.Context, db *gorm.DB, key pair.Key) (string, error) {
	if err := rejectScope(key); err != nil {
		return "", err
	}
	id := participantsConvID(key)
	now := time.Now()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"INSERT INTO conversations (id, created_at, updated_at) VALUES (?, ?, ?)", id, now, now,
		).Error; err != nil {
			return err
		}
		for _, p := range []string{key.Low, key.High} {
			if err := tx.Exec(
				"INSERT INTO conversation_participants (conversation_id, user_id) VALUES (?, ?)", id, p,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if IsDuplicate(err) {
			return "", apperr.New(apperr.CodeConflict, "conversation already exists")
		}
		return "", wrapStorage(err)
	}
	return id, nil
}

func (*participantsAdapter) Get(ctx context.Context, db *gorm.DB, id string) (Record, error) {
	var convs []participantsConvRow
	err := db.WithContext(ctx).Raw(
		"SELECT id, created_at, updated_at FROM conversations WHERE id = ? LIMIT 1", id,
	).Scan(&convs).Error
	if err != nil {
		return Record{}, wrapStorage(err)
	}
	if len(convs) == 0 {
		return Record{}, apperr.New(apperr.CodeNotFound, "conversation not found")
	}
	var members []string
	err = db.WithContext(ctx).Raw(
		"SELECT user_id FROM conversation_participants WHERE conversation_id = ? ORDER BY user_id", id,
	).Scan(&members).Error
	if err != nil {
		return Record{}, wrapStorage(err)
	}
	rec := Record{ID: id, IsActive: true, CreatedAt: convs[0].CreatedAt, UpdatedAt: convs[0].UpdatedAt}
	if len(members) >= 2 {
		rec.Low, rec.High = members[0], members[len(members)-1]
	}
	return rec, nil
}

func (*participantsAdapter) List(ctx context.Context, db *gorm.DB, participant string) ([]Record, error) {
	var rows []participantsConvRow
	err := db.WithContext(ctx).Raw(
		`SELECT c.id, c.created_at, c.updated_at, p2.user_id AS other
		 FROM conversations c
		 JOIN conversation_participants p1 ON p1.conversation_id = c.id AND p1.user_id = ?
		 JOIN conversation_participants p2 ON p2.conversation_id = c.id AND p2.user_id <> ?
		 ORDER BY c.updated_at DESC`, participant, participant,
	).Scan(&rows).Error
	if err != nil {
		return nil, wrapStorage(err)
	}
	out := make([]Record, len(rows))
	for i, r := range rows {
		low, high := participant, r.Other
		if low > high {
			low, high = high, low
		}
		out[i] = Record{ID: r.ID, Low: low, High: high, IsActive: true, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
	}
	return out, nil
}

func (*participantsAdapter) Touch(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		"UPDATE conversations SET updated_at = ? WHERE id = ?", at, id,
	).Error
}

func (*participantsAdapter) SetActive(ctx context.Context, db *gorm.DB, id string, active bool) error {
	return apperr.New(apperr.CodeInvalidArgument, "closing conversations is not supported by this storage layout")
}
