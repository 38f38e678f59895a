package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/rental-chat/internal/model"
	"github.com/d60-Lab/rental-chat/internal/pair"
	"github.com/d60-Lab/rental-chat/pkg/apperr"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	// 内存库绑定连接，多连接会各自看到空库
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func mustKey(t *testing.T, a, b, scope string) pair.Key {
	t.Helper()
	k, err := pair.Normalize(a, b, scope)
	require.NoError(t, err)
	return k
}

func TestResolvePicksCanonicalLayout(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.AutoMigrate(&model.Conversation{}))

	r := NewResolver(db)
	ad, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pair", ad.Name())
}

func TestPairAdapterCreateFindConflict(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.AutoMigrate(&model.Conversation{}))
	ad := &pairAdapter{}
	ctx := context.Background()

	key := mustKey(t, "bob", "alice", "prop-1")
	id, err := ad.Create(ctx, db, key)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// 同一对（任意方向）命中同一行
	got, err := ad.Find(ctx, db, mustKey(t, "alice", "bob", "prop-1"))
	require.NoError(t, err)
	assert.Equal(t, id, got)

	// 不同 scope 是不同会话
	got, err = ad.Find(ctx, db, mustKey(t, "alice", "bob", "prop-2"))
	require.NoError(t, err)
	assert.Empty(t, got)

	// 重复创建撞唯一索引，报 CONFLICT 交上层回读
	_, err = ad.Create(ctx, db, key)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))

	rec, err := ad.Get(ctx, db, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", rec.Low)
	assert.Equal(t, "bob", rec.High)
	assert.True(t, rec.IsActive)
}

func TestNumberedLayout(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Exec(`CREATE TABLE community_conversations (
		id TEXT PRIMARY KEY,
		user1_id TEXT NOT NULL,
		user2_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		last_message_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (user1_id, user2_id)
	)`).Error)

	r := NewResolver(db)
	ctx := context.Background()
	ad, err := r.Resolve(ctx)
	require.NoError(t, err)
	require.Equal(t, "numbered", ad.Name())

	key := mustKey(t, "u2", "u1", "")
	id, err := ad.Create(ctx, db, key)
	require.NoError(t, err)

	got, err := ad.Find(ctx, db, key)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	// 历史旧行可能没归一化存放顺序，反向也要能查到
	require.NoError(t, db.Exec(
		`INSERT INTO community_conversations (id, user1_id, user2_id, status, created_at, updated_at)
		 VALUES ('legacy-1', 'zed', 'amy', 'active', DATETIME('now'), DATETIME('now'))`).Error)
	got, err = ad.Find(ctx, db, mustKey(t, "amy", "zed", ""))
	require.NoError(t, err)
	assert.Equal(t, "legacy-1", got)

	_, err = ad.Create(ctx, db, key)
	assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))

	// 该布局没有 scope 列
	_, err = ad.Find(ctx, db, mustKey(t, "u1", "u2", "prop-1"))
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	// 软关闭映射到 status 列
	require.NoError(t, ad.SetActive(ctx, db, id, false))
	rec, err := ad.Get(ctx, db, id)
	require.NoError(t, err)
	assert.False(t, rec.IsActive)
}

func TestSenderReceiverLayout(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Exec(`CREATE TABLE conversations (
		id TEXT PRIMARY KEY,
		sender_id TEXT NOT NULL,
		receiver_id TEXT NOT NULL,
		property_id TEXT,
		last_message_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (sender_id, receiver_id, property_id)
	)`).Error)

	r := NewResolver(db)
	ctx := context.Background()
	ad, err := r.Resolve(ctx)
	require.NoError(t, err)
	require.Equal(t, "sender_receiver", ad.Name())

	// property_id 承载 scope
	key := mustKey(t, "tenant-1", "landlord-1", "prop-9")
	id, err := ad.Create(ctx, db, key)
	require.NoError(t, err)

	got, err := ad.Find(ctx, db, mustKey(t, "landlord-1", "tenant-1", "prop-9"))
	require.NoError(t, err)
	assert.Equal(t, id, got)

	got, err = ad.Find(ctx, db, mustKey(t, "landlord-1", "tenant-1", ""))
	require.NoError(t, err)
	assert.Empty(t, got)

	rec, err := ad.Get(ctx, db, id)
	require.NoError(t, err)
	assert.Equal(t, "landlord-1", rec.Low)
	assert.Equal(t, "prop-9", rec.Scope)

	// 没有软关闭列
	err = ad.SetActive(ctx, db, id, false)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestNamedPairLayout(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Exec(`CREATE TABLE "Conversation" (
		id TEXT PRIMARY KEY,
		"aId" TEXT NOT NULL,
		"bId" TEXT NOT NULL,
		"isActive" BOOLEAN NOT NULL DEFAULT 1,
		"lastMessageAt" DATETIME,
		"createdAt" DATETIME,
		"updatedAt" DATETIME,
		UNIQUE ("aId", "bId")
	)`).Error)

	r := NewResolver(db)
	ctx := context.Background()
	ad, err := r.Resolve(ctx)
	require.NoError(t, err)
	require.Equal(t, "named_pair", ad.Name())

	key := mustKey(t, "bob", "alice", "")
	id, err := ad.Create(ctx, db, key)
	require.NoError(t, err)

	got, err := ad.Find(ctx, db, key)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ad.Create(ctx, db, key)
	assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))

	require.NoError(t, ad.SetActive(ctx, db, id, false))
	rec, err := ad.Get(ctx, db, id)
	require.NoError(t, err)
	assert.False(t, rec.IsActive)
	assert.Equal(t, "alice", rec.Low)
}

func TestParticipantsLayout(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Exec(`CREATE TABLE conversations (
		id TEXT PRIMARY KEY,
		created_at DATETIME,
		updated_at DATETIME
	)`).Error)
	require.NoError(t, db.Exec(`CREATE TABLE conversation_participants (
		conversation_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		PRIMARY KEY (conversation_id, user_id)
	)`).Error)

	r := NewResolver(db)
	ctx := context.Background()
	ad, err := r.Resolve(ctx)
	require.NoError(t, err)
	require.Equal(t, "participants", ad.Name())

	key := mustKey(t, "bob", "alice", "")
	id, err := ad.Create(ctx, db, key)
	require.NoError(t, err)
	// 确定性 id：同一对必然算出同一个主键
	assert.Equal(t, participantsConvID(key), id)

	got, err := ad.Find(ctx, db, key)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	// 二次创建撞主键
	_, err = ad.Create(ctx, db, key)
	assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))

	// 历史随机 id 的旧行靠 JOIN 查找兜住
	require.NoError(t, db.Exec(
		`INSERT INTO conversations (id, created_at, updated_at) VALUES ('legacy-7', DATETIME('now'), DATETIME('now'))`).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO conversation_participants (conversation_id, user_id) VALUES ('legacy-7', 'amy'), ('legacy-7', 'zed')`).Error)
	got, err = ad.Find(ctx, db, mustKey(t, "zed", "amy", ""))
	require.NoError(t, err)
	assert.Equal(t, "legacy-7", got)

	rec, err := ad.Get(ctx, db, "legacy-7")
	require.NoError(t, err)
	assert.Equal(t, "amy", rec.Low)
	assert.Equal(t, "zed", rec.High)

	list, err := ad.List(ctx, db, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "bob", list[0].High)
}

// 规范表存在但列不齐时必须继续探测，而不是误选 pair 布局。
func TestResolveSkipsLegacyTableWithSameName(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Exec(`CREATE TABLE conversations (
		id TEXT PRIMARY KEY,
		sender_id TEXT NOT NULL,
		receiver_id TEXT NOT NULL,
		property_id TEXT
	)`).Error)

	r := NewResolver(db)
	ad, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sender_receiver", ad.Name())
}
