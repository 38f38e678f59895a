package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/rental-chat/internal/model"
	"github.com/d60-Lab/rental-chat/internal/pair"
	"github.com/d60-Lab/rental-chat/internal/schema"
	"github.com/d60-Lab/rental-chat/pkg/apperr"
)

func setupRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库 + 单连接：串行化写入，避免连接各见一个空库
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Conversation{}, &model.Message{}, &model.Like{}, &model.Match{},
	))
	return db
}

func newThreadRepo(t *testing.T, db *gorm.DB) ThreadRepository {
	t.Helper()
	return NewThreadRepository(db, schema.NewResolver(db))
}

func TestGetOrCreateIdempotent(t *testing.T) {
	db := setupRepoDB(t)
	repo := newThreadRepo(t, db)
	ctx := context.Background()

	key, err := pair.Normalize("alice", "bob", "")
	require.NoError(t, err)

	id1, created, err := repo.GetOrCreate(ctx, key)
	require.NoError(t, err)
	assert.True(t, created)

	// 反向发起得到同一个会话
	rev, err := pair.Normalize("bob", "alice", "")
	require.NoError(t, err)
	id2, created, err := repo.GetOrCreate(ctx, rev)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id1, id2)
}

func TestGetOrCreateConcurrent(t *testing.T) {
	db := setupRepoDB(t)
	repo := newThreadRepo(t, db)
	key, err := pair.Normalize("alice", "bob", "")
	require.NoError(t, err)

	const n = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = make(map[string]struct{})
		creates int
		errs    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, created, err := repo.GetOrCreate(context.Background(), key)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			ids[id] = struct{}{}
			if created {
				creates++
			}
		}()
	}
	wg.Wait()
	require.Empty(t, errs)

	// 恰好一行，恰好一个调用方观察到"新建"
	assert.Len(t, ids, 1)
	assert.Equal(t, 1, creates)

	var cnt int64
	require.NoError(t, db.Model(&model.Conversation{}).Count(&cnt).Error)
	assert.EqualValues(t, 1, cnt)
}

func TestThreadGetNotFound(t *testing.T) {
	db := setupRepoDB(t)
	repo := newThreadRepo(t, db)

	_, err := repo.Get(context.Background(), "missing-id")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestThreadListAndTouch(t *testing.T) {
	db := setupRepoDB(t)
	repo := newThreadRepo(t, db)
	ctx := context.Background()

	k1, _ := pair.Normalize("alice", "bob", "")
	k2, _ := pair.Normalize("alice", "carol", "")
	id1, _, err := repo.GetOrCreate(ctx, k1)
	require.NoError(t, err)
	_, _, err = repo.GetOrCreate(ctx, k2)
	require.NoError(t, err)

	list, err := repo.ListFor(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = repo.ListFor(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id1, list[0].ID)

	at := time.Now().Add(time.Minute)
	require.NoError(t, repo.Touch(ctx, id1, at))
	rec, err := repo.Get(ctx, id1)
	require.NoError(t, err)
	require.NotNil(t, rec.LastMessageAt)
	assert.WithinDuration(t, at, *rec.LastMessageAt, time.Second)
}

func TestThreadSetActive(t *testing.T) {
	db := setupRepoDB(t)
	repo := newThreadRepo(t, db)
	ctx := context.Background()

	key, _ := pair.Normalize("alice", "bob", "")
	id, _, err := repo.GetOrCreate(ctx, key)
	require.NoError(t, err)

	require.NoError(t, repo.SetActive(ctx, id, false))
	rec, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, rec.IsActive)

	err = repo.SetActive(ctx, "missing-id", false)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func BenchmarkGetOrCreate(b *testing.B) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		b.Fatalf("open db: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&model.Conversation{}); err != nil {
		b.Fatalf("migrate: %v", err)
	}
	repo := NewThreadRepository(db, schema.NewResolver(db))
	ctx := context.Background()

	key, _ := pair.Normalize("alice", "bob", "")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := repo.GetOrCreate(ctx, key); err != nil {
			b.Fatalf("get or create: %v", err)
		}
	}
}
