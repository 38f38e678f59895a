package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/rental-chat/internal/pair"
	"github.com/d60-Lab/rental-chat/internal/schema"
	"github.com/d60-Lab/rental-chat/pkg/apperr"
)

// ThreadRepository 会话存取，建立在已探测的物理布局之上。
// GetOrCreate 并发安全：同一规范键的 N 个并发调用恰好落一行，
// 至多一个调用方观察到 created=true。
type ThreadRepository interface {
	GetOrCreate(ctx context.Context, key pair.Key) (id string, created bool, err error)
	// GetOrCreateIn 在调用方提供的会话（通常是事务）里执行同样的逻辑，
	// 供 Match 开通流程复用同一条幂等路径。
	GetOrCreateIn(ctx context.Context, db *gorm.DB, key pair.Key) (id string, created bool, err error)
	Get(ctx context.Context, id string) (schema.Record, error)
	ListFor(ctx context.Context, participant string) ([]schema.Record, error)
	Touch(ctx context.Context, id string, at time.Time) error
	SetActive(ctx context.Context, id string, active bool) error
}

type threadRepository struct {
	db       *gorm.DB
	resolver *schema.Resolver
}

func NewThreadRepository(db *gorm.DB, resolver *schema.Resolver) ThreadRepository {
	return &threadRepository{db: db, resolver: resolver}
}

func (r *threadRepository) GetOrCreate(ctx context.Context, key pair.Key) (string, bool, error) {
	return r.GetOrCreateIn(ctx, r.db, key)
}

func (r *threadRepository) GetOrCreateIn(ctx context.Context, db *gorm.DB, key pair.Key) (string, bool, error) {
	ad, err := r.resolver.Resolve(ctx)
	if err != nil {
		return "", false, err
	}

	// 快路径回读只是省一次无效插入；唯一真相是存储层约束
	if id, err := ad.Find(ctx, db, key); err != nil {
		return "", false, err
	} else if id != "" {
		return id, false, nil
	}

	id, err := ad.Create(ctx, db, key)
	if err == nil {
		return id, true, nil
	}
	if !apperr.Is(err, apperr.CodeConflict) {
		return "", false, err
	}

	// 撞约束说明并发方已建好，回读既有行
	id, err = ad.Find(ctx, db, key)
	if err != nil {
		return "", false, err
	}
	if id == "" {
		return "", false, apperr.New(apperr.CodeTransient, "conversation vanished after conflict, retry")
	}
	return id, false, nil
}

func (r *threadRepository) Get(ctx context.Context, id string) (schema.Record, error) {
	ad, err := r.resolver.Resolve(ctx)
	if err != nil {
		return schema.Record{}, err
	}
	return ad.Get(ctx, r.db, id)
}

func (r *threadRepository) ListFor(ctx context.Context, participant string) ([]schema.Record, error) {
	ad, err := r.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return ad.List(ctx, r.db, participant)
}

func (r *threadRepository) Touch(ctx context.Context, id string, at time.Time) error {
	ad, err := r.resolver.Resolve(ctx)
	if err != nil {
		return err
	}
	return ad.Touch(ctx, r.db, id, at)
}

func (r *threadRepository) SetActive(ctx context.Context, id string, active bool) error {
	ad, err := r.resolver.Resolve(ctx)
	if err != nil {
		return err
	}
	return ad.SetActive(ctx, r.db, id, active)
}
