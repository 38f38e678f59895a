package schema

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/rental-chat/pkg/apperr"
	"github.com/d60-Lab/rental-chat/pkg/logger"
)

// Resolver 进程级的布局选择器。
//
// 选择结果写一次读多次：冷启动阶段多个 worker 并发探测是允许的（探测廉价
// 且无副作用），谁先 CAS 成功谁生效，晚到者丢弃自己的结论复用已有选择。
// 错误不缓存——连接抖动或配置修复后下一次调用重新探测。
type Resolver struct {
	db         *gorm.DB
	candidates []Adapter
	selected   atomic.Pointer[Adapter]
}

func NewResolver(db *gorm.DB, candidates ...Adapter) *Resolver {
	if len(candidates) == 0 {
		candidates = Candidates()
	}
	return &Resolver{db: db, candidates: candidates}
}

// Resolve 返回已选布局；首次调用触发顺序探测。
func (r *Resolver) Resolve(ctx context.Context) (Adapter, error) {
	if a := r.selected.Load(); a != nil {
		return *a, nil
	}

	for _, c := range r.candidates {
		err := c.Probe(ctx, r.db)
		switch ClassifyProbe(err) {
		case Usable:
			if r.selected.CompareAndSwap(nil, &c) {
				logger.Info("conversation schema resolved", zap.String("layout", c.Name()))
				return c, nil
			}
			// 另一个 worker 先到，沿用它的选择
			return *r.selected.Load(), nil

		case SchemaMissing:
			logger.Debug("layout not present, trying next",
				zap.String("layout", c.Name()), zap.Error(err))
			continue

		case AccessDenied:
			// 表存在但无权读取 ≠ 表不存在。继续探测会掩盖真实的配置错误。
			return nil, apperr.Wrap(apperr.CodeAccessDenied,
				"storage rejected probe for layout "+c.Name(), err)

		default:
			return nil, apperr.Wrap(apperr.CodeTransient,
				"probe failed for layout "+c.Name(), err)
		}
	}
	return nil, apperr.New(apperr.CodeNoSchemaMatched, "no known conversation layout present")
}
