package schema

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/rental-chat/internal/pair"
	"github.com/d60-Lab/rental-chat/pkg/apperr"
)

// fakeAdapter 只实现探测逻辑，其余方法不会被 Resolver 触及。
type fakeAdapter struct {
	name     string
	probeErr error
	probes   int
}

func (f *fakeAdapter) Name() string { return f.name }
func (f *fakeAdapter) Probe(ctx context.Context, db *gorm.DB) error {
	f.probes++
	return f.probeErr
}
func (f *fakeAdapter) Find(context.Context, *gorm.DB, pair.Key) (string, error) { return "", nil }
func (f *fakeAdapter) Create(context.Context, *gorm.DB, pair.Key) (string, error) {
	return "", nil
}
func (f *fakeAdapter) Get(context.Context, *gorm.DB, string) (Record, error) { return Record{}, nil }
func (f *fakeAdapter) List(context.Context, *gorm.DB, string) ([]Record, error) {
	return nil, nil
}
func (f *fakeAdapter) Touch(context.Context, *gorm.DB, string, time.Time) error { return nil }
func (f *fakeAdapter) SetActive(context.Context, *gorm.DB, string, bool) error  { return nil }

var (
	errMissingTable = errors.New("no such table: conversations")
	errDenied       = errors.New("permission denied for table conversations")
)

func TestResolveSkipsMissingLayouts(t *testing.T) {
	first := &fakeAdapter{name: "a", probeErr: errMissingTable}
	second := &fakeAdapter{name: "b", probeErr: errMissingTable}
	third := &fakeAdapter{name: "c"}
	fourth := &fakeAdapter{name: "d"}

	r := NewResolver(nil, first, second, third, fourth)
	ad, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "c", ad.Name())
	// 命中即停，后续候选不再探测
	assert.Equal(t, 0, fourth.probes)
}

func TestResolveCachesSelection(t *testing.T) {
	first := &fakeAdapter{name: "a", probeErr: errMissingTable}
	second := &fakeAdapter{name: "b"}

	r := NewResolver(nil, first, second)
	for i := 0; i < 5; i++ {
		ad, err := r.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "b", ad.Name())
	}
	// 选定之后不再重新探测
	assert.Equal(t, 1, first.probes)
	assert.Equal(t, 1, second.probes)
}

func TestResolveAbortsOnAccessDenied(t *testing.T) {
	first := &fakeAdapter{name: "a", probeErr: errDenied}
	second := &fakeAdapter{name: "b"}

	r := NewResolver(nil, first, second)
	_, err := r.Resolve(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeAccessDenied, apperr.CodeOf(err))
	// 权限错误立刻中止，不能顺延到下一个候选
	assert.Equal(t, 0, second.probes)
}

func TestResolveDoesNotCacheErrors(t *testing.T) {
	first := &fakeAdapter{name: "a", probeErr: errMissingTable}

	r := NewResolver(nil, first)
	_, err := r.Resolve(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNoSchemaMatched, apperr.CodeOf(err))

	// 表建出来之后，下一次调用应重新探测并成功
	first.probeErr = nil
	ad, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", ad.Name())
	assert.Equal(t, 2, first.probes)
}

func TestResolveNoSchemaMatched(t *testing.T) {
	r := NewResolver(nil,
		&fakeAdapter{name: "a", probeErr: errMissingTable},
		&fakeAdapter{name: "b", probeErr: errors.New("no such column: user1_id")},
	)
	_, err := r.Resolve(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNoSchemaMatched, apperr.CodeOf(err))
}

func TestResolveUnknownErrorIsTransient(t *testing.T) {
	r := NewResolver(nil, &fakeAdapter{name: "a", probeErr: errors.New("connection refused")})
	_, err := r.Resolve(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeTransient, apperr.CodeOf(err))
}

func TestClassifyProbe(t *testing.T) {
	assert.Equal(t, Usable, ClassifyProbe(nil))
	assert.Equal(t, SchemaMissing, ClassifyProbe(errors.New("no such table: x")))
	assert.Equal(t, SchemaMissing, ClassifyProbe(errors.New("no such column: y")))
	assert.Equal(t, AccessDenied, ClassifyProbe(errDenied))
	assert.Equal(t, Unknown, ClassifyProbe(errors.New("database is locked")))
}

func TestIsDuplicate(t *testing.T) {
	assert.False(t, IsDuplicate(nil))
	assert.True(t, IsDuplicate(errors.New("UNIQUE constraint failed: conversations.low_id")))
	assert.True(t, IsDuplicate(gorm.ErrDuplicatedKey))
	assert.False(t, IsDuplicate(errors.New("database is locked")))
}
