package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageOrderingAndLast(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	for _, body := range []string{"first", "second", "third"} {
		_, err := repo.Append(ctx, "conv-1", "alice", body)
		require.NoError(t, err)
	}
	// 其他会话的消息不串场
	_, err := repo.Append(ctx, "conv-2", "alice", "elsewhere")
	require.NoError(t, err)

	msgs, err := repo.List(ctx, "conv-1", 0, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Body)
	assert.Equal(t, "third", msgs[2].Body)
	// 同秒落库靠自增 id 决胜
	assert.Less(t, msgs[0].ID, msgs[1].ID)

	last, err := repo.Last(ctx, "conv-1")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "third", last.Body)

	last, err = repo.Last(ctx, "conv-empty")
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestUnreadCountPerViewer(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Append(ctx, "conv-1", "alice", "hi")
		require.NoError(t, err)
	}
	_, err := repo.Append(ctx, "conv-1", "bob", "hello")
	require.NoError(t, err)

	// 未读 = 对方发的且未读；自己发的不算
	cnt, err := repo.CountUnread(ctx, "conv-1", "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 3, cnt)

	cnt, err = repo.CountUnread(ctx, "conv-1", "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 1, cnt)
}

func TestMarkReadMonotonic(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Append(ctx, "conv-1", "alice", "hi")
		require.NoError(t, err)
	}

	n, err := repo.MarkRead(ctx, "conv-1", "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	// 重复调用安全，且不会把已读翻回未读
	n, err = repo.MarkRead(ctx, "conv-1", "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	cnt, err := repo.CountUnread(ctx, "conv-1", "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 0, cnt)

	// bob 标记已读不影响 alice 视角（alice 没有未读，因为消息都是她发的）
	cnt, err = repo.CountUnread(ctx, "conv-1", "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 0, cnt)
}

func TestLikeRepositoryIdempotent(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "alice", "bob"))
	require.NoError(t, repo.Create(ctx, "alice", "bob"))

	ok, err := repo.Exists(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, ok)

	// 方向性：bob 没点过 alice
	ok, err = repo.Exists(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Delete(ctx, "alice", "bob"))
	ok, err = repo.Exists(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}
