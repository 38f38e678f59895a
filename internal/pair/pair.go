package pair

import (
	"strings"

	"github.com/d60-Lab/rental-chat/pkg/apperr"
)

// Key 参与者对的规范键：low <= high（字节序），同一对参与者无论谁先发起得到同一个键。
// Scope 可选（如挂接的房源 id），用于区分同一对参与者在不同房源下的会话。
type Key struct {
	Low   string
	High  string
	Scope string
}

// Normalize 归一化参与者对。纯函数，唯一失败分支是自会话。
func Normalize(a, b, scope string) (Key, error) {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return Key{}, apperr.New(apperr.CodeInvalidArgument, "participant id must not be empty")
	}
	if a == b {
		return Key{}, apperr.New(apperr.CodeInvalidArgument, "cannot open a conversation with yourself")
	}
	if a > b {
		a, b = b, a
	}
	return Key{Low: a, High: b, Scope: strings.TrimSpace(scope)}, nil
}

// Contains 判断参与者是否属于该键。
func (k Key) Contains(p string) bool { return p == k.Low || p == k.High }

// Other 返回对端参与者；p 不属于该键时返回空串。
func (k Key) Other(p string) string {
	switch p {
	case k.Low:
		return k.High
	case k.High:
		return k.Low
	default:
		return ""
	}
}
