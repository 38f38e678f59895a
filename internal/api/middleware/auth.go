package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/d60-Lab/rental-chat/pkg/response"
)

// ContextParticipant gin context 里的参与者 id 键。
const ContextParticipant = "participant"

// Auth 校验身份服务签发的 Bearer JWT，把 subject（参与者 id）放进 context。
// 身份签发不归本服务管，验签通过即信任。
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(c, "missing bearer token")
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			response.Unauthorized(c, "invalid token")
			return
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			response.Unauthorized(c, "token has no subject")
			return
		}
		c.Set(ContextParticipant, sub)
		c.Next()
	}
}

// ParticipantFrom 取当前请求的参与者 id；Auth 中间件之后必然存在。
func ParticipantFrom(c *gin.Context) string {
	return c.GetString(ContextParticipant)
}
