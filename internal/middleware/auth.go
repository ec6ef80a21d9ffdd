package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"go-gin-event-booking/internal/model"
	apperrors "go-gin-event-booking/pkg/app_errors"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const actorKey = "actor"

// Claims access token 內容：sub 為使用者 id，role 為 user 或 admin
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuth 驗證 HS256 Bearer token，並把 Actor 放進 gin context
func JWTAuth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			abort(c, http.StatusUnauthorized, apperrors.KindUnauthorized, "missing bearer token")
			return
		}
		raw := strings.TrimPrefix(auth, "Bearer ")

		var claims Claims
		tok, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil || !tok.Valid {
			abort(c, http.StatusUnauthorized, apperrors.KindUnauthorized, "invalid token")
			return
		}

		actor, ok := claims.actor()
		if !ok {
			abort(c, http.StatusUnauthorized, apperrors.KindUnauthorized, "invalid claims")
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

func (cl Claims) actor() (model.Actor, bool) {
	userID, err := strconv.Atoi(cl.Subject)
	if err != nil || userID <= 0 {
		return model.Actor{}, false
	}
	role := model.Role(cl.Role)
	switch role {
	case "":
		role = model.RoleUser
	case model.RoleUser, model.RoleAdmin:
	default:
		return model.Actor{}, false
	}
	return model.Actor{UserID: userID, Role: role}, true
}

// RequireRole 必須放在 JWTAuth 之後
func RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, apperrors.KindUnauthorized, "authentication required")
			return
		}
		if actor.Role != role {
			abort(c, http.StatusForbidden, apperrors.KindForbidden, apperrors.ErrForbidden.Error())
			return
		}
		c.Next()
	}
}

func ActorFrom(c *gin.Context) (model.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}

func abort(c *gin.Context, status int, kind apperrors.Kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    kind,
			"message": message,
		},
	})
}
