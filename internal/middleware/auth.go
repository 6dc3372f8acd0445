package middleware

import (
	"strconv"
	"strings"

	"municipal-planning-collab/auth"
	"municipal-planning-collab/internal/domain"
	"municipal-planning-collab/internal/errors"

	"github.com/gin-gonic/gin"
)

type UserProvider interface {
	GetUserByID(id uint64) (*domain.User, error)
}

type Auth struct {
	UserService    UserProvider
	InternalSecret string
}

// Identity resolves the caller from the X-User-Id header injected by the
// upstream gateway. Collaboration routes trust the gateway; they never see
// raw tokens.
func (m *Auth) Identity() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("X-User-Id")
		if header == "" {
			ctx.Error(errors.Unauthorized("Authentication required", nil))
			ctx.Abort()
			return
		}

		userID, err := strconv.ParseUint(header, 10, 64)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid user id", err))
			ctx.Abort()
			return
		}

		user, err := m.UserService.GetUserByID(userID)
		if err != nil {
			ctx.Error(errors.Unauthorized("Unknown user", err))
			ctx.Abort()
			return
		}

		if !user.IsActive {
			ctx.Error(errors.Unauthorized("User is not active", nil))
			ctx.Abort()
			return
		}

		ctx.Set("user_id", userID)
		ctx.Set("user", user)
		ctx.Next()
	}
}

// JWTAuth guards the account routes served directly to browsers
func (m *Auth) JWTAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		var token string
		tokenQuery := ctx.Query("token")

		if authHeader != "" {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		} else if tokenQuery != "" {
			token = tokenQuery
		} else {
			ctx.Error(errors.Unauthorized("Authorization is not found!", nil))
			ctx.Abort()
			return
		}

		parsedToken, err := auth.VerifyJWT(token)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		userID, tokenVersion, err := auth.GetDataFromToken(parsedToken)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		user, err := m.UserService.GetUserByID(userID)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid User ID!", err))
			ctx.Abort()
			return
		}

		// Check token version
		if user.TokenVersion != tokenVersion {
			ctx.Error(errors.Unauthorized("Invalid token version!", nil))
			ctx.Abort()
			return
		}

		ctx.Set("user_id", userID)
		ctx.Set("user", user)
		ctx.Set("jwt_token", token)
		ctx.Next()
	}
}

func (m *Auth) InternalAuthMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := strings.TrimPrefix(
			ctx.GetHeader("Authorization"),
			"Bearer ",
		)

		if token != m.InternalSecret {
			ctx.Error(errors.Unauthorized("Unauthorized internal call!", nil))
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}
