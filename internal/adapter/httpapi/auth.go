package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/studyhall-app/studyhall/internal/usecase"
)

const ctxUserID = "auth.user_id"

// authClaims is the token payload the API trusts: the registered subject
// identifies the user, the nickname is display metadata kept in sync.
type authClaims struct {
	Nickname string `json:"nickname"`
	jwt.RegisteredClaims
}

// AuthConfig carries the token validation parameters. Issuer and audience
// checks are skipped when left empty.
type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// Auth validates the bearer token, upserts the caller into the local user
// table, and stores the resolved user id on the request context. Requests
// without a valid token never reach the handlers behind it.
func Auth(cfg AuthConfig, users usecase.UserUsecase, logger *logrus.Logger) gin.HandlerFunc {
	secret := []byte(cfg.Secret)
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims := &authClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
			return secret, nil
		}, opts...)
		if err != nil || !parsed.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has no subject"})
			return
		}

		user, err := users.Sync(c.Request.Context(), claims.Subject, claims.Nickname)
		if err != nil {
			logger.WithError(err).WithField("subject", claims.Subject).Error("Failed to sync user")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve user"})
			return
		}

		c.Set(ctxUserID, user.ID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) int64 {
	v, _ := c.Get(ctxUserID)
	id, _ := v.(int64)
	return id
}
