package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"portfolio-backend/internal/models"
)

const AdminSubjectKey = "admin_subject"

// AdminMiddleware guards mutating routes with an HS256 bearer token signed
// with secret. An empty secret disables the check.
func AdminMiddleware(secret string) gin.HandlerFunc {
	if secret == "" {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, "missing authorization header", "")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abort(c, "invalid authorization header format", "")
			return
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			abort(c, "empty token", "")
			return
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil {
			var msg string
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				msg = "token has expired"
			case errors.Is(err, jwt.ErrTokenSignatureInvalid):
				msg = "token signature is invalid"
			case errors.Is(err, jwt.ErrTokenMalformed):
				msg = "token is malformed"
			default:
				msg = err.Error()
			}
			abort(c, "invalid token", msg)
			return
		}
		if !token.Valid {
			abort(c, "invalid token", "")
			return
		}

		if sub, err := claims.GetSubject(); err == nil && sub != "" {
			c.Set(AdminSubjectKey, sub)
		}
		c.Next()
	}
}

func abort(c *gin.Context, errMsg, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   errMsg,
		Message: msg,
	})
}
