package middleware

import (
	"net/http"
	"os"
	"strings"

	"github.com/legacykeep/interaction-service/utils"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware extracts the acting user from the bearer token issued by
// the identity service. This service never issues tokens itself.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		bearerToken := strings.Split(authHeader, " ")
		if len(bearerToken) != 2 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			c.Abort()
			return
		}

		token := bearerToken[1]
		claims := jwt.MapClaims{}
		parsedToken, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(os.Getenv("JWT_SECRET")), nil
		})

		if err != nil || !parsedToken.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		userID, ok := claims["user_id"].(float64)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		var userRoles []string
		if roles, ok := claims["roles"].([]interface{}); ok {
			for _, role := range roles {
				if name, ok := role.(string); ok {
					userRoles = append(userRoles, name)
				}
			}
		}

		userClaims := &utils.UserClaims{
			UserID: uint(userID),
			Roles:  userRoles,
		}

		c.Set(string(utils.UserContextKey), userClaims)

		c.Next()
	}
}
