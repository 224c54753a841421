package utils

import (
	"github.com/gin-gonic/gin"
)

type UserClaims struct {
	UserID uint     `json:"user_id"`
	Roles  []string `json:"roles"`
}

// IsModerator reports whether the claims carry a role authorized to
// moderate comments.
func (u *UserClaims) IsModerator() bool {
	for _, role := range u.Roles {
		if role == "moderator" || role == "admin" {
			return true
		}
	}
	return false
}

type contextKey string

const UserContextKey contextKey = "user"

func GetUser(c *gin.Context) *UserClaims {
	user, exists := c.Get(string(UserContextKey))
	if !exists {
		return nil
	}
	if userClaims, ok := user.(*UserClaims); ok {
		return userClaims
	}
	return nil
}
