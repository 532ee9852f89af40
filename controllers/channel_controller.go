package controllers

import (
	"net/http"

	"github.com/clipstream/backend/services"
	"github.com/gin-gonic/gin"
)

// GET /api/v1/users/c/:username
// Auth is optional: a known viewer gets the isSubscribed flag.
func GetChannelProfile(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewerID := c.GetString("userID")
		profile, err := u.ChannelProfile(c.Request.Context(), c.Param("username"), viewerID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"channel": profile})
	}
}

// POST /api/v1/users/c/:username/subscribe
func ToggleSubscription(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := authedUserID(c)
		if !ok {
			return
		}
		subscribed, err := u.ToggleSubscription(c.Request.Context(), userID, c.Param("username"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"subscribed": subscribed})
	}
}
