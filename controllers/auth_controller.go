package controllers

import (
	"log"
	"net/http"
	"strings"

	"github.com/clipstream/backend/dto"
	"github.com/clipstream/backend/errs"
	"github.com/clipstream/backend/services"
	"github.com/clipstream/backend/utils"
	"github.com/gin-gonic/gin"
)

// POST /api/v1/users/register
func Register(s *services.SessionService, v *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.RegisterUserDTO
		if err := c.ShouldBind(&body); err != nil {
			fail(c, errs.Validation(err.Error()))
			return
		}

		avatar, err := c.FormFile("avatar")
		if err != nil {
			fail(c, errs.Validation("avatar image is required"))
			return
		}
		if _, err := v.ValidateFile(avatar); err != nil {
			fail(c, errs.Validation("avatar: "+err.Error()))
			return
		}

		cover, err := c.FormFile("coverImage")
		if err != nil {
			cover = nil
		} else if _, err := v.ValidateFile(cover); err != nil {
			// optional image, drop it instead of aborting registration
			log.Printf("rejecting cover image: %v", err)
			cover = nil
		}

		user, pair, err := s.Register(c.Request.Context(), services.RegisterInput{
			FullName:   body.FullName,
			Username:   body.Username,
			Email:      body.Email,
			Password:   body.Password,
			Avatar:     avatar,
			CoverImage: cover,
		})
		if err != nil {
			fail(c, err)
			return
		}

		utils.SetAuthCookies(c, pair.AccessToken, pair.RefreshToken)
		c.JSON(http.StatusCreated, gin.H{
			"user":         user,
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
		})
	}
}

// POST /api/v1/users/login
func Login(s *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			fail(c, errs.Validation(err.Error()))
			return
		}

		user, pair, err := s.Login(c.Request.Context(), body.Username, body.Email, body.Password)
		if err != nil {
			fail(c, err)
			return
		}

		utils.SetAuthCookies(c, pair.AccessToken, pair.RefreshToken)
		c.JSON(http.StatusOK, gin.H{
			"user":         user,
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
		})
	}
}

// POST /api/v1/users/logout
func Logout(s *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := authedUserID(c)
		if !ok {
			return
		}
		if err := s.Logout(c.Request.Context(), userID); err != nil {
			fail(c, err)
			return
		}
		utils.ClearAuthCookies(c)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// POST /api/v1/users/refresh-token
// The refresh token arrives via the cookie or a bearer header.
func RefreshToken(s *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented, _ := c.Cookie("refreshToken")
		if presented == "" {
			header := c.GetHeader("Authorization")
			if strings.HasPrefix(header, "Bearer ") {
				presented = strings.TrimPrefix(header, "Bearer ")
			}
		}
		if presented == "" {
			fail(c, errs.Auth("missing refresh token"))
			return
		}

		pair, err := s.Refresh(c.Request.Context(), presented)
		if err != nil {
			fail(c, err)
			return
		}

		utils.SetAuthCookies(c, pair.AccessToken, pair.RefreshToken)
		c.JSON(http.StatusOK, gin.H{
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
		})
	}
}

// POST /api/v1/users/change-password
func ChangePassword(s *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.ChangePasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			fail(c, errs.Validation(err.Error()))
			return
		}

		userID, ok := authedUserID(c)
		if !ok {
			return
		}
		if err := s.ChangePassword(c.Request.Context(), userID, body.OldPassword, body.NewPassword); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
