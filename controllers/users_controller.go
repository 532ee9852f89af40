package controllers

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/clipstream/backend/dto"
	"github.com/clipstream/backend/models"
	"github.com/clipstream/backend/errs"
	"github.com/clipstream/backend/services"
	"github.com/clipstream/backend/utils"
	"github.com/gin-gonic/gin"
)

// GET /api/v1/users/me
func GetCurrentUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := authedUserID(c)
		if !ok {
			return
		}
		user, err := u.CurrentUser(c.Request.Context(), userID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// PATCH /api/v1/users/me
func UpdateAccount(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.UpdateAccountDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			fail(c, errs.Validation(err.Error()))
			return
		}

		userID, ok := authedUserID(c)
		if !ok {
			return
		}
		user, err := u.UpdateAccount(c.Request.Context(), userID, body.FullName, body.Email)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// PATCH /api/v1/users/me/avatar
func UpdateAvatar(u *services.UserService, v *utils.FileValidator) gin.HandlerFunc {
	return updateImage(v, "avatar", u.UpdateAvatar)
}

// PATCH /api/v1/users/me/cover-image
func UpdateCoverImage(u *services.UserService, v *utils.FileValidator) gin.HandlerFunc {
	return updateImage(v, "coverImage", u.UpdateCoverImage)
}

func updateImage(
	v *utils.FileValidator,
	field string,
	update func(context.Context, string, *multipart.FileHeader) (*models.User, error),
) gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile(field)
		if err != nil {
			fail(c, errs.Validation(field+" file is missing"))
			return
		}
		if _, err := v.ValidateFile(fh); err != nil {
			fail(c, errs.Validation(field+": "+err.Error()))
			return
		}

		userID, ok := authedUserID(c)
		if !ok {
			return
		}
		user, err := update(c.Request.Context(), userID, fh)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}
