package controllers

import (
	"log"
	"net/http"

	"github.com/clipstream/backend/errs"
	"github.com/gin-gonic/gin"
)

// fail writes the uniform error body. Internal errors are logged with their
// cause; the client only sees the generic message.
func fail(c *gin.Context, err error) {
	status := errs.StatusOf(err)
	if status == http.StatusInternalServerError {
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"statusCode": status, "message": err.Error()})
}

func authedUserID(c *gin.Context) (string, bool) {
	v, ok := c.Get("userID")
	if !ok {
		fail(c, errs.Auth("missing auth context"))
		return "", false
	}
	id, ok := v.(string)
	if !ok || id == "" {
		fail(c, errs.Auth("invalid auth context"))
		return "", false
	}
	return id, true
}
