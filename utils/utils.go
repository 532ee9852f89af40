package utils

import (
	"errors"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPassword(hash string, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

var usernameInvalid = regexp.MustCompile(`[^a-z0-9._-]+`)

// NormalizeUsername lowercases, strips accent marks and anything outside
// [a-z0-9._-]. Uniqueness checks always run on the normalized form.
func NormalizeUsername(name string) string {
	t := norm.NFD.String(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range t {
		if unicode.Is(unicode.Mn, r) {
			continue // remove accent marks
		}
		b.WriteRune(r)
	}
	s := strings.ToLower(b.String())
	return usernameInvalid.ReplaceAllString(s, "")
}

func IsDuplicateKey(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 || e.Code == 11001 {
				return true
			}
		}
	}

	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code == 11000 || e.Code == 11001 {
				return true
			}
		}
	}

	// Fallback
	return strings.Contains(err.Error(), "E11000 duplicate key error")
}

func AccessTTL() time.Duration {
	minStr := os.Getenv("ACCESS_TOKEN_TTL_MINUTES")
	min, _ := strconv.Atoi(minStr)
	if min <= 0 {
		min = 15
	}
	return time.Duration(min) * time.Minute
}

func RefreshTTL() time.Duration {
	dStr := os.Getenv("REFRESH_TOKEN_TTL_DAYS")
	days, _ := strconv.Atoi(dStr)
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

// SetAuthCookies delivers both tokens as HttpOnly cookies in addition to the
// JSON body, so browser and non-browser clients each have a path.
func SetAuthCookies(c *gin.Context, accessToken, refreshToken string) {
	accessTTL, refreshTTL := AccessTTL(), RefreshTTL()
	secure := os.Getenv("COOKIE_SECURE") != "false"
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     "accessToken",
		Value:    accessToken,
		Path:     "/",
		MaxAge:   int(accessTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteNoneMode, // for cross-site
	})
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     "refreshToken",
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   int(refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteNoneMode,
	})
}

func ClearAuthCookies(c *gin.Context) {
	secure := os.Getenv("COOKIE_SECURE") != "false"
	domain := os.Getenv("COOKIE_DOMAIN")

	c.SetCookie("accessToken", "", -1, "/", domain, secure, true)
	c.SetCookie("refreshToken", "", -1, "/", domain, secure, true)
}

func ParseIntDefault(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
