package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/clipstream/backend/controllers"
	"github.com/clipstream/backend/database"
	"github.com/clipstream/backend/middleware"
	"github.com/clipstream/backend/services"
	"github.com/clipstream/backend/store"
	"github.com/clipstream/backend/token"
	"github.com/clipstream/backend/utils"
)

func newUploader(ctx context.Context) (services.ImageUploader, error) {
	if os.Getenv("STORAGE_BACKEND") == "r2" {
		return utils.NewR2Uploader(ctx)
	}
	return utils.NewGCSUploader(ctx)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	ctx := context.Background()

	st := store.NewMongoStore(database.Open())
	if err := st.EnsureIndexes(ctx); err != nil {
		log.Fatal("ensure indexes: ", err)
	}

	uploader, err := newUploader(ctx)
	if err != nil {
		log.Fatal("storage client: ", err)
	}

	tm := token.NewManager(
		os.Getenv("JWT_SECRET"),
		os.Getenv("JWT_REFRESH_SECRET"),
		utils.AccessTTL(),
		utils.RefreshTTL(),
	)

	sessions := services.NewSessionService(st, tm, uploader)
	users := services.NewUserService(st, uploader)
	v := utils.NewImageValidator()

	r := gin.New()

	origins := os.Getenv("ALLOWED_ORIGINS")
	allowedOrigins := map[string]bool{}
	for _, origin := range strings.Split(origins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}
	log.Printf("Allowed origins: %v", allowedOrigins)
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	api := r.Group("/api/v1/users")
	{
		api.POST("/register", controllers.Register(sessions, v))
		api.POST("/login", controllers.Login(sessions))
		api.POST("/refresh-token", controllers.RefreshToken(sessions))
		api.GET("/c/:username", middleware.OptionalAuth(tm), controllers.GetChannelProfile(users))

		authed := api.Group("")
		authed.Use(middleware.RequireAuth(tm))
		{
			authed.POST("/logout", controllers.Logout(sessions))
			authed.POST("/change-password", controllers.ChangePassword(sessions))
			authed.GET("/me", controllers.GetCurrentUser(users))
			authed.PATCH("/me", controllers.UpdateAccount(users))
			authed.PATCH("/me/avatar", controllers.UpdateAvatar(users, v))
			authed.PATCH("/me/cover-image", controllers.UpdateCoverImage(users, v))
			authed.POST("/c/:username/subscribe", controllers.ToggleSubscription(users))
		}
	}

	// Server listens on 0.0.0.0:8080 unless PORT is set
	r.Run()
}
