package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/harbdev/blogapi/config"
	"github.com/harbdev/blogapi/controllers"
	"github.com/harbdev/blogapi/middleware"
	"github.com/harbdev/blogapi/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.GinLogger())
	r.Use(utils.GinRecovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	userController := controllers.NewUserController(db)
	postController := controllers.NewPostController(db)
	commentController := controllers.NewCommentController(db)
	likeController := controllers.NewLikeController(db)

	authRequired := middleware.AuthRequired(db)
	rateLimited := middleware.RateLimitMiddleware()

	r.POST("/login", rateLimited, authController.Login)

	users := r.Group("/users")
	users.POST("/", rateLimited, userController.Register)
	users.GET("/", authRequired, userController.ListUsers)
	users.PUT("/", authRequired, userController.UpdateMe)
	users.PUT("/:username", authRequired, userController.UpdateUser)
	users.DELETE("/", rateLimited, userController.DeleteMe)
	users.DELETE("/:username", authRequired, userController.DeleteUser)

	posts := r.Group("/posts")
	posts.GET("/", postController.ListPosts)
	posts.GET("/:id", postController.GetPost)
	posts.POST("/", authRequired, postController.CreatePost)
	posts.PUT("/:id", authRequired, postController.UpdatePost)
	posts.DELETE("/:id", authRequired, postController.DeletePost)

	comments := r.Group("/comments")
	comments.POST("/posts/:post_id", authRequired, commentController.CreateComment)
	comments.GET("/posts/:post_id", commentController.ListPostComments)
	comments.GET("/:id", commentController.GetComment)
	comments.PUT("/:id", authRequired, commentController.UpdateComment)
	comments.DELETE("/:id", authRequired, commentController.DeleteComment)

	likes := r.Group("/likes")
	likes.POST("/posts/:id", authRequired, likeController.LikePost)
	likes.DELETE("/posts/:id", authRequired, likeController.UnlikePost)
	likes.GET("/posts/:id/users", authRequired, likeController.ListPostLikers)
	likes.POST("/comments/:id", authRequired, likeController.LikeComment)
	likes.DELETE("/comments/:id", authRequired, likeController.UnlikeComment)
	likes.GET("/comments/:id/users", likeController.ListCommentLikers)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
