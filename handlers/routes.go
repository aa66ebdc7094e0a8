package handlers

import (
	"net/http"

	"flyingbus/middleware"
	"flyingbus/models"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth       *AuthHandler
	Article    *ArticleHandler
	Moderation *ModerationHandler
	Category   *CategoryHandler
	Editor     *EditorHandler
	RPC        *RPCHandler
}

// RegisterRoutes mounts the API on router. rpcAPIKey guards the RPC endpoints
// when set.
func RegisterRoutes(router *gin.Engine, h Handlers, rpcAPIKey string) {
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, apikey")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
		}

		public := v1.Group("/public")
		{
			public.GET("/articles", h.Article.GetPublicArticles)
			public.GET("/articles/:id", h.Article.GetPublicArticle)
			public.GET("/search", h.Article.SearchArticles)
		}

		protected := v1.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/profile", h.Auth.GetProfile)

			sessions := protected.Group("/editor/sessions")
			{
				sessions.POST("", h.Editor.OpenSession)
				sessions.GET("/:id", h.Editor.GetSession)
				sessions.PATCH("/:id", h.Editor.UpdateSession)
				sessions.POST("/:id/save", h.Editor.SaveSession)
				sessions.POST("/:id/submit", h.Editor.SubmitSession)
				sessions.DELETE("/:id", h.Editor.CloseSession)
				sessions.GET("/:id/ws", h.Editor.StreamSession)
			}

			rpc := protected.Group("/rpc")
			rpc.Use(middleware.RequireAPIKey(rpcAPIKey))
			{
				rpc.POST("/upsert_draft", h.RPC.UpsertDraft)
				rpc.POST("/submit_for_review", h.RPC.SubmitForReview)
			}

			articles := protected.Group("/articles")
			{
				articles.GET("", h.Article.GetArticles)
				articles.GET("/:id", h.Article.GetArticle)
				articles.DELETE("/:id", h.Article.DeleteArticle)
				articles.GET("/:id/versions", h.Article.GetArticleVersions)
			}

			moderation := protected.Group("/moderation")
			moderation.Use(middleware.RequireRole(models.RoleEditor, models.RoleAdmin))
			{
				moderation.GET("/queue", h.Moderation.GetQueue)
				moderation.POST("/articles/:id/approve", h.Moderation.Approve)
				moderation.POST("/articles/:id/reject", h.Moderation.Reject)
			}

			categories := protected.Group("/categories")
			{
				categories.GET("", h.Category.GetCategories)
				categories.GET("/:id", h.Category.GetCategory)
				categories.POST("", middleware.RequireRole(models.RoleAdmin), h.Category.CreateCategory)
			}
		}
	}
}
