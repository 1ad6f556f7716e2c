package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"webchat/config"
	"webchat/controllers"
	"webchat/middlewares"
	"webchat/services"
)

// RegisterRoutes wires every HTTP and WebSocket endpoint.
func RegisterRoutes(hub *services.Hub, store services.MessageStore, dir services.UserDirectory) *gin.Engine {
	r := gin.Default()

	corsConfig := cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}
	r.Use(cors.New(corsConfig))

	ws := controllers.NewWSController(hub)
	messages := controllers.NewMessageController(store, dir)
	friends := controllers.NewFriendsController(hub)

	r.GET("/ws", ws.Handle)
	r.Static("/uploads", config.App.UploadDir)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
		auth.POST("/logout", controllers.Logout)

		auth.Use(middlewares.TokenAuthMiddleware())
		auth.GET("/check", controllers.Check)
		auth.POST("/avatar", controllers.SetAvatar)
		auth.POST("/avatar/upload", controllers.UploadAvatar)
	}

	protected := api.Group("")
	protected.Use(middlewares.TokenAuthMiddleware())
	{
		protected.GET("/messages/:conversationId", messages.GetMessages)
		protected.POST("/messages/upload", messages.Upload)

		protected.GET("/friends/search", friends.Search)
		protected.POST("/friends/request", friends.SendRequest)
		protected.GET("/friends/requests", friends.ListRequests)
		protected.POST("/friends/accept/:id", friends.Accept)
		protected.DELETE("/friends/request/:id", friends.DeleteRequest)
		protected.GET("/friends/list", friends.List)
		protected.DELETE("/friends/:friendId", friends.Remove)

		protected.POST("/groups/create", controllers.CreateGroup)
		protected.GET("/groups/list", controllers.ListGroups)
		protected.POST("/groups/:groupId/members", controllers.AddGroupMember)
		protected.DELETE("/groups/:groupId/members/:userId", controllers.RemoveGroupMember)
		protected.DELETE("/groups/:groupId/leave", controllers.LeaveGroup)
	}

	return r
}
