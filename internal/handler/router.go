package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bartek717/passionproject/internal/middleware"
)

// RouterDeps bundles what route registration needs.
type RouterDeps struct {
	Classes        *ClassHandler
	Chat           *ChatHandler
	Files          *FileHandler
	JWTSecret      []byte
	ChatRateWindow time.Duration
}

// RegisterRoutes wires the HTTP surface. Everything sits behind token
// auth; the auth provider itself lives outside this service.
func RegisterRoutes(group *gin.RouterGroup, deps RouterDeps) {
	authed := group.Group("", middleware.JWTAuth(deps.JWTSecret))

	authed.POST("/classes", deps.Classes.Create)
	authed.GET("/classes", deps.Classes.List)
	authed.DELETE("/classes/:id", deps.Classes.DeleteClass)
	authed.POST("/classes/:id/documents", deps.Classes.AddDocuments)
	authed.DELETE("/documents/:id", deps.Classes.DeleteDocument)

	authed.POST("/chat", middleware.RateLimit(deps.ChatRateWindow), deps.Chat.Answer)

	authed.GET("/files/*key", deps.Files.Download)
}
