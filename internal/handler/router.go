package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers 全部 HTTP 处理器
type Handlers struct {
	Chat       *ChatHandler
	Classifier *ClassifierHandler
	API        *APIHandler
	Grading    *GradingHandler
	WebSocket  *WebSocketHandler
}

// RegisterRoutes 注册路由，所有接口同时挂在根路径和 /api 下
func RegisterRoutes(r *gin.Engine, h Handlers) {
	for _, g := range []gin.IRoutes{r, r.Group("/api")} {
		g.GET("/chat", h.Chat.Chat)
		g.POST("/chat", h.Chat.Chat)

		g.GET("/health", h.API.Health)
		g.GET("/db/test", h.API.DBTest)
		g.GET("/db/materials", h.API.Materials)
		g.GET("/db/assignments", h.API.Assignments)
		g.GET("/db/statistics", h.API.Statistics)
		g.GET("/db/chat-history", h.API.ChatHistory)

		g.GET("/analyze", h.Classifier.Analyze)
		g.POST("/analyze", h.Classifier.Analyze)
		g.GET("/debug", h.Classifier.Debug)
		g.POST("/debug", h.Classifier.Debug)

		if h.Grading != nil {
			g.POST("/grade", h.Grading.Grade)
			g.GET("/grade/batch", h.Grading.GradeBatch)
			g.POST("/grade/batch", h.Grading.GradeBatch)
			g.POST("/evaluate", h.Grading.Evaluate)
			g.GET("/evaluate/batch", h.Grading.EvaluateBatch)
			g.POST("/evaluate/batch", h.Grading.EvaluateBatch)
		}

		if h.WebSocket != nil {
			g.GET("/ws", h.WebSocket.HandleWebSocket)
		}
	}
}
