package gateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// RegisterRoutes 注册网关HTTP路由
func RegisterRoutes(r gin.IRouter, server *Server) {
	r.GET(RouteWebSocket, func(c *gin.Context) {
		server.HandleWebSocket(c.Writer, c.Request)
	})

	r.GET(RouteWebSocketStats, func(c *gin.Context) {
		c.JSON(http.StatusOK, server.Stats())
	})

	r.GET(RouteWebSocketHealth, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"uptime":      time.Since(startTime).String(),
			"connections": server.connCount(),
		})
	})
}
