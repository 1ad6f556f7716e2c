package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"webchat/logger"
	"webchat/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSController upgrades HTTP requests into hub connections. The connection
// is anonymous until the client sends user_online.
type WSController struct {
	Hub *services.Hub
}

func NewWSController(hub *services.Hub) *WSController {
	return &WSController{Hub: hub}
}

func (wc *WSController) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Errorf("websocket upgrade: %v", err)
		return
	}

	client := services.NewClient(wc.Hub, conn)
	wc.Hub.Attach(client)
	go client.Serve()
}
