package controllers

import (
	"net/http"

	"facility-crm/pkg/utils"
	appwebsocket "facility-crm/pkg/websocket"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type WebSocketController struct {
	hub      *appwebsocket.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketController: allowedOrigins те же, что и для CORS, "*" пускает любой источник.
func NewWebSocketController(hub *appwebsocket.Hub, allowedOrigins []string, logger *zap.Logger) *WebSocketController {
	origins := make(map[string]struct{}, len(allowedOrigins))
	anyOrigin := false
	for _, o := range allowedOrigins {
		if o == "*" {
			anyOrigin = true
		}
		origins[o] = struct{}{}
	}
	return &WebSocketController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || anyOrigin {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
		logger: logger,
	}
}

// ServeWs открывает поток ленты событий. Сотрудник уже определён AuthMiddleware.
func (c *WebSocketController) ServeWs(ctx echo.Context) error {
	employeeID, err := utils.GetEmployeeIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	conn, err := c.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		c.logger.Error("WebSocket: не удалось установить соединение", zap.Error(err))
		return nil
	}

	client := appwebsocket.NewClient(c.hub, conn, employeeID)
	if !c.hub.Attach(client) {
		_ = conn.Close()
		return nil
	}
	go client.WritePump()
	go client.ReadPump()

	c.logger.Info("WebSocket: клиент подключен", zap.Uint64("employee_id", employeeID))
	return nil
}
