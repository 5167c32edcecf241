package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/langchou/smartmechanic/internal/service"
	"github.com/langchou/smartmechanic/pkg/ws"
)

// Handler HTTP 处理器
type Handler struct {
	logger   *zap.Logger
	session  *service.SessionService
	wsHub    *ws.Hub
	upgrader websocket.Upgrader
}

// NewHandler 创建处理器
func NewHandler(
	logger *zap.Logger,
	session *service.SessionService,
	wsHub *ws.Hub,
) *Handler {
	return &Handler{
		logger:  logger,
		session: session,
		wsHub:   wsHub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 客户端为本机 WebView，允许所有来源
			},
		},
	}
}

// RegisterRoutes 注册路由，aiLimit 作用于调用诊断模型的接口
func (h *Handler) RegisterRoutes(r *gin.Engine, aiLimit ...gin.HandlerFunc) {
	// API 路由
	api := r.Group("/api")
	{
		// 会话与导航
		api.GET("/session", h.GetSession)
		api.POST("/intro/finish", h.FinishIntro)
		api.POST("/navigate", h.Navigate)
		api.POST("/search", h.Search)
		api.POST("/voice", h.Voice)
		api.PUT("/language", h.SetLanguage)
		api.POST("/cookies/accept", h.AcceptCookies)

		// 车辆
		api.GET("/brands", h.ListBrands)
		api.PUT("/vehicle", h.SelectVehicle)

		// 账户
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.POST("/auth/social", h.SocialLogin)
		api.POST("/auth/logout", h.Logout)

		// 诊断与对话
		ai := api.Group("", aiLimit...)
		ai.POST("/diagnosis/code", h.DiagnoseCode)
		ai.POST("/diagnosis/image", h.DiagnoseImage)
		ai.POST("/chat", h.SendChat)
		api.GET("/diagnosis", h.GetDiagnosis)
		api.GET("/chat", h.GetChat)

		// 积分与 Pro
		api.GET("/rewards/gift", h.GetGiftStatus)
		api.POST("/rewards/gift", h.ClaimGift)
		api.POST("/rewards/share", h.Share)
		api.POST("/pro/redeem", h.RedeemPro)
		api.POST("/pro/purchase", h.PurchasePro)

		// 保养记录
		api.GET("/maintenance", h.ListMaintenance)
		api.POST("/maintenance", h.AddMaintenance)
		api.DELETE("/maintenance/:id", h.DeleteMaintenance)
		api.GET("/maintenance/summary", h.MaintenanceSummary)
		api.GET("/maintenance/labor-rate", h.GetLaborRate)
		api.PUT("/maintenance/labor-rate", h.SetLaborRate)

		// 传感器
		api.GET("/sensors", h.ListSensors)
		api.GET("/sensors/:id", h.GetSensor)

		// OBD
		api.GET("/obd", h.GetOBD)
		api.POST("/obd/connect", h.ConnectOBD)
		api.POST("/obd/disconnect", h.DisconnectOBD)
	}

	// WebSocket
	r.GET("/ws", h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)
}

// HandleWebSocket WebSocket 处理
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	h.wsHub.Serve(conn)
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"ws_clients": h.wsHub.ClientCount(),
	})
}
