package server

import (
	"time"

	"github.com/fekuna/stockinator-service/internal/auth"
	businessH "github.com/fekuna/stockinator-service/internal/business/handler"
	dashboardH "github.com/fekuna/stockinator-service/internal/dashboard/handler"
	"github.com/fekuna/stockinator-service/internal/httputil"
	inviteH "github.com/fekuna/stockinator-service/internal/invite/handler"
	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/fekuna/stockinator-service/internal/metrics"
	"github.com/fekuna/stockinator-service/internal/middleware"
	productH "github.com/fekuna/stockinator-service/internal/product/handler"
	profileH "github.com/fekuna/stockinator-service/internal/profile/handler"
	"github.com/fekuna/stockinator-service/internal/realtime"
	transactionH "github.com/fekuna/stockinator-service/internal/transaction/handler"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Profile     *profileH.ProfileHandler
	Business    *businessH.BusinessHandler
	Product     *productH.ProductHandler
	Transaction *transactionH.TransactionHandler
	Invite      *inviteH.InviteHandler
	Dashboard   *dashboardH.DashboardHandler
	Realtime    *realtime.WSHandler
}

type RouterConfig struct {
	Handlers       Handlers
	Authenticate   gin.HandlerFunc
	SalesLimiter   *middleware.RateLimiter
	Status         gin.HandlerFunc
	AllowedOrigins []string
	Logger         logger.ZapLogger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	httputil.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(metrics.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "Accept-Language", transactionH.IdempotencyHeader},
		ExposeHeaders:    []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	api := r.Group("/api")
	api.GET("/status", cfg.Status)

	h := cfg.Handlers
	member := auth.RequireMember(httputil.Error)
	owner := auth.RequireOwner(httputil.Error)

	authed := api.Group("", cfg.Authenticate)
	{
		authed.GET("/profile", h.Profile.GetProfile)
		authed.PUT("/profile", h.Profile.UpdateProfile)

		authed.POST("/business", h.Business.CreateBusiness)
		authed.GET("/business", member, h.Business.GetBusiness)
		authed.PUT("/business", owner, h.Business.UpdateBusiness)
		authed.DELETE("/business", owner, h.Business.DeleteBusiness)
		authed.GET("/business/members", member, h.Business.ListMembers)
		authed.DELETE("/business/vendors/:id", owner, h.Business.RemoveVendor)

		authed.GET("/products", member, h.Product.ListProducts)
		authed.GET("/products/low-stock", member, h.Product.ListLowStock)
		authed.GET("/products/:id", member, h.Product.GetProduct)
		authed.POST("/products", owner, h.Product.CreateProduct)
		authed.PUT("/products/:id", owner, h.Product.UpdateProduct)
		authed.DELETE("/products/:id", owner, h.Product.DeleteProduct)

		sales := []gin.HandlerFunc{member}
		if cfg.SalesLimiter != nil {
			sales = append(sales, cfg.SalesLimiter.Handler())
		}
		authed.POST("/transactions", append(sales, h.Transaction.CreateTransaction)...)
		authed.GET("/transactions", member, h.Transaction.ListTransactions)
		authed.GET("/transactions/:id", member, h.Transaction.GetTransaction)
		authed.DELETE("/transactions/:id", owner, h.Transaction.DeleteTransaction)

		authed.GET("/invites", owner, h.Invite.ListInvites)
		authed.POST("/invites", owner, h.Invite.CreateInvite)
		authed.DELETE("/invites/:id", owner, h.Invite.CancelInvite)
		authed.POST("/invites/:id/accept", h.Invite.AcceptInvite)
		authed.POST("/invites/:id/decline", h.Invite.DeclineInvite)
		authed.GET("/notifications", h.Invite.ListNotifications)

		authed.GET("/dashboard", owner, h.Dashboard.GetDashboard)
		authed.GET("/dashboard/report", owner, h.Dashboard.Report)

		authed.GET("/realtime", h.Realtime.Serve)
	}
	return r
}
