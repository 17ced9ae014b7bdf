package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"kaiapay.backend/internal/interfaces/http/handlers"
)

type routeDeps struct {
	transactionHandler   *handlers.TransactionHandler
	paymentHandler       *handlers.PaymentHandler
	userHandler          *handlers.UserHandler
	feeDelegationHandler *handlers.FeeDelegationHandler
	publicHandler        *handlers.PublicHandler
	authMiddleware       gin.HandlerFunc
	idempotency          gin.HandlerFunc
}

func registerAPIRoutes(r *gin.Engine, d routeDeps) {
	api := r.Group("/api")
	{
		// Public routes
		public := api.Group("/public")
		{
			public.GET("/to-address", d.transactionHandler.GetPublicByToAddress)
			public.GET("/pot-info", d.publicHandler.PotInfo)
		}

		// Fee delegation: balance is public, relay needs a user
		feeDelegation := api.Group("/fee-delegation")
		{
			feeDelegation.GET("/balance", d.feeDelegationHandler.Balance)
			feeDelegation.POST("/relay", d.authMiddleware, d.feeDelegationHandler.Relay)
		}

		user := api.Group("/user")
		user.Use(d.authMiddleware)
		{
			user.GET("/me", d.userHandler.Me)
			user.PUT("/update-kaiapay-id", d.userHandler.UpdateKaiapayID)
		}

		transaction := api.Group("/transaction")
		transaction.Use(d.authMiddleware)
		{
			transaction.POST("/deposit", d.idempotency, d.transactionHandler.Deposit)
			transaction.POST("/confirm-transfer", d.idempotency, d.transactionHandler.ConfirmTransfer)
			transaction.POST("/confirm-withdraw", d.idempotency, d.transactionHandler.ConfirmWithdraw)
			transaction.POST("/confirm-cancel", d.idempotency, d.transactionHandler.ConfirmCancel)
			transaction.POST("/transfer-from-link", d.idempotency, d.transactionHandler.TransferFromLink)
			transaction.POST("/transfer-with-link", d.idempotency, d.transactionHandler.TransferWithLink)
			transaction.POST("/transfer-with-kaiapay-id", d.idempotency, d.transactionHandler.TransferWithKaiapayID)
			transaction.POST("/transfer-with-external-address", d.idempotency, d.transactionHandler.TransferWithExternalAddress)
			transaction.GET("/list", d.transactionHandler.List)
			transaction.GET("/to-address", d.transactionHandler.GetByToAddress)
		}

		payment := api.Group("/payment")
		payment.Use(d.authMiddleware)
		{
			payment.POST("/create", d.idempotency, d.paymentHandler.CreatePayment)
			payment.GET("/:code", d.paymentHandler.GetPayment)
		}
	}
}

func registerHealthRoute(r *gin.Engine, h *handlers.HealthHandler) {
	r.GET("/health", h.Health)
}

func registerMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// applyCORSMiddleware allows the configured origins with credentials so the
// identity cookie is sent along
func applyCORSMiddleware(r *gin.Engine, allowedOrigins []string) {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	wildcard := false
	for _, o := range allowedOrigins {
		if o == "*" {
			wildcard = true
		}
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}

	r.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := allowed[origin]; ok && origin != "*" {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Access-Control-Allow-Credentials", "true")
				c.Header("Vary", "Origin")
			} else if wildcard {
				// a wildcard origin never carries credentials
				c.Header("Access-Control-Allow-Origin", "*")
			}
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID, X-Idempotency-Hit")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}
