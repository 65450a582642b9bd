package api

import (
	"github.com/gin-gonic/gin"

	velora "github.com/velorapay/velora"
	"github.com/velorapay/velora/api/middleware"
	"github.com/velorapay/velora/config"
)

type Api struct {
	velora *velora.Velora
	router *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/transfers", a.CreateTransfer)
	router.GET("/transfers", a.ListTransfers)
	router.GET("/transfers/:id", a.GetTransferStatus)
	router.POST("/transfers/:id/cancel", a.CancelTransfer)

	router.GET("/rates", a.GetRate)
	router.POST("/quotes", a.LockQuote)

	router.POST("/rails/compare", a.CompareRails)

	return a.router
}

func NewAPI(v *velora.Velora) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	a := &Api{velora: v, router: r}

	// the provider webhook authenticates with an HMAC signature, not the
	// client secret key, so it sits outside the auth middleware
	r.POST("/webhooks/provider", a.ProviderWebhook)

	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}
	r.Use(middleware.RateLimitMiddleware(conf))

	return a
}
