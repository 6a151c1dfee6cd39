package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mzawadzki/storekeeper/internal/adapters/config"
	"github.com/mzawadzki/storekeeper/internal/adapters/http/controllers"
	"github.com/mzawadzki/storekeeper/internal/adapters/http/middleware"
)

type Router struct {
	healthController  *controllers.HealthController
	storeController   *controllers.StoreController
	historyController *controllers.HistoryController
	rateLimiter       middleware.RateLimiter
}

func NewRouter(
	healthController *controllers.HealthController,
	storeController *controllers.StoreController,
	historyController *controllers.HistoryController,
	rateLimiter middleware.RateLimiter,
) *Router {
	return &Router{
		healthController:  healthController,
		storeController:   storeController,
		historyController: historyController,
		rateLimiter:       rateLimiter,
	}
}

func (r *Router) SetupRoutes(router *gin.Engine) {
	rl := r.rateLimiter

	apiGroup := router.Group("/api")
	v1Group := apiGroup.Group("/v1")
	{
		v1Group.Use(middleware.LogRequest())
		v1Group.GET("/health", r.healthController.Health)

		v1Group.GET("/store", r.storeController.Storefront)
		v1Group.POST("/store/buy", middleware.RateLimit(rl, 30, 1*time.Minute), r.storeController.Buy)
		v1Group.POST("/store/sell", middleware.RateLimit(rl, 30, 1*time.Minute), r.storeController.Sell)

		v1Group.POST("/account/adjust", middleware.RateLimit(rl, 15, 1*time.Minute), r.storeController.AdjustBalance)

		v1Group.GET("/history", r.historyController.History)
	}
}

func (r *Router) ListenAndServe(ctx context.Context, config config.HTTPConfig) error {
	engine := gin.Default()
	r.SetupRoutes(engine)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", config.BindInterface, config.Port),
		Handler: engine,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
