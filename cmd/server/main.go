package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/clgportal/backend_v1/internal/cache"
	"github.com/clgportal/backend_v1/internal/config"
	"github.com/clgportal/backend_v1/internal/database"
	"github.com/clgportal/backend_v1/internal/httpmiddleware"
	"github.com/clgportal/backend_v1/internal/routes"
	"github.com/clgportal/backend_v1/internal/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}
	cfg := config.Load()

	// The handler is swapped in once the store is reachable, so a database
	// outage at boot degrades to 503s instead of a crash loop.
	var handler atomic.Value
	handler.Store(degradedHandler())

	go func() {
		db := connectWithRetry(cfg)
		if err := database.Migrate(db); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		if err := database.SeedAdmin(db, cfg); err != nil {
			log.Fatalf("admin seed failed: %v", err)
		}
		handler.Store(buildRouter(db, cfg))
		log.Println("store connected, serving full API")
	}()

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler.Load().(http.Handler).ServeHTTP(w, r)
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
}

// degradedHandler serves while the store is unreachable: health reporting
// stays up, everything else answers 503.
func degradedHandler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "degraded", "database": "down"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Service temporarily unavailable"})
	})
	return r
}

func buildRouter(db *gorm.DB, cfg *config.Config) http.Handler {
	hub := ws.NewActivityHub()
	go hub.Run()

	dash := cache.NewDashboard(cfg.RedisAddr, cfg.DashboardCacheTTL)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), httpmiddleware.Metrics())

	r.GET("/healthz", func(c *gin.Context) {
		status := gin.H{"status": "ok"}
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status["status"] = "degraded"
			status["database"] = "down"
		}
		if cfg.RedisAddr != "" {
			status["redis"] = "ok"
			if !dash.Healthy(c.Request.Context()) {
				status["redis"] = "down"
			}
		}
		c.JSON(http.StatusOK, status)
	})

	routes.Register(r, db, cfg, hub, dash)
	return r
}

func connectWithRetry(cfg *config.Config) *gorm.DB {
	backoff := 2 * time.Second
	for {
		db, err := database.Connect(cfg)
		if err == nil {
			return db
		}
		log.Printf("database connect failed: %v, retrying in %s", err, backoff)
		time.Sleep(backoff)
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}
