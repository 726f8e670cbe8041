package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Skufu/symptomdx/internal/diagnosis"
)

const maxBodyBytes = 1 << 20

func setupRouter(svc *diagnosis.Service, db HealthChecker, origins []string) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Logger(),
		gin.Recovery(),
		requestID(),
		limitBodySize(maxBodyBytes),
		cors.New(corsConfig(origins)),
	)

	h := diagnosis.NewHandler(svc)

	router.GET("/", h.Status)
	router.GET("/health", h.Status)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/readyz", func(c *gin.Context) {
		body := gin.H{"status": "ok", "model_loaded": svc.Ready(), "db": "disabled"}
		code := http.StatusOK
		if !svc.Ready() {
			body["status"] = "degraded"
			code = http.StatusServiceUnavailable
		}

		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			body["db"] = "ok"
			if err := db.Ping(ctx); err != nil {
				body["db"] = fmt.Sprintf("unhealthy: %v", err)
				body["status"] = "degraded"
				code = http.StatusServiceUnavailable
			}
		}

		c.JSON(code, body)
	})

	api := router.Group("/api")
	api.POST("/diagnose", h.Diagnose)
	api.GET("/symptoms", h.Symptoms)

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// requestID tags each request with the caller's X-Request-ID or a fresh UUID.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(diagnosis.RequestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
