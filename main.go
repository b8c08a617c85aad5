package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pastebit/pastebit/config"
	"github.com/pastebit/pastebit/handlers"
	"github.com/pastebit/pastebit/metrics"
	"github.com/pastebit/pastebit/paste"
	"github.com/pastebit/pastebit/storage"
	"github.com/pastebit/pastebit/utils"

	// Lambda imports (only used when in Lambda mode)
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
)

// Version/build info (set via -ldflags at build time)
var (
	Version    = "dev"
	BuildTime  = "unknown"
	CommitHash = "none"
)

// Lambda-specific variables
var (
	ginLambdaV1   *ginadapter.GinLambda
	ginLambdaV2   *ginadapter.GinLambdaV2
	ginLambdaOnce sync.Once
)

// isLambdaEnvironment detects if running in AWS Lambda
func isLambdaEnvironment() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

func main() {
	log.Printf("pastebit Version: %s", Version)
	log.Printf("Build Time:      %s", BuildTime)
	log.Printf("Commit Hash:     %s", CommitHash)

	cfg := config.LoadConfig()
	cfg.Version = Version
	cfg.BuildTime = BuildTime
	cfg.CommitHash = CommitHash

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	if utils.IsDebugEnabled() {
		log.Printf("[DEBUG] Loaded config: %+v", cfg)
	}
	if cfg.TestMode {
		log.Printf("[WARN] Test mode enabled: X-Test-Now-Ms clock override is honored")
	}

	store, err := storage.NewStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize %s storage: %v", cfg.Backend, err)
	}
	log.Printf("Using %s storage backend", cfg.Backend)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := store.Ping(pingCtx); err != nil {
		log.Printf("[WARN] Store ping failed at startup: %v", err)
	} else {
		log.Printf("Store: OK")
	}
	cancel()

	router := setupRouter(store, cfg)

	if isLambdaEnvironment() {
		log.Println("Starting in AWS Lambda mode")
		ginLambdaOnce.Do(func() {
			ginLambdaV1 = ginadapter.New(router)
			ginLambdaV2 = ginadapter.NewV2(router)
		})
		lambda.Start(lambdaHandler)
		return
	}

	log.Println("Starting in HTTP server mode")
	runHTTPServer(router, cfg, store)
}

// lambdaHandler handles Lambda requests for both v1 and v2 API Gateway
// event formats.
func lambdaHandler(ctx context.Context, event interface{}) (interface{}, error) {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{
			StatusCode: 500,
			Body:       "Failed to process event",
		}, err
	}

	var reqV2 events.APIGatewayV2HTTPRequest
	if err := json.Unmarshal(eventBytes, &reqV2); err == nil && reqV2.RequestContext.HTTP.Method != "" {
		return ginLambdaV2.ProxyWithContext(ctx, reqV2)
	}

	var reqV1 events.APIGatewayProxyRequest
	if err := json.Unmarshal(eventBytes, &reqV1); err == nil && reqV1.HTTPMethod != "" {
		return ginLambdaV1.ProxyWithContext(ctx, reqV1)
	}

	log.Printf("Unable to parse event as APIGateway v1 or v2 format: %s", string(eventBytes))
	return events.APIGatewayV2HTTPResponse{
		StatusCode: 500,
		Body:       "Unsupported event type",
	}, fmt.Errorf("unsupported event type: %T", event)
}

// setupRouter creates and configures the Gin router
func setupRouter(store storage.PasteStore, cfg *config.Config) *gin.Engine {
	svc := paste.NewService(store)

	pasteHandler := handlers.NewPasteHandler(svc, cfg)
	viewHandler := handlers.NewViewHandler(svc, cfg)
	systemHandler := handlers.NewSystemHandler(store)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(jsonRecovery())
	router.Use(instrumentRequests())
	router.Use(limitBodySize(cfg.MaxBodySize))

	router.LoadHTMLGlob("static/*.html")
	router.Static("/assets", "./static/assets")

	// Web UI
	router.GET("/", viewHandler.Index)
	router.GET("/p/:id", viewHandler.View)

	// JSON API
	router.POST("/api/pastes", pasteHandler.Create)
	router.GET("/api/pastes/:id", pasteHandler.Get)

	// System
	router.GET("/api/healthz", systemHandler.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	})

	return router
}

// jsonRecovery returns a middleware that recovers from panics and ensures
// the response is JSON formatted so API clients can parse error responses.
func jsonRecovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[PANIC] %v", r)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
		}()
		c.Next()
	}
}

// instrumentRequests records per-route Prometheus request counts and
// latencies.
func instrumentRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		metrics.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// limitBodySize caps request bodies so an oversized paste fails the
// JSON bind instead of exhausting memory.
func limitBodySize(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil && max > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		}
		c.Next()
	}
}

// runHTTPServer starts the HTTP server with graceful shutdown
func runHTTPServer(router *gin.Engine, cfg *config.Config, store storage.PasteStore) {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Listening on port %d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[ERROR] Server shutdown: %v", err)
	}
	if err := store.Close(); err != nil {
		log.Printf("[ERROR] Store close: %v", err)
	}
	log.Println("Server stopped")
}
