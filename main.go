package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	ginGzip "github.com/gin-contrib/gzip"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"
)

var (
	SessionTimeout = getEnvDuration("SESSION_TIMEOUT", 24*time.Hour)
	CookieMaxAge   = getEnvDuration("COOKIE_MAX_AGE", 24*time.Hour)
	RateLimitRPS   = getEnvInt("RATE_LIMIT_RPS", 5)
	RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
)

var (
	oracle          *OracleClient
	totalWordCount  int
	totalCountMutex sync.Mutex
	gameSessions    = make(map[string]*GameState)
	sessionMutex    sync.RWMutex
	limiterMap      = make(map[string]*rate.Limiter)
	limiterMutex    sync.Mutex
	isProduction    bool
	startTime       = time.Now()
)

func main() {
	_ = godotenv.Load()

	isProduction = os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production"
	logInfo("Starting Muhanmantle in %s mode", map[bool]string{true: "production", false: "development"}[isProduction])

	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		logFatal("API_URL is required (base URL of the similarity oracle)")
	}
	oracle = NewOracleClient(apiURL)

	if total := ensureTotalCount(context.Background()); total > 0 {
		logInfo("Word-count endpoint reachable, vocabulary size: %d", total)
	} else {
		logWarn("Word count unavailable at startup, sessions stay uninitialized until a page load succeeds")
	}

	router := gin.Default()

	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression))
	router.Use(cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	}))
	router.Use(requestIDMiddleware())

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logWarn("Failed to set trusted proxies: %v", err)
	}

	router.LoadHTMLGlob("templates/*.html")

	router.GET(RouteHome, homeHandler)
	router.POST(RouteGuess, rateLimitMiddleware(), guessHandler)
	router.POST(RouteNewGame, rateLimitMiddleware(), newGameHandler)
	router.GET(RouteGameState, gameStateHandler)
	router.GET("/healthz", healthzHandler)

	go sessionCleanupScheduler()

	startServer(router)
}

// getTotalWordCount returns the cached vocabulary size, 0 while unknown.
func getTotalWordCount() int {
	totalCountMutex.Lock()
	defer totalCountMutex.Unlock()
	return totalWordCount
}

// ensureTotalCount fetches the vocabulary size if it is not cached yet.
// A failed fetch is only logged; no retry is scheduled, the next page load
// simply calls this again.
func ensureTotalCount(ctx context.Context) int {
	totalCountMutex.Lock()
	defer totalCountMutex.Unlock()
	if totalWordCount > 0 {
		return totalWordCount
	}

	count, err := oracle.TotalCount(ctx)
	if err != nil {
		logWarn("Failed to fetch total word count: %v", err)
		return 0
	}
	totalWordCount = count
	return totalWordCount
}

// sessionCleanupScheduler periodically drops expired in-memory sessions and
// their snapshot files.
func sessionCleanupScheduler() {
	interval := SessionTimeout / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		cleaned := 0
		sessionMutex.Lock()
		for sessionID, game := range gameSessions {
			if game.LastAccessTime.IsZero() || now.Sub(game.LastAccessTime) > SessionTimeout {
				delete(gameSessions, sessionID)
				cleaned++
			}
		}
		sessionMutex.Unlock()
		if cleaned > 0 {
			logInfo("Removed %d expired in-memory sessions", cleaned)
		}

		if err := cleanupOldSessions(SessionTimeout); err != nil {
			logWarn("Session file cleanup failed: %v", err)
		}
	}
}

func startServer(router *gin.Engine) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		logInfo("Shutdown signal received, shutting down server gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	logInfo("Server starting on http://localhost:%s", port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	logInfo("Server shutdown complete")
}
