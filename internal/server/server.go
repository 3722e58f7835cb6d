// Package server exposes the market views over HTTP and pushes snapshot
// updates to websocket clients.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"coinwatch/internal/domain"
	"coinwatch/internal/infra"
	"coinwatch/internal/service"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

// CoinCatalog lists the coin metadata recorded by asset sync.
type CoinCatalog interface {
	GetAllCoins(ctx context.Context) ([]domain.CoinInfo, error)
}

type Server struct {
	svc    *service.MarketService
	icons  domain.IconCache
	coins  CoinCatalog
	engine *gin.Engine
	hub    *Hub

	unsubscribe func()
	httpServer  *http.Server
}

// New wires the routes and starts the websocket hub. icons and coins may
// be nil, in which case their routes answer 404.
func New(svc *service.MarketService, icons domain.IconCache, coins CoinCatalog, debug bool) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		svc:    svc,
		icons:  icons,
		coins:  coins,
		engine: gin.New(),
		hub:    NewHub(),
	}

	s.engine.Use(gin.Recovery(), requestLogger(), localCORS())
	s.registerRoutes()

	go s.hub.Run()
	s.unsubscribe = svc.Subscribe(s.hub.Publish)
	// A snapshot fetched before the subscription is not replayed
	if snap := svc.Snapshot(); snap != nil {
		s.hub.Publish(snap)
	}

	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/metrics", s.handleMetrics)
	api.GET("/markets", s.handleMarkets)
	api.GET("/movers", s.handleMovers)
	api.GET("/watchlist", s.handleWatchlist)
	api.POST("/watchlist/:symbol", s.handleToggle)
	api.GET("/coins", s.handleCoins)
	api.GET("/coins/:symbol", s.handleDetail)
	api.GET("/coins/:symbol/chart", s.handleChart)
	api.GET("/icons/:id", s.handleIcon)

	s.engine.GET("/ws", s.handleWebsocket)
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe blocks serving on addr until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("🌐 HTTP server listening", slog.String("addr", addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and
// disconnects websocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.Close()
	return err
}

// Close detaches from the service and stops the hub.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.hub.Stop()
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

func (s *Server) handleHealth(c *gin.Context) {
	resp := gin.H{"status": "ok", "snapshot": false}
	if snap := s.svc.Snapshot(); snap != nil {
		resp["snapshot"] = true
		resp["currencies"] = snap.Len()
		resp["fetched_at"] = snap.FetchedAt
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, infra.GlobalMetrics.Snapshot())
}

func (s *Server) handleMarkets(c *gin.Context) {
	list, err := s.svc.Markets(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.Views(list))
}

func (s *Server) handleMovers(c *gin.Context) {
	m, err := s.svc.Movers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"gainers": domain.Views(m.Gainers),
		"losers":  domain.Views(m.Losers),
	})
}

func (s *Server) handleWatchlist(c *gin.Context) {
	list, err := s.svc.Watched(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symbols":    s.svc.WatchedSymbols(c.Request.Context()),
		"currencies": domain.Views(list),
	})
}

func (s *Server) handleToggle(c *gin.Context) {
	symbol := strings.TrimSpace(c.Param("symbol"))
	watched, err := s.svc.ToggleWatch(c.Request.Context(), symbol)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "watched": watched})
}

func (s *Server) handleCoins(c *gin.Context) {
	if s.coins == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "coin catalog disabled"})
		return
	}
	coins, err := s.coins.GetAllCoins(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if c.Query("active") == "true" {
		active := coins[:0]
		for _, coin := range coins {
			if coin.IsActive {
				active = append(active, coin)
			}
		}
		coins = active
	}
	c.JSON(http.StatusOK, coins)
}

func (s *Server) handleDetail(c *gin.Context) {
	d, err := s.svc.Detail(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) handleChart(c *gin.Context) {
	symbol := c.Param("symbol")
	if _, err := s.svc.Find(c.Request.Context(), symbol); err != nil {
		respondError(c, err)
		return
	}

	interval := c.Query("interval")
	if interval == "" {
		c.JSON(http.StatusOK, gin.H{"symbol": symbol, "url": domain.DefaultChartURL(symbol)})
		return
	}

	url, err := domain.ChartURL(symbol, interval)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "interval": interval, "url": url})
}

func (s *Server) handleIcon(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coin id"})
		return
	}
	if s.icons == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "icons disabled"})
		return
	}

	path, err := s.icons.DownloadIcon(c.Request.Context(), id)
	if err != nil {
		slog.Debug("Icon unavailable", slog.Int64("coin_id", id), slog.Any("error", err))
		c.JSON(http.StatusNotFound, gin.H{"error": "icon not available"})
		return
	}
	c.File(path)
}

// respondError maps service errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNoSnapshot):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrCurrencyNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidSymbol), errors.Is(err, domain.ErrInvalidInterval):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// websocket connections log their own lifecycle
		if c.Request.URL.Path == "/ws" {
			return
		}
		slog.Debug("HTTP request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("took", time.Since(start)),
		)
	}
}

// localCORS lets browser frontends served from loopback call the API.
func localCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); isLocalOrigin(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Headers", "Content-Type, Accept, Cache-Control")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func isLocalOrigin(origin string) bool {
	return strings.HasPrefix(origin, "http://127.0.0.1:") ||
		strings.HasPrefix(origin, "http://localhost:")
}
