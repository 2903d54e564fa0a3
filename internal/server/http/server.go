// Package http serves the dashboard API: JSON endpoints over gin and a
// WebSocket feed of committed check-ins.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/checkin"
	"github.com/dmitrijs2005/rollcall/internal/logging"
	"github.com/dmitrijs2005/rollcall/internal/models"
	"github.com/dmitrijs2005/rollcall/internal/server/auth"
	"github.com/dmitrijs2005/rollcall/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

type UserService interface {
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Authenticate(accessToken string) (auth.Identity, error)
}

type AttendeeService interface {
	Register(ctx context.Context, name, email, code string) (models.Attendee, error)
	Get(ctx context.Context, code string) (models.Attendee, error)
	List(ctx context.Context, filter models.ListFilter) ([]models.Attendee, error)
	Stats(ctx context.Context) (models.Stats, error)
	Validate(ctx context.Context, raw string) (checkin.Result, error)
	CheckIn(ctx context.Context, raw, stationID string, at time.Time) (checkin.Result, error)
	Recent(ctx context.Context, limit int) ([]models.ScanRecord, error)
}

type BadgePublisher interface {
	Publish(ctx context.Context, code string) (*services.BadgeLink, error)
}

type HTTPServer struct {
	address   string
	origins   []string
	users     UserService
	attendees AttendeeService
	badges    BadgePublisher
	hub       *Hub
	logger    logging.Logger
}

func NewHTTPServer(a string, origins []string, l logging.Logger, us UserService, as AttendeeService, bp BadgePublisher, hub *Hub) *HTTPServer {
	return &HTTPServer{
		address:   a,
		origins:   origins,
		users:     us,
		attendees: as,
		badges:    bp,
		hub:       hub,
		logger:    l.With("module", "http_server"),
	}
}

// Handler builds the gin router.
func (s *HTTPServer) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.Use(cors.New(s.corsConfig()))

	r.GET("/healthz", s.health)

	api := r.Group("/api/v1")
	api.POST("/login", s.login)
	api.POST("/refresh", s.refresh)

	authed := api.Group("")
	authed.Use(s.bearerAuth())
	{
		authed.GET("/attendees", s.listAttendees)
		authed.GET("/attendees/:code", s.getAttendee)
		authed.GET("/attendees/:code/validate", s.validate)
		authed.POST("/checkin", s.checkIn)
		authed.GET("/stats", s.stats)
		authed.GET("/scans/recent", s.recent)
		authed.GET("/feed", s.feed)

		admin := authed.Group("")
		admin.Use(requireAdmin())
		admin.POST("/attendees", s.registerAttendee)
		admin.POST("/attendees/:code/badge", s.publishBadge)
	}

	return r
}

func (s *HTTPServer) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(s.origins) == 0 || slices.Contains(s.origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.origins
		cfg.AllowCredentials = true
	}
	return cfg
}

func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve runs the server on an existing listener until ctx is cancelled.
func (s *HTTPServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown", "error", err)
		}
		s.hub.Close()
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
