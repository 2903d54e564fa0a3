package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/checkin"
	"github.com/dmitrijs2005/rollcall/internal/common"
	"github.com/dmitrijs2005/rollcall/internal/models"
	"github.com/dmitrijs2005/rollcall/internal/rpc"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type registerRequest struct {
	Name   string `json:"name" binding:"required"`
	Email  string `json:"email"`
	QRCode string `json:"qr_code"`
}

type checkInRequest struct {
	Code      string `json:"code"`
	StationID string `json:"station_id"`
}

type scanRecord struct {
	Attendee    rpc.Attendee `json:"attendee"`
	StationID   string       `json:"station_id"`
	CheckedInAt time.Time    `json:"checked_in_at"`
}

type badgeResponse struct {
	Key       string    `json:"key"`
	FileName  string    `json:"file_name"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// httpStatus maps service errors onto HTTP status codes.
func httpStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, common.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "too many attempts"
	case errors.Is(err, common.ErrAlreadyExists):
		return http.StatusConflict, "already exists"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrInvalidArgument):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (s *HTTPServer) fail(c *gin.Context, op string, err error) {
	code, msg := httpStatus(err)
	if code == http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), op+" failed", "error", err)
	}
	c.JSON(code, errorResponse{Error: msg})
}

// checkInStatus is the HTTP status of a check-in outcome. The body always
// carries the full validation result.
func checkInStatus(res checkin.Result) int {
	switch res.Code {
	case checkin.CodeEmpty:
		return http.StatusBadRequest
	case checkin.CodeNotFound:
		return http.StatusNotFound
	case checkin.CodeAlreadyCheckedIn:
		return http.StatusConflict
	default:
		return http.StatusOK
	}
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *HTTPServer) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	tokens, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, "login", err)
		return
	}

	c.JSON(http.StatusOK, rpc.TokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken, Role: tokens.Role})
}

func (s *HTTPServer) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	tokens, err := s.users.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		s.fail(c, "refresh", err)
		return
	}

	c.JSON(http.StatusOK, rpc.TokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken, Role: tokens.Role})
}

func (s *HTTPServer) listAttendees(c *gin.Context) {
	filter := models.ListFilter{
		Status: models.ParseStatusFilter(c.Query("status")),
		Search: c.Query("q"),
	}

	list, err := s.attendees.List(c.Request.Context(), filter)
	if err != nil {
		s.fail(c, "list attendees", err)
		return
	}

	c.JSON(http.StatusOK, rpc.ListAttendeesResponse{Attendees: rpc.FromAttendees(list)})
}

func (s *HTTPServer) getAttendee(c *gin.Context) {
	a, err := s.attendees.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		s.fail(c, "get attendee", err)
		return
	}

	c.JSON(http.StatusOK, rpc.FromAttendee(a))
}

func (s *HTTPServer) registerAttendee(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	a, err := s.attendees.Register(c.Request.Context(), req.Name, req.Email, req.QRCode)
	if err != nil {
		s.fail(c, "register attendee", err)
		return
	}

	c.JSON(http.StatusCreated, rpc.RegisterAttendeeResponse{Attendee: rpc.FromAttendee(a)})
}

func (s *HTTPServer) validate(c *gin.Context) {
	res, err := s.attendees.Validate(c.Request.Context(), c.Param("code"))
	if err != nil {
		s.fail(c, "validate", err)
		return
	}

	c.JSON(http.StatusOK, rpc.FromResult(res))
}

func (s *HTTPServer) checkIn(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	station := req.StationID
	if station == "" {
		station = "dashboard"
		if id, ok := identity(c); ok {
			station = "user:" + id.UserID
		}
	}

	res, err := s.attendees.CheckIn(c.Request.Context(), req.Code, station, time.Time{})
	if err != nil {
		s.fail(c, "check in", err)
		return
	}

	c.JSON(checkInStatus(res), rpc.FromResult(res))
}

func (s *HTTPServer) stats(c *gin.Context) {
	st, err := s.attendees.Stats(c.Request.Context())
	if err != nil {
		s.fail(c, "stats", err)
		return
	}

	c.JSON(http.StatusOK, rpc.FromStats(st))
}

func (s *HTTPServer) recent(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	recs, err := s.attendees.Recent(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, "recent scans", err)
		return
	}

	out := make([]scanRecord, 0, len(recs))
	for _, r := range recs {
		out = append(out, scanRecord{Attendee: rpc.FromAttendee(r.Attendee), StationID: r.StationID, CheckedInAt: r.CheckedInAt})
	}
	c.JSON(http.StatusOK, gin.H{"scans": out})
}

func (s *HTTPServer) publishBadge(c *gin.Context) {
	link, err := s.badges.Publish(c.Request.Context(), c.Param("code"))
	if err != nil {
		s.fail(c, "publish badge", err)
		return
	}

	c.JSON(http.StatusOK, badgeResponse{Key: link.Key, FileName: link.FileName, URL: link.URL, ExpiresAt: link.ExpiresAt})
}

func (s *HTTPServer) feed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn(c.Request.Context(), "websocket upgrade", "error", err)
		return
	}
	s.hub.Serve(conn)
}
