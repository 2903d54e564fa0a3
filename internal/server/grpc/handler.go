package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/common"
	"github.com/dmitrijs2005/rollcall/internal/models"
	"github.com/dmitrijs2005/rollcall/internal/rpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// toStatus maps service errors onto gRPC status codes. Unknown errors are
// reported as Internal without leaking details.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, "token expired")
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, "refresh token expired")
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrorForbidden):
		return status.Error(codes.PermissionDenied, "forbidden")
	case errors.Is(err, common.ErrTooManyAttempts):
		return status.Error(codes.ResourceExhausted, "too many attempts")
	case errors.Is(err, common.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func (s *GRPCServer) fail(ctx context.Context, op string, err error) error {
	st := toStatus(err)
	if status.Code(st) == codes.Internal {
		s.logger.Error(ctx, op+" failed", "error", err)
	}
	return st
}

func (s *GRPCServer) Ping(ctx context.Context, req *emptypb.Empty) (*emptypb.Empty, error) {
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.TokenResponse, error) {

	tokens, err := s.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.fail(ctx, "login", err)
	}

	s.logger.Info(ctx, "Logged in", "email", req.Email, "role", tokens.Role)
	return &rpc.TokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken, Role: tokens.Role}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *rpc.RefreshTokenRequest) (*rpc.TokenResponse, error) {

	tokens, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.fail(ctx, "refresh token", err)
	}

	return &rpc.TokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken, Role: tokens.Role}, nil
}

func (s *GRPCServer) ListAttendees(ctx context.Context, req *rpc.ListAttendeesRequest) (*rpc.ListAttendeesResponse, error) {

	filter := models.ListFilter{Status: models.ParseStatusFilter(req.Status), Search: req.Search}
	list, err := s.attendees.List(ctx, filter)
	if err != nil {
		return nil, s.fail(ctx, "list attendees", err)
	}

	return &rpc.ListAttendeesResponse{Attendees: rpc.FromAttendees(list)}, nil
}

func (s *GRPCServer) RegisterAttendee(ctx context.Context, req *rpc.RegisterAttendeeRequest) (*rpc.RegisterAttendeeResponse, error) {

	a, err := s.attendees.Register(ctx, req.Name, req.Email, req.QRCode)
	if err != nil {
		return nil, s.fail(ctx, "register attendee", err)
	}

	return &rpc.RegisterAttendeeResponse{Attendee: rpc.FromAttendee(a)}, nil
}

func (s *GRPCServer) Validate(ctx context.Context, req *rpc.ValidateRequest) (*rpc.ValidationResult, error) {

	res, err := s.attendees.Validate(ctx, req.Code)
	if err != nil {
		return nil, s.fail(ctx, "validate", err)
	}

	return rpc.FromResult(res), nil
}

// CheckIn marks an attendee present. Stations replaying offline scans send
// the original scan time in At; without it the server clock is used.
func (s *GRPCServer) CheckIn(ctx context.Context, req *rpc.CheckInRequest) (*rpc.ValidationResult, error) {

	var at time.Time
	if req.At != nil {
		at = *req.At
	}

	station := req.StationID
	if station == "" {
		if id, ok := identityFromContext(ctx); ok {
			station = "user:" + id.UserID
		}
	}

	res, err := s.attendees.CheckIn(ctx, req.Code, station, at)
	if err != nil {
		return nil, s.fail(ctx, "check in", err)
	}

	return rpc.FromResult(res), nil
}

func (s *GRPCServer) Stats(ctx context.Context, req *rpc.StatsRequest) (*rpc.StatsResponse, error) {

	st, err := s.attendees.Stats(ctx)
	if err != nil {
		return nil, s.fail(ctx, "stats", err)
	}

	return rpc.FromStats(st), nil
}
