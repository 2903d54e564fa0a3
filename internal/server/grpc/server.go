// Package grpc exposes the attendance service to scanner stations over gRPC.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/checkin"
	"github.com/dmitrijs2005/rollcall/internal/logging"
	"github.com/dmitrijs2005/rollcall/internal/models"
	"github.com/dmitrijs2005/rollcall/internal/rpc"
	"github.com/dmitrijs2005/rollcall/internal/server/auth"
	"github.com/dmitrijs2005/rollcall/internal/server/services"
	"google.golang.org/grpc"
)

// UserService is the part of services.UserService the gRPC layer needs.
type UserService interface {
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Authenticate(accessToken string) (auth.Identity, error)
}

// AttendeeService is the part of services.AttendeeService the gRPC layer needs.
type AttendeeService interface {
	Register(ctx context.Context, name, email, code string) (models.Attendee, error)
	List(ctx context.Context, filter models.ListFilter) ([]models.Attendee, error)
	Stats(ctx context.Context) (models.Stats, error)
	Validate(ctx context.Context, raw string) (checkin.Result, error)
	CheckIn(ctx context.Context, raw, stationID string, at time.Time) (checkin.Result, error)
}

type GRPCServer struct {
	rpc.UnimplementedAttendanceServer
	address   string
	users     UserService
	attendees AttendeeService
	logger    logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, us UserService, as AttendeeService) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		attendees: as,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve runs the server on an existing listener until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))

	rpc.RegisterAttendanceServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
