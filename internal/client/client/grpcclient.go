package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/checkin"
	"github.com/dmitrijs2005/rollcall/internal/common"
	"github.com/dmitrijs2005/rollcall/internal/models"
	"github.com/dmitrijs2005/rollcall/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// callTimeout bounds every RPC so an unreachable server flips the station
// to offline quickly.
const callTimeout = 5 * time.Second

// publicMethods are sent without an access token and never trigger a refresh.
var publicMethods = map[string]bool{
	rpc.MethodPing:         true,
	rpc.MethodLogin:        true,
	rpc.MethodRefreshToken: true,
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      rpc.AttendanceClient

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	role         string

	// onRefresh is told about rotated tokens so they can be persisted.
	onRefresh func(Session)
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if publicMethods[method] {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	accessToken, refreshToken := s.tokens()
	ctx = withAccessToken(ctx, accessToken)

	err := invoker(ctx, method, req, reply, cc, opts...)

	if err != nil {

		st, ok := status.FromError(err)
		if !ok {
			return err
		}

		if st.Code() != codes.Unauthenticated {
			return err
		}
		if st.Message() != common.ErrTokenExpired.Error() {
			return err
		}

		if refreshToken == "" {
			return err
		}

		refreshTokenResponse, err := s.client.RefreshToken(ctx, &rpc.RefreshTokenRequest{RefreshToken: refreshToken})
		if err != nil {
			return err
		}

		session := Session{
			AccessToken:  refreshTokenResponse.AccessToken,
			RefreshToken: refreshTokenResponse.RefreshToken,
			Role:         refreshTokenResponse.Role,
		}
		s.SetSession(session)
		s.mu.Lock()
		onRefresh := s.onRefresh
		s.mu.Unlock()
		if onRefresh != nil {
			onRefresh(session)
		}

		// tokens refreshed, retry with the new access token
		ctx = withAccessToken(ctx, session.AccessToken)
		return invoker(ctx, method, req, reply, cc, opts...)

	}

	return err
}

func NewGRPCClient(endpointURL string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	err := c.InitGRPCClient()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {

	conn, err := grpc.NewClient(s.endpointURL, grpc.WithTransportCredentials(insecure.NewCredentials()), grpc.WithUnaryInterceptor(s.accessTokenInterceptor))
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = rpc.NewAttendanceClient(conn)
	return nil
}

// OnTokensRefreshed registers f to receive rotated tokens.
func (s *GRPCClient) OnTokensRefreshed(f func(Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRefresh = f
}

func (s *GRPCClient) SetSession(session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = session.AccessToken
	s.refreshToken = session.RefreshToken
	s.role = session.Role
}

// Role returns the role of the signed-in operator, empty when signed out.
func (s *GRPCClient) Role() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

func (s *GRPCClient) Login(ctx context.Context, email, password string) (Session, error) {

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := s.client.Login(ctx, &rpc.LoginRequest{Email: email, Password: password})
	if err != nil {
		return Session{}, s.mapError(err)
	}

	session := Session{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken, Role: resp.Role}
	s.SetSession(session)

	return session, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) Ping(ctx context.Context) error {

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if _, err := s.client.Ping(ctx, &emptypb.Empty{}); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *GRPCClient) ListAttendees(ctx context.Context, filter models.ListFilter) ([]models.Attendee, error) {

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := s.client.ListAttendees(ctx, &rpc.ListAttendeesRequest{Status: string(filter.Status), Search: filter.Search})
	if err != nil {
		return nil, s.mapError(err)
	}

	out := make([]models.Attendee, 0, len(resp.Attendees))
	for _, a := range resp.Attendees {
		out = append(out, a.Model())
	}
	return out, nil
}

func (s *GRPCClient) RegisterAttendee(ctx context.Context, name, email, code string) (models.Attendee, error) {

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := s.client.RegisterAttendee(ctx, &rpc.RegisterAttendeeRequest{Name: name, Email: email, QRCode: code})
	if err != nil {
		return models.Attendee{}, s.mapError(err)
	}

	return resp.Attendee.Model(), nil
}

func (s *GRPCClient) Validate(ctx context.Context, code string) (checkin.Result, error) {

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := s.client.Validate(ctx, &rpc.ValidateRequest{Code: code})
	if err != nil {
		return checkin.Result{}, s.mapError(err)
	}

	return resp.Result(), nil
}

func (s *GRPCClient) CheckIn(ctx context.Context, code, stationID string, at *time.Time) (checkin.Result, error) {

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := s.client.CheckIn(ctx, &rpc.CheckInRequest{Code: code, StationID: stationID, At: at})
	if err != nil {
		return checkin.Result{}, s.mapError(err)
	}

	return resp.Result(), nil
}

func (s *GRPCClient) Stats(ctx context.Context) (models.Stats, error) {

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := s.client.Stats(ctx, &rpc.StatsRequest{})
	if err != nil {
		return models.Stats{}, s.mapError(err)
	}

	return resp.Model(), nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrUnavailable
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.AlreadyExists:
		return common.ErrAlreadyExists
	case codes.NotFound:
		return common.ErrorNotFound
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrInvalidArgument, st.Message())
	case codes.ResourceExhausted:
		return common.ErrTooManyAttempts
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
