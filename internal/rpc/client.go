package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

// AttendanceClient is the station-side stub of rollcall.v1.Attendance.
type AttendanceClient interface {
	Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*TokenResponse, error)
	RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*TokenResponse, error)
	ListAttendees(ctx context.Context, in *ListAttendeesRequest, opts ...grpc.CallOption) (*ListAttendeesResponse, error)
	RegisterAttendee(ctx context.Context, in *RegisterAttendeeRequest, opts ...grpc.CallOption) (*RegisterAttendeeResponse, error)
	Validate(ctx context.Context, in *ValidateRequest, opts ...grpc.CallOption) (*ValidationResult, error)
	CheckIn(ctx context.Context, in *CheckInRequest, opts ...grpc.CallOption) (*ValidationResult, error)
	Stats(ctx context.Context, in *StatsRequest, opts ...grpc.CallOption) (*StatsResponse, error)
}

type attendanceClient struct {
	cc grpc.ClientConnInterface
}

func NewAttendanceClient(cc grpc.ClientConnInterface) AttendanceClient {
	return &attendanceClient{cc: cc}
}

// invokeJSON calls method with the JSON codec.
func invokeJSON[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Ping travels with the default protobuf codec.
func (c *attendanceClient) Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, MethodPing, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *attendanceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invokeJSON[TokenResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *attendanceClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invokeJSON[TokenResponse](ctx, c.cc, MethodRefreshToken, in, opts)
}

func (c *attendanceClient) ListAttendees(ctx context.Context, in *ListAttendeesRequest, opts ...grpc.CallOption) (*ListAttendeesResponse, error) {
	return invokeJSON[ListAttendeesResponse](ctx, c.cc, MethodListAttendees, in, opts)
}

func (c *attendanceClient) RegisterAttendee(ctx context.Context, in *RegisterAttendeeRequest, opts ...grpc.CallOption) (*RegisterAttendeeResponse, error) {
	return invokeJSON[RegisterAttendeeResponse](ctx, c.cc, MethodRegisterAttendee, in, opts)
}

func (c *attendanceClient) Validate(ctx context.Context, in *ValidateRequest, opts ...grpc.CallOption) (*ValidationResult, error) {
	return invokeJSON[ValidationResult](ctx, c.cc, MethodValidate, in, opts)
}

func (c *attendanceClient) CheckIn(ctx context.Context, in *CheckInRequest, opts ...grpc.CallOption) (*ValidationResult, error) {
	return invokeJSON[ValidationResult](ctx, c.cc, MethodCheckIn, in, opts)
}

func (c *attendanceClient) Stats(ctx context.Context, in *StatsRequest, opts ...grpc.CallOption) (*StatsResponse, error) {
	return invokeJSON[StatsResponse](ctx, c.cc, MethodStats, in, opts)
}
