package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

const ServiceName = "rollcall.v1.Attendance"

const (
	MethodPing             = "/" + ServiceName + "/Ping"
	MethodLogin            = "/" + ServiceName + "/Login"
	MethodRefreshToken     = "/" + ServiceName + "/RefreshToken"
	MethodListAttendees    = "/" + ServiceName + "/ListAttendees"
	MethodRegisterAttendee = "/" + ServiceName + "/RegisterAttendee"
	MethodValidate         = "/" + ServiceName + "/Validate"
	MethodCheckIn          = "/" + ServiceName + "/CheckIn"
	MethodStats            = "/" + ServiceName + "/Stats"
)

// AttendanceServer is implemented by rollcalld.
type AttendanceServer interface {
	Ping(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Login(context.Context, *LoginRequest) (*TokenResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*TokenResponse, error)
	ListAttendees(context.Context, *ListAttendeesRequest) (*ListAttendeesResponse, error)
	RegisterAttendee(context.Context, *RegisterAttendeeRequest) (*RegisterAttendeeResponse, error)
	Validate(context.Context, *ValidateRequest) (*ValidationResult, error)
	CheckIn(context.Context, *CheckInRequest) (*ValidationResult, error)
	Stats(context.Context, *StatsRequest) (*StatsResponse, error)
}

// UnimplementedAttendanceServer can be embedded to stay forward compatible.
type UnimplementedAttendanceServer struct{}

func (UnimplementedAttendanceServer) Ping(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedAttendanceServer) Login(context.Context, *LoginRequest) (*TokenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedAttendanceServer) RefreshToken(context.Context, *RefreshTokenRequest) (*TokenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RefreshToken not implemented")
}
func (UnimplementedAttendanceServer) ListAttendees(context.Context, *ListAttendeesRequest) (*ListAttendeesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListAttendees not implemented")
}
func (UnimplementedAttendanceServer) RegisterAttendee(context.Context, *RegisterAttendeeRequest) (*RegisterAttendeeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RegisterAttendee not implemented")
}
func (UnimplementedAttendanceServer) Validate(context.Context, *ValidateRequest) (*ValidationResult, error) {
	return nil, status.Error(codes.Unimplemented, "method Validate not implemented")
}
func (UnimplementedAttendanceServer) CheckIn(context.Context, *CheckInRequest) (*ValidationResult, error) {
	return nil, status.Error(codes.Unimplemented, "method CheckIn not implemented")
}
func (UnimplementedAttendanceServer) Stats(context.Context, *StatsRequest) (*StatsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Stats not implemented")
}

// unary builds a grpc.MethodHandler the way protoc-gen-go-grpc does for
// each method, decoding into a fresh Req and honoring the interceptor chain.
func unary[Req any, Resp any](fullMethod string, call func(AttendanceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AttendanceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AttendanceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes rollcall.v1.Attendance for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AttendanceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: unary(MethodPing, AttendanceServer.Ping)},
		{MethodName: "Login", Handler: unary(MethodLogin, AttendanceServer.Login)},
		{MethodName: "RefreshToken", Handler: unary(MethodRefreshToken, AttendanceServer.RefreshToken)},
		{MethodName: "ListAttendees", Handler: unary(MethodListAttendees, AttendanceServer.ListAttendees)},
		{MethodName: "RegisterAttendee", Handler: unary(MethodRegisterAttendee, AttendanceServer.RegisterAttendee)},
		{MethodName: "Validate", Handler: unary(MethodValidate, AttendanceServer.Validate)},
		{MethodName: "CheckIn", Handler: unary(MethodCheckIn, AttendanceServer.CheckIn)},
		{MethodName: "Stats", Handler: unary(MethodStats, AttendanceServer.Stats)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rollcall/v1/attendance",
}

func RegisterAttendanceServer(s grpc.ServiceRegistrar, srv AttendanceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
