// Package grpc implements the gRPC transport for tandem.
//
// The server exposes tandem.v1.Tutor with unary ProcessTurn,
// GenerateHomework, GenerateChatName and VerifyKey methods. Messages are the
// same JSON documents the HTTP transport uses, carried by a registered
// "json" codec, so no generated stubs are needed.
package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nadzzz/tandem/internal/apperr"
	"github.com/nadzzz/tandem/internal/conversation"
	"github.com/nadzzz/tandem/internal/transport"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "tandem.v1.Tutor"

// defaultMaxUpload matches the HTTP transport's upload limit.
const defaultMaxUpload = 25 << 20

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port       int
	maxRecvMsg int
	server     *grpc.Server
}

// New creates a new gRPC transport on the given port. maxUploadBytes is the
// largest audio upload accepted; zero selects the HTTP transport's default.
func New(port int, maxUploadBytes int64) *Transport {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUpload
	}
	// Audio travels base64-encoded inside the JSON message.
	return &Transport{port: port, maxRecvMsg: int(maxUploadBytes/3*4 + 64<<10)}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Listen starts the gRPC server and serves requests with svc.
func (t *Transport) Listen(ctx context.Context, svc transport.Service) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	srv := t.Register(svc)
	slog.Info("grpc transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		_ = t.Close()
	}()

	if err := srv.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Register builds the server with svc registered as tandem.v1.Tutor.
func (t *Transport) Register(svc transport.Service) *grpc.Server {
	t.server = grpc.NewServer(
		grpc.ChainUnaryInterceptor(logUnary),
		grpc.MaxRecvMsgSize(t.maxRecvMsg),
	)
	t.server.RegisterService(&serviceDesc, svc)
	return t.server
}

// Close gracefully stops the gRPC server.
func (t *Transport) Close() error {
	if t.server != nil {
		t.server.GracefulStop()
	}
	return nil
}

// Code maps an error kind to a gRPC status code.
func Code(err error) codes.Code {
	switch apperr.KindOf(err) {
	case apperr.KindInvalidSession, apperr.KindInvalidRequest, apperr.KindUnsupportedProvider:
		return codes.InvalidArgument
	case apperr.KindTranscription, apperr.KindModelCall, apperr.KindSynthesis:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

func toStatus(err error) error {
	if err == nil {
		return nil
	}
	return status.Error(Code(err), err.Error())
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	slog.Info("grpc call", "method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start))
	return resp, err
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*transport.Service)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ProcessTurn", Handler: unary(func(ctx context.Context, svc transport.Service, req *conversation.TurnRequest) (any, error) {
			return svc.ProcessTurn(ctx, req)
		})},
		{MethodName: "GenerateHomework", Handler: unary(func(ctx context.Context, svc transport.Service, req *conversation.HomeworkRequest) (any, error) {
			return svc.GenerateHomework(ctx, req)
		})},
		{MethodName: "GenerateChatName", Handler: unary(func(ctx context.Context, svc transport.Service, req *conversation.ChatNameRequest) (any, error) {
			return svc.GenerateChatName(ctx, req)
		})},
		{MethodName: "VerifyKey", Handler: unary(func(ctx context.Context, svc transport.Service, req *conversation.VerifyKeyRequest) (any, error) {
			return svc.VerifyKey(ctx, req)
		})},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tandem/v1/tutor",
}

// unary adapts a typed service call to a grpc.MethodDesc handler.
func unary[Req any](call func(context.Context, transport.Service, *Req) (any, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "decoding request: %v", err)
		}
		svc := srv.(transport.Service)
		invoke := func(ctx context.Context, r any) (any, error) {
			resp, err := call(ctx, svc, r.(*Req))
			if err != nil {
				return nil, toStatus(err)
			}
			return resp, nil
		}
		if interceptor == nil {
			return invoke(ctx, req)
		}
		return interceptor(ctx, req, &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(ctx)}, invoke)
	}
}

func fullMethod(ctx context.Context) string {
	if m, ok := grpc.Method(ctx); ok {
		return m
	}
	return ServiceName
}
