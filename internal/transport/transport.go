// Package transport defines the contract between the API surfaces and the
// service.
//
// Each transport (HTTP/WebSocket, gRPC) decodes requests, calls the Service
// and encodes the result. The service does not know which transport a
// request arrived on.
package transport

import (
	"context"

	"github.com/nadzzz/tandem/internal/conversation"
)

// Service is the set of operations every transport exposes.
// *service.Service implements it.
type Service interface {
	ProcessTurn(ctx context.Context, req *conversation.TurnRequest) (*conversation.TurnResponse, error)
	GenerateHomework(ctx context.Context, req *conversation.HomeworkRequest) (*conversation.HomeworkResponse, error)
	GenerateChatName(ctx context.Context, req *conversation.ChatNameRequest) (*conversation.ChatNameResponse, error)
	VerifyKey(ctx context.Context, req *conversation.VerifyKeyRequest) (*conversation.VerifyKeyResponse, error)
}

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "grpc", "http").
	Name() string

	// Listen starts accepting requests and serves them with svc.
	// It blocks until the context is cancelled.
	Listen(ctx context.Context, svc Service) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
