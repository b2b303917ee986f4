package server

import (
	"net/http"

	"google.golang.org/grpc"
)

// Registrar is a common interface for all gRPC service registrars
type Registrar interface {
	Register(s *grpc.Server)
}

// RouteRegistrar is implemented by every HTTP API service
type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux)
}
