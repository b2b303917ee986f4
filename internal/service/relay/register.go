package relay

import (
	"google.golang.org/grpc"

	"github.com/oggyb/swipe-server/internal/app"
)

// Registrar ties the relay service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
	hub    *Hub
}

// NewRegistrar creates a new Registrar for the relay service
func NewRegistrar(appCtx *app.AppContext, hub *Hub) *Registrar {
	return &Registrar{appCtx: appCtx, hub: hub}
}

// Register attaches the relay implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	s.RegisterService(&ServiceDesc, NewRelayService(r.appCtx, r.hub))
}
