package rooms

import (
	"net/http"

	"github.com/oggyb/swipe-server/internal/app"
)

// Registrar ties the rooms API into the HTTP mux
type Registrar struct {
	service *Service
}

// NewRegistrar creates a new Registrar for the rooms service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{service: NewRoomService(appCtx)}
}

// RegisterRoutes attaches the /api/rooms endpoints
func (r *Registrar) RegisterRoutes(mux *http.ServeMux) {
	s := r.service
	mux.HandleFunc("POST /api/rooms", s.handleCreate)
	mux.HandleFunc("GET /api/rooms", s.handleList)
	mux.HandleFunc("GET /api/rooms/{id}", s.handleGet)
	mux.HandleFunc("POST /api/rooms/{id}/join", s.handleJoin)
	mux.HandleFunc("POST /api/rooms/{id}/leave", s.handleLeave)
	mux.HandleFunc("POST /api/rooms/{id}/messages", s.handlePost)
	mux.HandleFunc("GET /api/rooms/{id}/messages", s.handleMessages)
}
