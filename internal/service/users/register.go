package users

import (
	"net/http"

	"github.com/oggyb/swipe-server/internal/app"
)

// Registrar ties the users API into the HTTP mux
type Registrar struct {
	service *Service
}

// NewRegistrar creates a new Registrar for the users service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{service: NewUserService(appCtx)}
}

// RegisterRoutes attaches the /api/users endpoints
func (r *Registrar) RegisterRoutes(mux *http.ServeMux) {
	s := r.service
	mux.HandleFunc("GET /api/users/me", s.handleMe)
	mux.HandleFunc("PUT /api/users/me", s.handleUpdateMe)
	mux.HandleFunc("GET /api/users", s.handleList)
	mux.HandleFunc("GET /api/users/{id}", s.handleGet)
	mux.HandleFunc("POST /api/users/{id}/follow", s.edgeHandler(s.Follow, "followed"))
	mux.HandleFunc("DELETE /api/users/{id}/follow", s.edgeHandler(s.Unfollow, "unfollowed"))
	mux.HandleFunc("POST /api/users/{id}/block", s.edgeHandler(s.Block, "blocked"))
	mux.HandleFunc("DELETE /api/users/{id}/block", s.edgeHandler(s.Unblock, "unblocked"))
}
