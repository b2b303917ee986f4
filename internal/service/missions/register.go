package missions

import (
	"net/http"

	"github.com/oggyb/swipe-server/internal/app"
)

// Registrar ties the missions API into the HTTP mux
type Registrar struct {
	service *Service
}

// NewRegistrar creates a new Registrar for the missions service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{service: NewMissionService(appCtx)}
}

// RegisterRoutes attaches the /api/missions endpoints
func (r *Registrar) RegisterRoutes(mux *http.ServeMux) {
	s := r.service
	mux.HandleFunc("GET /api/missions/status", s.handleStatus)
	mux.HandleFunc("POST /api/missions/claim", s.handleClaim)
	mux.HandleFunc("POST /api/missions/login", s.handleLogin)
	mux.HandleFunc("POST /api/missions/share", s.handleShare)
}
