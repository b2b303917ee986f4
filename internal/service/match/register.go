package match

import (
	"net/http"

	"github.com/oggyb/swipe-server/internal/app"
)

// Registrar ties the match API into the HTTP mux
type Registrar struct {
	service *Service
}

// NewRegistrar creates a new Registrar for the match service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{service: NewMatchService(appCtx)}
}

// RegisterRoutes attaches the /api/match endpoints
func (r *Registrar) RegisterRoutes(mux *http.ServeMux) {
	s := r.service
	mux.HandleFunc("GET /api/match/discovery", s.handleDiscovery)
	mux.HandleFunc("POST /api/match/swipe", s.handleSwipe)
	mux.HandleFunc("POST /api/match/instant-match", s.handleInstantMatch)
	mux.HandleFunc("POST /api/match/rematch", s.handleRematch)
	mux.HandleFunc("POST /api/match/unmatch", s.handleUnmatch)
	mux.HandleFunc("GET /api/match/matches", s.handleMatches)
	mux.HandleFunc("GET /api/match/likes", s.handleLikes)
	mux.HandleFunc("GET /api/match/likes/count", s.handleLikesCount)
	mux.HandleFunc("POST /api/match/visit/{id}", s.handleVisit)
	mux.HandleFunc("GET /api/match/visitors", s.handleVisitors)
	mux.HandleFunc("POST /api/match/boost", s.handleBoost)
	mux.HandleFunc("POST /api/match/travel", s.handleTravel)
	mux.HandleFunc("POST /api/match/rewind", s.handleRewind)
	mux.HandleFunc("POST /api/match/reset-dislikes", s.handleResetDislikes)
	mux.HandleFunc("GET /api/match/top-picks", s.handleTopPicks)
	mux.HandleFunc("POST /api/match/blind-date/find", s.handleBlindDate)
}
