package chat

import (
	"net/http"

	"github.com/oggyb/swipe-server/internal/app"
)

// Registrar ties the chat API into the HTTP mux
type Registrar struct {
	service *Service
}

// NewRegistrar creates a new Registrar for the chat service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{service: NewChatService(appCtx)}
}

// RegisterRoutes attaches the /api/chat endpoints
func (r *Registrar) RegisterRoutes(mux *http.ServeMux) {
	s := r.service
	mux.HandleFunc("POST /api/chat/messages", s.handleSend)
	mux.HandleFunc("GET /api/chat/messages/{userId}", s.handleConversation)
	mux.HandleFunc("GET /api/chat/conversations", s.handleConversations)
	mux.HandleFunc("POST /api/chat/upload-url", s.handleUploadURL)
}
