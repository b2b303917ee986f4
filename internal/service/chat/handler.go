package chat

import (
	"net/http"

	"github.com/oggyb/swipe-server/internal/auth"
	"github.com/oggyb/swipe-server/internal/utils/respond"
)

type uploadRequest struct {
	FileName string `json:"fileName"`
}

type uploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func (s *Service) handleSend(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	var req SendRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	msg, err := s.Send(r.Context(), userID, req)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, msg)
}

func (s *Service) handleConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	partnerID, err := respond.PathID(r, "userId")
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	msgs, err := s.Conversation(r.Context(), userID, partnerID, r.URL.Query().Get("search"))
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, msgs)
}

func (s *Service) handleConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	list, err := s.Conversations(r.Context(), userID)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

func (s *Service) handleUploadURL(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	var req uploadRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	key, url, err := s.UploadURL(r.Context(), userID, req.FileName)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, uploadResponse{Key: key, URL: url})
}
