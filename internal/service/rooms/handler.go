package rooms

import (
	"net/http"

	"github.com/oggyb/swipe-server/internal/auth"
	"github.com/oggyb/swipe-server/internal/utils/respond"
)

func (s *Service) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	var req CreateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	room, err := s.Create(r.Context(), userID, req)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, room)
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.RequireUser(w, r); !ok {
		return
	}
	list, err := s.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.RequireUser(w, r); !ok {
		return
	}
	roomID, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	room, err := s.Get(r.Context(), roomID)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, room)
}

func (s *Service) handleJoin(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	roomID, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	room, err := s.Join(r.Context(), userID, roomID)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, room)
}

func (s *Service) handleLeave(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	roomID, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	if err := s.Leave(r.Context(), userID, roomID); err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.Message(w, http.StatusOK, "Left room successfully")
}

func (s *Service) handlePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	roomID, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	var req PostRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	msg, err := s.Post(r.Context(), userID, roomID, req)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, msg)
}

func (s *Service) handleMessages(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.RequireUser(w, r); !ok {
		return
	}
	roomID, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	msgs, err := s.Messages(r.Context(), roomID)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, msgs)
}
