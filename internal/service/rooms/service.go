// Package rooms serves group chat rooms: membership and room messages.
package rooms

import (
	"context"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/oggyb/swipe-server/internal/app"
	"github.com/oggyb/swipe-server/internal/db"
	svcErr "github.com/oggyb/swipe-server/internal/errors"
	"github.com/oggyb/swipe-server/internal/mission"
	"github.com/oggyb/swipe-server/internal/repository"
	"github.com/oggyb/swipe-server/internal/service/missions"
	"github.com/oggyb/swipe-server/internal/service/users"
)

const (
	EventRoomMessage = "room message"
	EventUserJoined  = "user joined"
	EventUserLeft    = "user left"

	listLimit       = 50
	messagesLimit   = 100
	maxTitleLen     = 128
	maxMessageLen   = 2000
	maxParticipants = 500
)

type Service struct {
	appCtx   *app.AppContext
	roomRepo *repository.RoomRepository
	userRepo *repository.UserRepository
	missions *missions.Service
}

func NewRoomService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		roomRepo: repository.NewRoomRepository(appCtx.DB),
		userRepo: repository.NewUserRepository(appCtx.DB),
		missions: missions.NewMissionService(appCtx),
	}
}

type CreateRequest struct {
	Title           string `json:"title"`
	Category        string `json:"category"`
	Description     string `json:"description"`
	MaxParticipants int    `json:"maxParticipants"`
}

// Summary is a room as listed, with its member count.
type Summary struct {
	db.Room
	ParticipantCount int64 `json:"participantCount"`
}

// Detail is a single room with its creator and members.
type Detail struct {
	db.Room
	Creator      *users.Profile  `json:"creator,omitempty"`
	Participants []users.Profile `json:"participants"`
}

// MessageView is a room message with its sender's profile.
type MessageView struct {
	db.RoomMessage
	Sender *users.Profile `json:"sender,omitempty"`
}

// Create opens a new active room; the creator is its first member.
func (s *Service) Create(ctx context.Context, userID uint64, req CreateRequest) (*Detail, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Category = strings.TrimSpace(req.Category)
	switch {
	case req.Title == "":
		return nil, svcErr.InvalidArgument("title is required")
	case len(req.Title) > maxTitleLen:
		return nil, svcErr.InvalidArgument("title is too long")
	case req.Category == "":
		return nil, svcErr.InvalidArgument("category is required")
	case req.MaxParticipants < 0 || req.MaxParticipants > maxParticipants:
		return nil, svcErr.InvalidArgument("maxParticipants must be between 0 and " + strconv.Itoa(maxParticipants))
	}

	room := &db.Room{
		Name:            req.Title,
		Category:        req.Category,
		Description:     strings.TrimSpace(req.Description),
		CreatorID:       userID,
		IsActive:        true,
		MaxParticipants: req.MaxParticipants,
	}
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.NewRoomRepository(tx)
		if err := repo.Create(ctx, room); err != nil {
			return err
		}
		_, err := repo.Join(ctx, room.ID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.appCtx.Logger.Info("room created", "room_id", room.ID, "creator_id", userID)
	return s.detail(ctx, room)
}

// List returns active rooms, newest first, optionally filtered by category.
func (s *Service) List(ctx context.Context, category string) ([]Summary, error) {
	rooms, err := s.roomRepo.ListActive(ctx, strings.TrimSpace(category), listLimit)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, len(rooms))
	for i := range rooms {
		ids[i] = rooms[i].ID
	}
	counts, err := s.roomRepo.ParticipantCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]Summary, len(rooms))
	for i := range rooms {
		out[i] = Summary{Room: rooms[i], ParticipantCount: counts[rooms[i].ID]}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, roomID uint64) (*Detail, error) {
	room, err := s.load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, room)
}

// Join adds userID to an active room. Joining twice is a no-op; only the
// first join counts toward join3Rooms and is announced to the room.
func (s *Service) Join(ctx context.Context, userID, roomID uint64) (*Detail, error) {
	room, err := s.loadActive(ctx, roomID)
	if err != nil {
		return nil, err
	}

	var joined bool
	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.NewRoomRepository(tx)
		member, err := repo.IsParticipant(ctx, roomID, userID)
		if err != nil || member {
			return err
		}
		if room.MaxParticipants > 0 {
			n, err := repo.CountParticipants(ctx, roomID)
			if err != nil {
				return err
			}
			if n >= int64(room.MaxParticipants) {
				return svcErr.InvalidArgument("room is full")
			}
		}
		joined, err = repo.Join(ctx, roomID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if joined {
		s.missions.TrackAll(ctx, userID, mission.JoinThreeRooms)
		s.appCtx.Relay.PublishToRoom(roomKey(roomID), EventUserJoined,
			map[string]uint64{"roomId": roomID, "userId": userID}, userID)
	}
	return s.detail(ctx, room)
}

// Leave removes userID from the room. Leaving a room one is not in is a no-op.
func (s *Service) Leave(ctx context.Context, userID, roomID uint64) error {
	if _, err := s.load(ctx, roomID); err != nil {
		return err
	}
	left, err := s.roomRepo.Leave(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if left {
		s.appCtx.Relay.PublishToRoom(roomKey(roomID), EventUserLeft,
			map[string]uint64{"roomId": roomID, "userId": userID}, userID)
	}
	return nil
}

type PostRequest struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Post stores a message from a room member and relays it to the other
// members listening on the room channel.
func (s *Service) Post(ctx context.Context, userID, roomID uint64, req PostRequest) (*MessageView, error) {
	req.Message = strings.TrimSpace(req.Message)
	if req.Type == "" {
		req.Type = db.RoomMessageText
	}
	switch {
	case req.Message == "":
		return nil, svcErr.InvalidArgument("message is required")
	case len(req.Message) > maxMessageLen:
		return nil, svcErr.InvalidArgument("message is too long")
	case req.Type != db.RoomMessageText && req.Type != db.RoomMessageImage:
		return nil, svcErr.InvalidArgument("invalid message type")
	}

	if _, err := s.loadActive(ctx, roomID); err != nil {
		return nil, err
	}
	member, err := s.roomRepo.IsParticipant(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, svcErr.Forbidden("join the room before posting")
	}

	msg := &db.RoomMessage{RoomID: roomID, SenderID: userID, Body: req.Message, Type: req.Type}
	if err := s.roomRepo.AddMessage(ctx, msg); err != nil {
		return nil, err
	}

	views, err := s.withSenders(ctx, []db.RoomMessage{*msg})
	if err != nil {
		return nil, err
	}
	view := &views[0]

	s.missions.TrackAll(ctx, userID, mission.SendRoomMessage)
	s.appCtx.Relay.PublishToRoom(roomKey(roomID), EventRoomMessage, view, userID)
	return view, nil
}

// Messages returns the latest room messages, oldest first.
func (s *Service) Messages(ctx context.Context, roomID uint64) ([]MessageView, error) {
	if _, err := s.load(ctx, roomID); err != nil {
		return nil, err
	}
	msgs, err := s.roomRepo.Messages(ctx, roomID, messagesLimit)
	if err != nil {
		return nil, err
	}
	return s.withSenders(ctx, msgs)
}

func (s *Service) load(ctx context.Context, roomID uint64) (*db.Room, error) {
	room, err := s.roomRepo.Get(ctx, roomID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, svcErr.NotFound("room not found")
		}
		return nil, err
	}
	return room, nil
}

func (s *Service) loadActive(ctx context.Context, roomID uint64) (*db.Room, error) {
	room, err := s.load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsActive {
		return nil, svcErr.NotFound("room not found")
	}
	return room, nil
}

func (s *Service) detail(ctx context.Context, room *db.Room) (*Detail, error) {
	ids, err := s.roomRepo.ParticipantIDs(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	members, err := s.userRepo.GetByIDs(ctx, append(ids, room.CreatorID))
	if err != nil {
		return nil, err
	}

	now := s.appCtx.Now()
	out := &Detail{Room: *room, Participants: make([]users.Profile, 0, len(ids))}
	isMember := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		isMember[id] = true
	}
	for i := range members {
		p := users.Summary(&members[i], now)
		if members[i].ID == room.CreatorID && out.Creator == nil {
			creator := p
			out.Creator = &creator
		}
		if isMember[members[i].ID] {
			out.Participants = append(out.Participants, p)
			isMember[members[i].ID] = false
		}
	}
	return out, nil
}

func (s *Service) withSenders(ctx context.Context, msgs []db.RoomMessage) ([]MessageView, error) {
	ids := make([]uint64, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.SenderID)
	}
	senders, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	now := s.appCtx.Now()
	byID := make(map[uint64]users.Profile, len(senders))
	for i := range senders {
		byID[senders[i].ID] = users.Summary(&senders[i], now)
	}

	out := make([]MessageView, len(msgs))
	for i, m := range msgs {
		out[i] = MessageView{RoomMessage: m}
		if p, ok := byID[m.SenderID]; ok {
			out[i].Sender = &p
		}
	}
	return out, nil
}

func roomKey(roomID uint64) string { return strconv.FormatUint(roomID, 10) }
