// Package chat serves direct messages between users.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oggyb/swipe-server/internal/app"
	"github.com/oggyb/swipe-server/internal/db"
	svcErr "github.com/oggyb/swipe-server/internal/errors"
	"github.com/oggyb/swipe-server/internal/mission"
	"github.com/oggyb/swipe-server/internal/repository"
	"github.com/oggyb/swipe-server/internal/service/missions"
	"github.com/oggyb/swipe-server/internal/service/users"
	"github.com/oggyb/swipe-server/internal/storage"
)

const (
	EventMessageReceived = "message received"

	disappearAfter = 24 * time.Hour
	maxMessageLen  = 5000
)

// Service stores direct messages and relays them to receivers.
type Service struct {
	appCtx     *app.AppContext
	userRepo   *repository.UserRepository
	socialRepo *repository.SocialRepository
	missions   *missions.Service
}

func NewChatService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:     appCtx,
		userRepo:   repository.NewUserRepository(appCtx.DB),
		socialRepo: repository.NewSocialRepository(appCtx.DB),
		missions:   missions.NewMissionService(appCtx),
	}
}

type SendRequest struct {
	ReceiverID     uint64 `json:"receiverId"`
	Message        string `json:"message"`
	Type           string `json:"type"`
	ReplyTo        string `json:"replyTo"`
	IsDisappearing bool   `json:"isDisappearing"`
	FileKey        string `json:"fileKey"`
	FileName       string `json:"fileName"`
	FileSize       int64  `json:"fileSize"`
	MimeType       string `json:"mimeType"`
}

func (req *SendRequest) validate(senderID uint64) error {
	if req.ReceiverID == 0 {
		return svcErr.InvalidArgument("receiverId is required")
	}
	if req.ReceiverID == senderID {
		return svcErr.InvalidArgument("cannot message yourself")
	}
	req.Message = strings.TrimSpace(req.Message)
	if len(req.Message) > maxMessageLen {
		return svcErr.InvalidArgument("message is too long")
	}

	if req.Type == "" {
		req.Type = db.MessageText
	}
	switch req.Type {
	case db.MessageText:
		if req.Message == "" {
			return svcErr.InvalidArgument("message is required")
		}
	case db.MessageImage, db.MessageFile, db.MessageVoice:
		if req.FileKey == "" {
			return svcErr.InvalidArgument("fileKey is required for " + req.Type + " messages")
		}
	default:
		return svcErr.InvalidArgument("invalid message type")
	}
	if req.FileKey != "" && !storage.OwnsKey(senderID, req.FileKey) {
		return svcErr.InvalidArgument("fileKey must come from your own upload")
	}
	if req.FileSize < 0 {
		return svcErr.InvalidArgument("fileSize must not be negative")
	}
	return nil
}

// Send stores a message from senderID and relays it to the receiver.
//
// Behavior:
//   - Text needs a body; image/file/voice need a fileKey from the
//     sender's own upload folder.
//   - Fails with 403 when the receiver blocked the sender.
//   - Disappearing messages expire 24h after sending.
//   - Bumps the sender's send10Messages counter.
func (s *Service) Send(ctx context.Context, senderID uint64, req SendRequest) (*db.Message, error) {
	if err := req.validate(senderID); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetActive(ctx, req.ReceiverID); err != nil {
		if repository.IsNotFound(err) {
			return nil, svcErr.NotFound("receiver not found")
		}
		return nil, err
	}
	blocked, err := s.socialRepo.HasBlocked(ctx, req.ReceiverID, senderID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, svcErr.Forbidden("you cannot message this user")
	}

	now := s.appCtx.Now()
	msg := &db.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		Body:       req.Message,
		Type:       req.Type,
		FileKey:    req.FileKey,
		FileName:   req.FileName,
		FileSize:   req.FileSize,
		MimeType:   req.MimeType,
		ReplyToID:  req.ReplyTo,
		CreatedAt:  now,
	}
	if req.IsDisappearing {
		expire := now.Add(disappearAfter)
		msg.ExpireAt = &expire
	}
	if err := s.appCtx.Messages.Save(ctx, msg); err != nil {
		return nil, err
	}

	s.missions.TrackAll(ctx, senderID, mission.SendTenMessages)
	s.attachURL(ctx, msg)
	s.appCtx.Relay.PublishToUser(req.ReceiverID, EventMessageReceived, msg)
	return msg, nil
}

// Conversation returns the messages between userID and partnerID, oldest
// first, after marking the partner's messages as read.
func (s *Service) Conversation(ctx context.Context, userID, partnerID uint64, search string) ([]db.Message, error) {
	if partnerID == userID {
		return nil, svcErr.InvalidArgument("invalid userId")
	}
	now := s.appCtx.Now()
	if err := s.appCtx.Messages.MarkRead(ctx, userID, partnerID, now); err != nil {
		return nil, err
	}
	msgs, err := s.appCtx.Messages.Conversation(ctx, userID, partnerID, search, now)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		s.attachURL(ctx, &msgs[i])
	}
	if msgs == nil {
		msgs = []db.Message{}
	}
	return msgs, nil
}

// ConversationSummary is one row of the inbox.
type ConversationSummary struct {
	User        users.Profile `json:"user"`
	LastMessage db.Message    `json:"lastMessage"`
}

// Conversations lists the latest message per partner, newest first.
func (s *Service) Conversations(ctx context.Context, userID uint64) ([]ConversationSummary, error) {
	latest, err := s.appCtx.Messages.Latest(ctx, userID, s.appCtx.Now())
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(latest))
	for _, m := range latest {
		ids = append(ids, partnerOf(userID, m))
	}
	found, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	now := s.appCtx.Now()
	profiles := make(map[uint64]users.Profile, len(found))
	for i := range found {
		profiles[found[i].ID] = users.Summary(&found[i], now)
	}

	out := make([]ConversationSummary, 0, len(latest))
	for _, m := range latest {
		p, ok := profiles[partnerOf(userID, m)]
		if !ok {
			continue
		}
		out = append(out, ConversationSummary{User: p, LastMessage: m})
	}
	return out, nil
}

// UploadURL presigns a PUT for a new attachment. Storage failures are
// upstream errors.
func (s *Service) UploadURL(ctx context.Context, userID uint64, fileName string) (key, url string, err error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return "", "", svcErr.InvalidArgument("fileName is required")
	}
	key, url, err = s.appCtx.Storage.PresignUpload(ctx, userID, fileName)
	if err != nil {
		return "", "", fmt.Errorf("%w: presign upload: %v", svcErr.ErrUpstream, err)
	}
	return key, url, nil
}

// attachURL fills FileURL for attachment messages. A storage failure only
// leaves the URL empty.
func (s *Service) attachURL(ctx context.Context, msg *db.Message) {
	if msg.FileKey == "" || s.appCtx.Storage == nil {
		return
	}
	url, err := s.appCtx.Storage.PresignDownload(ctx, msg.FileKey)
	if err != nil {
		s.appCtx.Logger.Warn("presign download failed", "key", msg.FileKey, "err", err)
		return
	}
	msg.FileURL = url
}

func partnerOf(userID uint64, m db.Message) uint64 {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}
