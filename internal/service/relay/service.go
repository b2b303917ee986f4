package relay

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oggyb/swipe-server/internal/app"
	"github.com/oggyb/swipe-server/internal/auth"
)

// Client and server event names.
const (
	EventSetup           = "setup"
	EventConnected       = "connected"
	EventJoinChat        = "join chat"
	EventJoinRoomLive    = "join_room_live"
	EventLeaveChat       = "leave chat"
	EventLeaveRoomLive   = "leave_room_live"
	EventTyping          = "typing"
	EventStopTyping      = "stop typing"
	EventNewMessage      = "new message"
	EventMessageReceived = "message received"
	EventScreenSignal    = "screen_signal"
	EventScreenReceived  = "screen_signal_received"
	EventError           = "error"
)

// RelayServer is the server API for relay.v1.Relay.
type RelayServer interface {
	Connect(stream grpc.ServerStream) error
}

// ServiceDesc describes relay.v1.Relay: a single bidirectional stream of
// google.protobuf.Struct frames shaped {"event": string, "data": object}.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "relay.v1.Relay",
	HandlerType: (*RelayServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Connect",
			Handler:       connectHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "relay/v1/relay.proto",
}

// ConnectMethod is the full method name clients open streams on.
const ConnectMethod = "/relay.v1.Relay/Connect"

func connectHandler(srv any, stream grpc.ServerStream) error {
	return srv.(RelayServer).Connect(stream)
}

// Service implements the relay stream on top of the Hub.
type Service struct {
	appCtx *app.AppContext
	hub    *Hub
}

func NewRelayService(appCtx *app.AppContext, hub *Hub) *Service {
	return &Service{appCtx: appCtx, hub: hub}
}

// Connect runs one client session: a writer goroutine drains the
// subscriber queue while this goroutine reads client frames. A bearer token
// in the "authorization" metadata binds the stream up front, the same as a
// setup frame would.
func (s *Service) Connect(stream grpc.ServerStream) error {
	ctx := stream.Context()
	userID, err := s.userFromMetadata(ctx)
	if err != nil {
		return err
	}
	sub := s.hub.NewSubscriber(DefaultBuffer)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case ev, ok := <-sub.Events():
				if !ok {
					return
				}
				frame, err := EncodeFrame(ev.Name, ev.Data)
				if err != nil {
					s.appCtx.Logger.Warn("relay frame encode failed", "event", ev.Name, "err", err)
					continue
				}
				if err := stream.SendMsg(frame); err != nil {
					s.appCtx.Logger.Debug("relay send failed", "err", err)
					return
				}
			}
		}
	}()

	defer func() {
		close(stop)
		wg.Wait()
		s.hub.Remove(sub)
	}()

	if userID != 0 {
		s.bind(sub, userID)
	}

	for {
		in := &structpb.Struct{}
		if err := stream.RecvMsg(in); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		event, data := DecodeFrame(in)
		s.handle(sub, event, data)
	}
}

func (s *Service) handle(sub *Subscriber, event string, data map[string]any) {
	if event == EventSetup {
		s.setup(sub, data)
		return
	}

	userID := s.hub.UserID(sub)
	if userID == 0 {
		s.hub.Send(sub, EventError, map[string]any{"message": "setup required"})
		return
	}

	switch event {
	case EventJoinChat, EventJoinRoomLive:
		if room := roomFrom(data); room != "" {
			s.hub.Join(sub, RoomChannel(room))
		}

	case EventLeaveChat, EventLeaveRoomLive:
		if room := roomFrom(data); room != "" {
			s.hub.Leave(sub, RoomChannel(room))
		}

	case EventTyping, EventStopTyping:
		if room := roomFrom(data); room != "" {
			s.hub.Publish(RoomChannel(room), event, map[string]any{"room": room, "userId": userID}, sub, 0)
		}

	case EventNewMessage:
		receiverID, ok := idFrom(data["receiverId"])
		if !ok {
			s.hub.Send(sub, EventError, map[string]any{"message": "receiverId is required"})
			return
		}
		data["senderId"] = userID
		s.hub.PublishToUser(receiverID, EventMessageReceived, data)

	case EventScreenSignal:
		room := roomFrom(data)
		if room == "" {
			s.hub.Send(sub, EventError, map[string]any{"message": "roomId is required"})
			return
		}
		data["from"] = userID
		s.hub.Publish(RoomChannel(room), EventScreenReceived, data, sub, 0)

	default:
		s.hub.Send(sub, EventError, map[string]any{"message": "unknown event " + strconv.Quote(event)})
	}
}

// setup binds the stream to a user. A token, when sent, wins over userId.
func (s *Service) setup(sub *Subscriber, data map[string]any) {
	userID, ok := idFrom(data["userId"])
	if tok, _ := data["token"].(string); tok != "" {
		id, err := auth.GetUserIDFromToken(tok, []byte(s.appCtx.Config.Auth.Secret))
		if err != nil {
			s.hub.Send(sub, EventError, map[string]any{"message": err.Error()})
			return
		}
		userID, ok = id, true
	}
	if !ok {
		s.hub.Send(sub, EventError, map[string]any{"message": "userId is required"})
		return
	}

	s.bind(sub, userID)
}

func (s *Service) bind(sub *Subscriber, userID uint64) {
	s.hub.Identify(sub, userID)
	s.hub.Send(sub, EventConnected, map[string]any{"userId": userID})
	s.appCtx.Logger.Debug("relay client connected", "user_id", userID)
}

// userFromMetadata returns the user named by an "authorization: Bearer"
// header, or 0 when none was sent.
func (s *Service) userFromMetadata(ctx context.Context) (uint64, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return 0, nil
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return 0, nil
	}
	tok := strings.TrimSpace(strings.TrimPrefix(vals[0], "Bearer "))
	id, err := auth.GetUserIDFromToken(tok, []byte(s.appCtx.Config.Auth.Secret))
	if err != nil {
		return 0, status.Error(codes.Unauthenticated, "invalid token")
	}
	return id, nil
}

// EncodeFrame builds the wire frame for an event.
func EncodeFrame(event string, data map[string]any) (*structpb.Struct, error) {
	if data == nil {
		data = map[string]any{}
	}
	return structpb.NewStruct(map[string]any{"event": event, "data": data})
}

// DecodeFrame splits a wire frame into event name and data.
func DecodeFrame(frame *structpb.Struct) (string, map[string]any) {
	m := frame.AsMap()
	event, _ := m["event"].(string)
	data, _ := m["data"].(map[string]any)
	if data == nil {
		data = map[string]any{}
	}
	return event, data
}

func roomFrom(data map[string]any) string {
	for _, key := range []string{"room", "roomId"} {
		switch v := data[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func idFrom(v any) (uint64, bool) {
	switch id := v.(type) {
	case float64:
		if id > 0 && id == float64(uint64(id)) {
			return uint64(id), true
		}
	case string:
		n, err := strconv.ParseUint(id, 10, 64)
		if err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}
