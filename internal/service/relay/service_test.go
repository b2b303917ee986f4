package relay_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oggyb/swipe-server/internal/app"
	"github.com/oggyb/swipe-server/internal/auth"
	"github.com/oggyb/swipe-server/internal/config"
	"github.com/oggyb/swipe-server/internal/logger"
	"github.com/oggyb/swipe-server/internal/service/relay"
)

const bufSize = 1024 * 1024

// startRelay serves the relay over an in-memory listener and returns a
// connected client.
func startRelay(t *testing.T) (*grpc.ClientConn, *relay.Hub, *config.Config) {
	t.Helper()

	cfg := config.New()
	cfg.Auth.Secret = "relay-test-secret"

	appCtx := &app.AppContext{Config: cfg, Logger: logger.Discard()}
	hub := relay.NewHub(appCtx.Logger, nil)

	lis := bufconn.Listen(bufSize)
	srv := grpc.NewServer()
	relay.NewRegistrar(appCtx, hub).Register(srv)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn, hub, cfg
}

func openStream(t *testing.T, ctx context.Context, conn *grpc.ClientConn) grpc.ClientStream {
	t.Helper()
	stream, err := conn.NewStream(ctx, &relay.ServiceDesc.Streams[0], relay.ConnectMethod)
	require.NoError(t, err)
	return stream
}

func send(t *testing.T, stream grpc.ClientStream, event string, data map[string]any) {
	t.Helper()
	frame, err := relay.EncodeFrame(event, data)
	require.NoError(t, err)
	require.NoError(t, stream.SendMsg(frame))
}

func recv(t *testing.T, stream grpc.ClientStream) (string, map[string]any) {
	t.Helper()
	frame := &structpb.Struct{}
	require.NoError(t, stream.RecvMsg(frame))
	return relay.DecodeFrame(frame)
}

func TestRelay_SetupAndDirectMessage(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, hub, _ := startRelay(t)

	alice := openStream(t, ctx, conn)
	bob := openStream(t, ctx, conn)

	send(t, alice, relay.EventSetup, map[string]any{"userId": 1})
	event, data := recv(t, alice)
	require.Equal(t, relay.EventConnected, event)
	assert.Equal(t, float64(1), data["userId"])

	send(t, bob, relay.EventSetup, map[string]any{"userId": "2"})
	event, _ = recv(t, bob)
	require.Equal(t, relay.EventConnected, event)

	send(t, alice, relay.EventNewMessage, map[string]any{"receiverId": 2, "message": "hey"})
	event, data = recv(t, bob)
	assert.Equal(t, relay.EventMessageReceived, event)
	assert.Equal(t, "hey", data["message"])
	assert.Equal(t, float64(1), data["senderId"])

	// server-side publishes reach the stream too
	hub.PublishToUser(1, "match", map[string]any{"userId": 2})
	event, data = recv(t, alice)
	assert.Equal(t, "match", event)
	assert.Equal(t, float64(2), data["userId"])
}

func TestRelay_TypingSkipsSender(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, cfg := startRelay(t)

	tok, err := auth.GenerateToken(3, []byte(cfg.Auth.Secret), time.Hour)
	require.NoError(t, err)

	alice := openStream(t, ctx, conn)
	bob := openStream(t, ctx, conn)

	send(t, alice, relay.EventSetup, map[string]any{"token": tok})
	event, data := recv(t, alice)
	require.Equal(t, relay.EventConnected, event)
	assert.Equal(t, float64(3), data["userId"])

	send(t, bob, relay.EventSetup, map[string]any{"userId": 4})
	_, _ = recv(t, bob)

	send(t, alice, relay.EventJoinChat, map[string]any{"room": "r1"})
	send(t, bob, relay.EventJoinChat, map[string]any{"room": "r1"})
	// a round-trip on bob's stream guarantees its join was handled
	send(t, bob, "ping", nil)
	event, _ = recv(t, bob)
	require.Equal(t, relay.EventError, event)

	send(t, alice, relay.EventTyping, map[string]any{"room": "r1"})
	event, data = recv(t, bob)
	assert.Equal(t, relay.EventTyping, event)
	assert.Equal(t, float64(3), data["userId"])

	// alice's next frame is her own error reply, not the typing echo
	send(t, alice, "ping", nil)
	event, _ = recv(t, alice)
	assert.Equal(t, relay.EventError, event)
}

func TestRelay_RejectsEventsBeforeSetup(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, _ := startRelay(t)

	stream := openStream(t, ctx, conn)
	send(t, stream, relay.EventTyping, map[string]any{"room": "r1"})
	event, data := recv(t, stream)
	assert.Equal(t, relay.EventError, event)
	assert.Equal(t, "setup required", data["message"])

	send(t, stream, relay.EventSetup, map[string]any{"token": "garbage"})
	event, _ = recv(t, stream)
	assert.Equal(t, relay.EventError, event)
}

func TestRelay_MetadataTokenBindsStream(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, hub, cfg := startRelay(t)

	tok, err := auth.GenerateToken(9, []byte(cfg.Auth.Secret), time.Hour)
	require.NoError(t, err)
	stream := openStream(t, metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+tok), conn)

	event, data := recv(t, stream)
	assert.Equal(t, relay.EventConnected, event)
	assert.Equal(t, float64(9), data["userId"])

	hub.PublishToUser(9, "match", map[string]any{"userId": 3})
	event, _ = recv(t, stream)
	assert.Equal(t, "match", event)
}

func TestRelay_MetadataBadTokenIsUnauthenticated(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, _ := startRelay(t)

	stream := openStream(t, metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer nope"), conn)
	err := stream.RecvMsg(&structpb.Struct{})
	require.Error(t, err)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
