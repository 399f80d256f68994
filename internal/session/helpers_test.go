package session

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trickshot/internal/game/physics"
	"trickshot/internal/identity"
	"trickshot/internal/match"
	"trickshot/internal/network"
	"trickshot/internal/services/leaderboard"
	"trickshot/internal/session/message"
)

type fakeConn struct {
	ch   chan network.Message
	addr string
}

func newFakeConn(addr string) *fakeConn {
	return &fakeConn{ch: make(chan network.Message, 1024), addr: addr}
}

func (f *fakeConn) Send() chan<- network.Message { return f.ch }

func (f *fakeConn) Addr() string { return f.addr }

// recv pops the next message, failing the test if none arrives in time.
func (f *fakeConn) recv(t *testing.T) network.Message {
	t.Helper()
	select {
	case msg := <-f.ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("expected a message, got none")
		return network.Message{}
	}
}

// recvType drains until a message of the wanted type arrives.
func (f *fakeConn) recvType(t *testing.T, msgType string) network.Message {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case msg := <-f.ch:
			if msg.Type == msgType {
				return msg
			}
		case <-deadline:
			t.Fatalf("no %q message arrived", msgType)
		}
	}
}

func (f *fakeConn) drain() {
	for {
		select {
		case <-f.ch:
		default:
			return
		}
	}
}

func (f *fakeConn) empty() bool { return len(f.ch) == 0 }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	handler  *GameHandler
	clock    *fakeClock
	registry *match.Registry
	cleanup  *match.Cleanup
	board    *leaderboard.Board
}

// newFixture wires a handler against fakes: settable clock, zero wind so
// physics is predictable, memory-only identities.
func newFixture(t *testing.T, tick time.Duration) *fixture {
	t.Helper()
	clock := newFakeClock()
	registry := match.NewRegistry(match.Options{
		Clock:    clock.Now,
		WindRoll: func() physics.Vector { return physics.Vector{} },
	})
	cleanup := match.NewCleanup(registry, 20*time.Millisecond, nil)
	board := leaderboard.NewBoard(clock.Now, nil)
	ids, err := identity.NewStore("", nil)
	require.NoError(t, err)

	return &fixture{
		handler: NewGameHandler(Deps{
			Registry:     registry,
			Cleanup:      cleanup,
			Board:        board,
			Identities:   ids,
			TickInterval: tick,
		}),
		clock:    clock,
		registry: registry,
		cleanup:  cleanup,
		board:    board,
	}
}

// connect opens a session and logs it in, returning the conn and its token.
func (fx *fixture) connect(t *testing.T, addr string) (*fakeConn, string) {
	t.Helper()
	c := newFakeConn(addr)
	fx.handler.OnConnect(c)
	fx.handler.OnMessage(c, cmd(t, cmdLogin, loginPayload{}))

	var welcome message.WelcomePayload
	decodePayload(t, c.recvType(t, message.TypeWelcome), &welcome)
	return c, welcome.Token
}

func cmd(t *testing.T, msgType string, payload any) network.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return network.Message{Type: msgType, Payload: data}
}

func decodePayload(t *testing.T, msg network.Message, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(msg.Payload, into))
}

func snapshotOf(t *testing.T, msg network.Message) match.Snapshot {
	t.Helper()
	var snap match.Snapshot
	decodePayload(t, msg, &snap)
	return snap
}
