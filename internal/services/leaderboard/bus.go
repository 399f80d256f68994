package leaderboard

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// DefaultSubject is the NATS subject leaderboard updates travel on.
const DefaultSubject = "trickshot.leaderboard"

// Bus fans leaderboard updates out across server nodes over NATS. Each node
// publishes its refreshed top entries after a submission and merges whatever
// the other nodes publish, so the boards converge without a shared store.
type Bus struct {
	nc      *nats.Conn
	subject string
	logger  *zap.Logger
}

// AttachBus wires the board to a NATS connection. Call once during wiring;
// the board works fine without one.
func (b *Board) AttachBus(nc *nats.Conn, subject string) (*Bus, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	bus := &Bus{nc: nc, subject: subject, logger: b.logger}

	_, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		var remote []Entry
		if err := json.Unmarshal(msg.Data, &remote); err != nil {
			bus.logger.Warn("bad leaderboard update on bus", zap.Error(err))
			return
		}
		b.merge(remote)
	})
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.bus = bus
	b.mu.Unlock()
	b.logger.Info("leaderboard bus attached", zap.String("subject", subject))
	return bus, nil
}

// publish is fire-and-forget; a dropped update only delays convergence
// until the next submission.
func (bus *Bus) publish(top []Entry) {
	data, err := json.Marshal(top)
	if err != nil {
		bus.logger.Error("encode leaderboard update", zap.Error(err))
		return
	}
	if err := bus.nc.Publish(bus.subject, data); err != nil {
		bus.logger.Warn("publish leaderboard update", zap.Error(err))
	}
}
