package integration

import (
	"context"
	"fmt"

	"github.com/chirpstack/chirpstack/api/go/v4/integration"
	"github.com/nats-io/nats.go"

	"github.com/mpapenbr/lorawan-service-manager/log"
	"github.com/mpapenbr/lorawan-service-manager/pkg/config"
)

// NATS publishes every event on its own subject, see Subject.
type NATS struct {
	conn   *nats.Conn
	prefix string
	json   bool
}

func NewNATS(cfg *config.NATSConfig) (*NATS, error) {
	l := log.Default().Named("integration.nats")
	conn, err := nats.Connect(cfg.URL,
		nats.Name("lsm"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			l.Warn("disconnected", log.ErrorField(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			l.Info("reconnected", log.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", cfg.URL, err)
	}
	return &NATS{conn: conn, prefix: cfg.SubjectPrefix, json: cfg.JSON}, nil
}

// Subject returns <prefix>.<tenantId>.device.<devEui>.event.up
func Subject(prefix string, ev *integration.UplinkEvent) string {
	return fmt.Sprintf("%s.%s.device.%s.event.up",
		prefix, ev.GetDeviceInfo().GetTenantId(), ev.GetDeviceInfo().GetDevEui())
}

//nolint:whitespace // can't make both editor and linter happy
func (n *NATS) HandleUplinkEvent(
	ctx context.Context,
	ev *integration.UplinkEvent,
) error {
	b, err := marshal(ev, n.json)
	if err != nil {
		return err
	}
	return n.conn.Publish(Subject(n.prefix, ev), b)
}

func (n *NATS) Close() error {
	return n.conn.Drain()
}
