// Package integration forwards uplink events to external systems.
package integration

import (
	"context"
	"errors"
	"fmt"

	"github.com/chirpstack/chirpstack/api/go/v4/integration"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/mpapenbr/lorawan-service-manager/log"
	"github.com/mpapenbr/lorawan-service-manager/pkg/config"
)

const (
	TypeRedis = "redis"
	TypeNATS  = "nats"
	TypeHTTP  = "http"
)

var ErrUnknownIntegration = errors.New("unknown integration")

type Integration interface {
	HandleUplinkEvent(ctx context.Context, ev *integration.UplinkEvent) error
	Close() error
}

// New creates the integrations enabled in cfg. Without any enabled
// integration a no-op Multi is returned.
func New(ctx context.Context, cfg *config.IntegrationConfig) (*Multi, error) {
	ret := NewMulti()
	for _, name := range cfg.Enabled {
		var (
			i   Integration
			err error
		)
		switch name {
		case TypeRedis:
			i, err = NewRedis(ctx, &cfg.Redis)
		case TypeNATS:
			i, err = NewNATS(&cfg.NATS)
		case TypeHTTP:
			i, err = NewHTTP(&cfg.HTTP)
		default:
			err = fmt.Errorf("%w: %s", ErrUnknownIntegration, name)
		}
		if err != nil {
			_ = ret.Close()
			return nil, err
		}
		ret.Add(name, i)
	}
	return ret, nil
}

func marshal(ev *integration.UplinkEvent, asJSON bool) ([]byte, error) {
	if asJSON {
		return protojson.MarshalOptions{EmitUnpopulated: true}.Marshal(ev)
	}
	return proto.Marshal(ev)
}

type named struct {
	name string
	i    Integration
}

// Multi passes events to all added integrations.
type Multi struct {
	items []named
	l     *log.Logger
}

func NewMulti() *Multi {
	return &Multi{l: log.Default().Named("integration")}
}

func (m *Multi) Add(name string, i Integration) {
	m.items = append(m.items, named{name: name, i: i})
}

func (m *Multi) Len() int {
	return len(m.items)
}

// HandleUplinkEvent calls every integration. Failures are logged and joined
// into the returned error.
//
//nolint:whitespace // can't make both editor and linter happy
func (m *Multi) HandleUplinkEvent(
	ctx context.Context,
	ev *integration.UplinkEvent,
) error {
	var errs []error
	for _, item := range m.items {
		if err := item.i.HandleUplinkEvent(ctx, ev); err != nil {
			m.l.Warn("integration failed",
				log.String("integration", item.name),
				log.String("devEui", ev.GetDeviceInfo().GetDevEui()),
				log.ErrorField(err))
			errs = append(errs, fmt.Errorf("%s: %w", item.name, err))
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, item := range m.items {
		if err := item.i.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", item.name, err))
		}
	}
	return errors.Join(errs...)
}
