// Package app wires configuration, storage and the cloud client into a
// running hub. Both binaries start through it.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/remo/pkg/config"
	"github.com/urmzd/remo/pkg/db"
	"github.com/urmzd/remo/pkg/device"
	"github.com/urmzd/remo/pkg/hub"
	"github.com/urmzd/remo/pkg/metrics"
	"github.com/urmzd/remo/pkg/publish"
	"github.com/urmzd/remo/pkg/remo"
)

// Options are the command line overrides of a binary.
type Options struct {
	ConfigPath string
	DBPath     string
	Token      string
	Addr       string
}

// Runtime holds everything a binary serves from.
type Runtime struct {
	Config     *config.Config
	Store      *db.Config
	Controller device.Controller
	Subscriber device.EventSubscriber
	Metrics    *metrics.Metrics

	database  *db.DB
	publisher *publish.Publisher
}

// Start loads configuration, opens the database and sets up the hub. When
// no token is known or the first poll fails, the runtime serves a null
// controller so the API stays reachable.
func Start(ctx context.Context, opts Options) (*Runtime, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	config.SetupLogging(cfg.Level())

	dbPath := cfg.Database
	if opts.DBPath != "" {
		dbPath = opts.DBPath
	}
	database, err := db.Setup(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", database.Path()).Msg("Database opened")

	stored, err := database.ActiveConfig(ctx)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	rt := &Runtime{
		Config:   cfg,
		Store:    stored,
		Metrics:  metrics.New(),
		database: database,
	}

	if opts.Addr != "" {
		if err := rt.saveAddress(ctx, opts.Addr); err != nil {
			_ = database.Close()
			return nil, err
		}
	}

	token, err := rt.token(ctx, opts.Token)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	log.Info().
		Str("profile", stored.Profile.Name).
		Str("timezone", stored.Timezone()).
		Bool("token", token != "").
		Msg("Configuration loaded")

	if token == "" {
		log.Warn().Msg("No access token configured, using null controller")
		rt.useNull()
		return rt, nil
	}

	h := hub.New(remo.NewClient(token), hub.Stores{
		Climates: database.ClimateStates(stored.Profile.ID),
		Names:    database.DeviceNames(stored.Profile.ID),
	}, rt.hubOptions()...)

	if err := h.Setup(ctx); err != nil {
		log.Error().Err(err).Msg("Nature Remo unavailable, using null controller")
		rt.useNull()
		return rt, nil
	}
	h.Start(ctx)

	rt.Controller = h
	rt.Subscriber = h
	return rt, nil
}

// token picks the flag, then the config file, then the stored account. A
// token given explicitly is stored for later runs.
func (rt *Runtime) token(ctx context.Context, flagToken string) (string, error) {
	explicit := flagToken
	if explicit == "" {
		explicit = rt.Config.Token
	}
	if explicit == "" {
		return rt.Store.Token(), nil
	}
	if explicit != rt.Store.Token() {
		acct := &db.Account{ProfileID: rt.Store.Profile.ID, Token: explicit}
		if err := rt.database.Accounts().Save(ctx, acct); err != nil {
			return "", fmt.Errorf("failed to save access token: %w", err)
		}
	}
	return explicit, nil
}

// saveAddress stores a listen address given on the command line.
func (rt *Runtime) saveAddress(ctx context.Context, addr string) error {
	servers := rt.database.APIServers()
	if err := servers.Save(ctx, rt.Store.Profile.ID, addr); err != nil {
		return err
	}
	saved, err := servers.Get(ctx, rt.Store.Profile.ID)
	if err != nil {
		return err
	}
	rt.Store.APIServer = saved
	return nil
}

func (rt *Runtime) hubOptions() []hub.Option {
	opts := []hub.Option{
		hub.WithMetrics(rt.Metrics),
		hub.WithLocation(rt.Store.Profile.Location()),
	}

	interval := rt.Config.Interval()
	if interval == 0 {
		interval = rt.Store.PollInterval()
	}
	if interval > 0 {
		opts = append(opts, hub.WithInterval(interval))
	}

	if rt.Config.MQTT.Enabled() {
		p, err := publish.Connect(rt.Config.MQTT)
		if err != nil {
			log.Warn().Err(err).Str("broker", rt.Config.MQTT.Broker).Msg("MQTT broker unavailable, not publishing")
		} else {
			rt.publisher = p
			opts = append(opts, hub.WithPublisher(p))
		}
	}
	return opts
}

func (rt *Runtime) useNull() {
	rt.Controller = device.NewNullController()
	rt.Subscriber = device.NewNullEventSubscriber()
}

// APIAddress returns the listen address: the flag, the config file, then
// the stored API server.
func (rt *Runtime) APIAddress(flagAddr string) string {
	if flagAddr != "" {
		return flagAddr
	}
	return rt.Config.APIAddress(rt.Store.APIAddress())
}

// Close stops polling and releases the broker and database.
func (rt *Runtime) Close() error {
	if rt.Controller != nil {
		rt.Controller.Close()
	}
	if rt.publisher != nil {
		rt.publisher.Close()
	}
	return rt.database.Close()
}
