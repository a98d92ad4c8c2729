package core

import (
	"iris/config"
	"iris/internal/irc"
	"iris/internal/metrics"
	"iris/util"
)

// Build validates cfg and wires the registry, dispatcher and metrics
// into a ServeMode.  Configured channels exist before the first client
// connects.
func Build(cfg *config.Config, logger *util.Logger) (Mode, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := metrics.New()
	reg := irc.NewRegistry(cfg.ServerName, m)
	for _, name := range cfg.Channels {
		if err := reg.CreateChannel(name); err != nil {
			return nil, err
		}
		logger.Verbose("created channel %s", name)
	}

	return &ServeMode{
		Address:        cfg.ListenAddr(),
		ServerName:     cfg.ServerName,
		OutboxSize:     cfg.OutboxSize,
		MetricsAddress: cfg.MetricsAddress,
		Console:        cfg.Console,
		GracePeriod:    config.DefaultGracePeriod,
		Registry:       reg,
		Dispatcher:     irc.NewDispatcher(reg, cfg.ServerName, logger, m),
		Metrics:        m,
		Logger:         logger,
	}, nil
}
