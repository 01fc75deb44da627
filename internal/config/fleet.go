package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// FleetPrinter is one probe target in the fleet file.
type FleetPrinter struct {
	Address string `mapstructure:"address"`
	Adapter string `mapstructure:"adapter"`
}

// FleetConfig lists the printers polled each reconciliation run.
type FleetConfig struct {
	Printers []FleetPrinter `mapstructure:"printers"`
}

// FleetConfigHolder exposes the current fleet file contents with hot reload,
// so printers can be added without restarting the collector.
type FleetConfigHolder struct {
	current atomic.Value // holds FleetConfig
}

func NewFleetConfigHolder() (*FleetConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("fleet")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/printledger/config")
	v.AddConfigPath("/etc/printledger")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PRINTLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg FleetConfig
	if err := v.UnmarshalKey("fleet", &cfg); err != nil {
		return nil, err
	}
	if err := validateFleetConfig(cfg); err != nil {
		return nil, err
	}

	holder := &FleetConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated FleetConfig
		if err := v.UnmarshalKey("fleet", &updated); err != nil {
			log.Printf("[fleet-config] reload failed: %v", err)
			return
		}
		if err := validateFleetConfig(updated); err != nil {
			log.Printf("[fleet-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[fleet-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *FleetConfigHolder) Get() FleetConfig {
	return h.current.Load().(FleetConfig)
}

func validateFleetConfig(cfg FleetConfig) error {
	for _, p := range cfg.Printers {
		if strings.TrimSpace(p.Address) == "" {
			return errors.New("fleet.printers entries require an address")
		}
	}
	return nil
}
