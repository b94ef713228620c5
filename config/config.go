package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/routex/fleetlive/core/perturb"
	"github.com/routex/fleetlive/infra/mqtt"
	"github.com/routex/fleetlive/infra/payment"
)

// Config is the root service configuration.
type Config struct {
	Fleet    FleetConfig    `json:"fleet"`
	Tick     TickConfig     `json:"tick"`
	Perturb  perturb.Config `json:"perturb"`
	Geocode  GeocodeConfig  `json:"geocode"`
	Payment  payment.Config `json:"payment"`
	Bookings BookingsConfig `json:"bookings"`
	Identity IdentityConfig `json:"identity"`
	Metrics  MetricsConfig  `json:"metrics"`
	MQTT     mqtt.Config    `json:"mqtt"`
}

// Load reads the configuration from a JSON or YAML file, then applies
// FL_ environment overrides (FL_FLEET__LOCALITY=Indore).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("FL_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "fl_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies defaults across all sections.
func (c *Config) SetDefaults() {
	c.Fleet.SetDefaults()
	c.Tick.SetDefaults()
	c.Perturb.SetDefaults()
	c.Bookings.SetDefaults()
	c.Metrics.SetDefaults()
	c.MQTT.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Fleet.Validate(); err != nil {
		return err
	}
	if err := c.Tick.Validate(); err != nil {
		return err
	}
	return c.Bookings.Validate()
}
