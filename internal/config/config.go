package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"meter-route-planner/internal/ingest"
)

// EnvPrefix namespaces environment overrides: METERROUTE_ROUTING_CLUSTER_RADIUS_KM -> routing.cluster_radius_km
const EnvPrefix = "METERROUTE"

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Projection ProjectionConfig `mapstructure:"projection"`
	Routing    RoutingConfig    `mapstructure:"routing"`
	OSRM       OSRMConfig       `mapstructure:"osrm"`
	Nominatim  NominatimConfig  `mapstructure:"nominatim"`
	Ingest     IngestConfig     `mapstructure:"ingest"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	// Path is the SQLite file; empty uses ~/.meter-route-planner/data.db
	Path string `mapstructure:"path"`
}

type ProjectionConfig struct {
	Zone       int    `mapstructure:"zone"`
	Hemisphere string `mapstructure:"hemisphere"`
}

type RoutingConfig struct {
	ClusterRadiusKm   float64 `mapstructure:"cluster_radius_km"`
	ReplanThresholdM  float64 `mapstructure:"replan_threshold_m"`
	ArrivalRadiusM    float64 `mapstructure:"arrival_radius_m"`
	CompletionRadiusM float64 `mapstructure:"completion_radius_m"`
}

type OSRMConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// Disabled skips the routing service; paths are always straight lines
	Disabled bool `mapstructure:"disabled"`
}

type NominatimConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	CountryCodes string `mapstructure:"country_codes"`
	Disabled     bool   `mapstructure:"disabled"`
}

type IngestConfig struct {
	Columns ingest.Columns `mapstructure:"columns"`
}

// Load reads configuration from an optional .env file, an optional YAML file
// and METERROUTE_ environment variables, in increasing precedence. An explicit
// configFile must exist; otherwise config.yaml is searched in the working
// directory and ~/.meter-route-planner.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.meter-route-planner")
		_ = v.ReadInConfig() // OK if missing
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	columns := ingest.DefaultColumns()

	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("database.path", "")
	v.SetDefault("projection.zone", 40)
	v.SetDefault("projection.hemisphere", "N")
	v.SetDefault("routing.cluster_radius_km", 0.5)
	v.SetDefault("routing.replan_threshold_m", 10.0)
	v.SetDefault("routing.arrival_radius_m", 100.0)
	v.SetDefault("routing.completion_radius_m", 50.0)
	v.SetDefault("osrm.base_url", "https://router.project-osrm.org")
	v.SetDefault("osrm.timeout", 10*time.Second)
	v.SetDefault("osrm.disabled", false)
	v.SetDefault("nominatim.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim.country_codes", "ae")
	v.SetDefault("nominatim.disabled", false)
	v.SetDefault("ingest.columns.easting", columns.Easting)
	v.SetDefault("ingest.columns.northing", columns.Northing)
	v.SetDefault("ingest.columns.sticker", columns.Sticker)
	v.SetDefault("ingest.columns.meter_no", columns.MeterNo)
	v.SetDefault("ingest.columns.address", columns.Address)
	v.SetDefault("ingest.columns.service", columns.Service)
}

// Validate checks that configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}
	if c.Projection.Zone < 1 || c.Projection.Zone > 60 {
		errs = append(errs, fmt.Sprintf("projection.zone must be 1-60, got %d", c.Projection.Zone))
	}
	if h := strings.ToUpper(c.Projection.Hemisphere); h != "N" && h != "S" {
		errs = append(errs, fmt.Sprintf("projection.hemisphere must be N or S, got %q", c.Projection.Hemisphere))
	}
	if c.Routing.ClusterRadiusKm <= 0 {
		errs = append(errs, "routing.cluster_radius_km must be positive")
	}
	if c.Routing.ReplanThresholdM < 0 {
		errs = append(errs, "routing.replan_threshold_m must not be negative")
	}
	if c.Routing.ArrivalRadiusM <= 0 {
		errs = append(errs, "routing.arrival_radius_m must be positive")
	}
	if c.Routing.CompletionRadiusM <= 0 {
		errs = append(errs, "routing.completion_radius_m must be positive")
	}
	if !c.OSRM.Disabled && c.OSRM.BaseURL == "" {
		errs = append(errs, "osrm.base_url is required unless osrm.disabled")
	}
	if c.OSRM.Timeout <= 0 {
		errs = append(errs, "osrm.timeout must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
