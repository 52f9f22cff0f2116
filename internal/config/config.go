// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"wildwatch-sim/internal/geo"
)

// Defaults applied when a field is left out of the file.
const (
	DefaultTickInterval        = 30 * time.Second
	DefaultEvaluationInterval  = 60 * time.Second
	DefaultNearVillageRadiusKm = 1.0
	DefaultIncidentProbability = 0.1
	DefaultPositionJitterDeg   = 0.001
)

// Simulation controls the collar telemetry loop.
type Simulation struct {
	TickInterval      time.Duration `yaml:"tick_interval"`
	PositionJitterDeg float64       `yaml:"position_jitter_deg"`
}

// Monitoring controls the alert rule engine.
type Monitoring struct {
	EvaluationInterval  time.Duration `yaml:"evaluation_interval"`
	NearVillageRadiusKm float64       `yaml:"near_village_radius_km"`
	// IncidentProbability is the chance per pass of a random incident.
	// Zero disables the rule; nil means the default.
	IncidentProbability *float64 `yaml:"incident_probability"`
	SeedAlerts          bool     `yaml:"seed_alerts"`
	Bell                bool     `yaml:"bell"`
	AutoStart           *bool    `yaml:"auto_start"`
}

// Zone describes one geofenced area.
type Zone struct {
	ID           string      `yaml:"id"`
	Name         string      `yaml:"name"`
	Type         string      `yaml:"type"`
	Boundaries   []geo.Point `yaml:"boundaries"`
	RiskLevel    string      `yaml:"risk_level"`
	Population   *int        `yaml:"population"`
	AlertRadiusM *float64    `yaml:"alert_radius_m"`
	Active       *bool       `yaml:"active"`
	Description  string      `yaml:"description"`
}

// IsActive defaults to true when the field is absent.
func (z Zone) IsActive() bool { return z.Active == nil || *z.Active }

// Entity describes one collared animal present at start-up.
type Entity struct {
	ID                 string   `yaml:"id"`
	Name               string   `yaml:"name"`
	Species            string   `yaml:"species"`
	Lat                float64  `yaml:"lat"`
	Lon                float64  `yaml:"lon"`
	CollarID           string   `yaml:"collar_id"`
	Active             *bool    `yaml:"active"`
	BatteryLevel       *float64 `yaml:"battery_level"`
	SpeedKmh           *float64 `yaml:"speed_kmh"`
	HeadingDeg         *float64 `yaml:"heading_deg"`
	Health             string   `yaml:"health"`
	AgeYears           *int     `yaml:"age_years"`
	Gender             string   `yaml:"gender"`
	ConservationStatus string   `yaml:"conservation_status"`
}

// SimulationConfig is the root configuration for zones, entities and loops.
type SimulationConfig struct {
	Simulation Simulation `yaml:"simulation"`
	Monitoring Monitoring `yaml:"monitoring"`
	Zones      []Zone     `yaml:"zones"`
	Entities   []Entity   `yaml:"entities"`
}

// Load loads YAML config and validates it against a CUE schema.
// An empty cueSchemaPath validates against the embedded schema.
func Load(configPath, cueSchemaPath string) (*SimulationConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read YAML config: %w", err)
	}

	schema := defaultSchema
	if cueSchemaPath != "" {
		if schema, err = os.ReadFile(cueSchemaPath); err != nil {
			return nil, fmt.Errorf("cannot read CUE schema: %w", err)
		}
	}

	// Validate with CUE first
	if err := Validate(configPath, data, schema); err != nil {
		return nil, err
	}

	var cfg SimulationConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal YAML config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero-valued tuning fields.
func (c *SimulationConfig) ApplyDefaults() {
	if c.Simulation.TickInterval <= 0 {
		c.Simulation.TickInterval = DefaultTickInterval
	}
	if c.Simulation.PositionJitterDeg <= 0 {
		c.Simulation.PositionJitterDeg = DefaultPositionJitterDeg
	}
	if c.Monitoring.EvaluationInterval <= 0 {
		c.Monitoring.EvaluationInterval = DefaultEvaluationInterval
	}
	if c.Monitoring.NearVillageRadiusKm <= 0 {
		c.Monitoring.NearVillageRadiusKm = DefaultNearVillageRadiusKm
	}
	if c.Monitoring.IncidentProbability == nil {
		p := DefaultIncidentProbability
		c.Monitoring.IncidentProbability = &p
	}
}

// MonitoringAutoStart reports whether the rule engine starts with the simulator.
func (c *SimulationConfig) MonitoringAutoStart() bool {
	return c.Monitoring.AutoStart == nil || *c.Monitoring.AutoStart
}
