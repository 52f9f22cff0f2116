package alert

import (
	"maps"
	"time"
)

// Type classifies an alert.
type Type string

const (
	TypeAnimalNearVillage Type = "animal_near_village"
	TypePoacherDetected   Type = "poacher_detected"
	TypeFenceBreach       Type = "fence_breach"
	TypeCollarMalfunction Type = "collar_malfunction"
	TypeEmergency         Type = "emergency"
	TypeWildlifeConflict  Type = "wildlife_conflict"
)

// Priority of an alert.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Source that raised an alert.
type Source string

const (
	SourceGPSCollar      Source = "gps_collar"
	SourceCameraTrap     Source = "camera_trap"
	SourceRangerReport   Source = "ranger_report"
	SourceVillagerReport Source = "villager_report"
	SourceSensor         Source = "sensor"
	SourceSystem         Source = "system"
)

// Location of an alert. Name is optional.
type Location struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Name string  `json:"name,omitempty"`
}

// Alert is one raised condition.
type Alert struct {
	ID        int64          `json:"id"`
	Type      Type           `json:"type"`
	Priority  Priority       `json:"priority"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Location  Location       `json:"location"`
	AnimalID  string         `json:"animal_id,omitempty"`
	ZoneID    string         `json:"zone_id,omitempty"`
	IsRead    bool           `json:"is_read"`
	IsActive  bool           `json:"is_active"`
	Source    Source         `json:"source"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Clone returns a copy with its own metadata map.
func (a Alert) Clone() Alert {
	c := a
	if a.Metadata != nil {
		c.Metadata = maps.Clone(a.Metadata)
	}
	return c
}

// IsUrgent reports whether the alert should trigger the audible notifier.
func (a Alert) IsUrgent() bool {
	return a.Priority == PriorityHigh || a.Priority == PriorityCritical
}

// TableName is used by the GreptimeDB sink.
func (Alert) TableName() string { return "wildlife_alerts" }

func cloneAll(alerts []Alert) []Alert {
	out := make([]Alert, len(alerts))
	for i, a := range alerts {
		out[i] = a.Clone()
	}
	return out
}
