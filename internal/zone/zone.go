// Package zone holds the static geofence registry consulted by the alert rules.
package zone

import (
	"wildwatch-sim/internal/config"
	"wildwatch-sim/internal/geo"
)

// Type of a geofenced area.
type Type string

const (
	TypeVillage          Type = "village"
	TypeProtectedArea    Type = "protected_area"
	TypeBufferZone       Type = "buffer_zone"
	TypeDangerZone       Type = "danger_zone"
	TypeWildlifeCorridor Type = "wildlife_corridor"
)

// RiskLevel of a zone.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Zone is a polygonal area with risk metadata.
type Zone struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Type         Type        `json:"type"`
	Boundaries   []geo.Point `json:"boundaries"`
	RiskLevel    RiskLevel   `json:"risk_level"`
	Population   *int        `json:"population,omitempty"`
	AlertRadiusM *float64    `json:"alert_radius_m,omitempty"`
	IsActive     bool        `json:"is_active"`
	Description  string      `json:"description,omitempty"`
}

// Centroid is the vertex mean used for all proximity checks.
func (z Zone) Centroid() geo.Point { return geo.Centroid(z.Boundaries) }

// PopulationOrZero returns the population, or 0 when unknown.
func (z Zone) PopulationOrZero() int {
	if z.Population == nil {
		return 0
	}
	return *z.Population
}

func (z Zone) clone() Zone {
	c := z
	c.Boundaries = append([]geo.Point(nil), z.Boundaries...)
	if z.Population != nil {
		v := *z.Population
		c.Population = &v
	}
	if z.AlertRadiusM != nil {
		v := *z.AlertRadiusM
		c.AlertRadiusM = &v
	}
	return c
}

// Registry is the immutable zone list for a session. It is safe for
// concurrent use because nothing mutates it after construction.
type Registry struct {
	zones []Zone
	index map[string]int
}

// NewRegistry copies zones into a new registry. Later duplicates of an ID are ignored.
func NewRegistry(zones []Zone) *Registry {
	r := &Registry{index: make(map[string]int, len(zones))}
	for _, z := range zones {
		if _, dup := r.index[z.ID]; dup {
			continue
		}
		r.index[z.ID] = len(r.zones)
		r.zones = append(r.zones, z.clone())
	}
	return r
}

// FromConfig builds a registry from configured zones.
func FromConfig(zones []config.Zone) *Registry {
	out := make([]Zone, 0, len(zones))
	for _, z := range zones {
		risk := RiskLevel(z.RiskLevel)
		if risk == "" {
			risk = RiskLow
		}
		out = append(out, Zone{
			ID:           z.ID,
			Name:         z.Name,
			Type:         Type(z.Type),
			Boundaries:   z.Boundaries,
			RiskLevel:    risk,
			Population:   z.Population,
			AlertRadiusM: z.AlertRadiusM,
			IsActive:     z.IsActive(),
			Description:  z.Description,
		})
	}
	return NewRegistry(out)
}

// Zones returns a copy of every zone in registry order.
func (r *Registry) Zones() []Zone {
	out := make([]Zone, len(r.zones))
	for i, z := range r.zones {
		out[i] = z.clone()
	}
	return out
}

// Len returns the number of zones.
func (r *Registry) Len() int { return len(r.zones) }

// At returns the i-th zone in registry order.
func (r *Registry) At(i int) Zone { return r.zones[i].clone() }

// Zone looks a zone up by ID.
func (r *Registry) Zone(id string) (Zone, bool) {
	i, ok := r.index[id]
	if !ok {
		return Zone{}, false
	}
	return r.zones[i].clone(), true
}

// Villages returns the active village zones.
func (r *Registry) Villages() []Zone {
	var out []Zone
	for _, z := range r.zones {
		if z.Type == TypeVillage && z.IsActive {
			out = append(out, z.clone())
		}
	}
	return out
}

// DistanceKm is the haversine distance from pos to the zone centroid.
func DistanceKm(pos geo.Point, z Zone) float64 {
	return geo.HaversineKm(pos, z.Centroid())
}

// IsNear reports whether pos lies within radiusKm of the zone centroid.
// Large zones may contain positions that are not "near" under this rule.
func IsNear(pos geo.Point, z Zone, radiusKm float64) bool {
	return DistanceKm(pos, z) <= radiusKm
}

// Stats summarises the registry.
type Stats struct {
	Total           int               `json:"total_zones"`
	Active          int               `json:"active_zones"`
	ByType          map[Type]int      `json:"by_type"`
	ByRiskLevel     map[RiskLevel]int `json:"by_risk_level"`
	TotalPopulation int               `json:"total_population"`
}

// Stats counts zones by type and risk and sums known populations.
func (r *Registry) Stats() Stats {
	s := Stats{
		Total:       len(r.zones),
		ByType:      map[Type]int{},
		ByRiskLevel: map[RiskLevel]int{},
	}
	for _, z := range r.zones {
		if z.IsActive {
			s.Active++
		}
		s.ByType[z.Type]++
		s.ByRiskLevel[z.RiskLevel]++
		s.TotalPopulation += z.PopulationOrZero()
	}
	return s
}
