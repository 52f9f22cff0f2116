package config

import "wildwatch-sim/internal/geo"

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// Default returns the built-in Nairobi demonstration scenario: five collared
// animals, two villages and the national reserve.
func Default() *SimulationConfig {
	cfg := &SimulationConfig{
		Monitoring: Monitoring{SeedAlerts: true},
		Zones: []Zone{
			{
				ID:   "village-001",
				Name: "Village A",
				Type: "village",
				Boundaries: []geo.Point{
					{Lat: -1.2900, Lon: 36.8200},
					{Lat: -1.2950, Lon: 36.8200},
					{Lat: -1.2950, Lon: 36.8250},
					{Lat: -1.2900, Lon: 36.8250},
				},
				RiskLevel:    "high",
				Population:   intPtr(1200),
				AlertRadiusM: floatPtr(500),
				Description:  "Local farming community",
			},
			{
				ID:   "village-002",
				Name: "Village B",
				Type: "village",
				Boundaries: []geo.Point{
					{Lat: -1.2650, Lon: 36.8100},
					{Lat: -1.2700, Lon: 36.8100},
					{Lat: -1.2700, Lon: 36.8150},
					{Lat: -1.2650, Lon: 36.8150},
				},
				RiskLevel:    "medium",
				Population:   intPtr(800),
				AlertRadiusM: floatPtr(700),
				Description:  "Pastoral community",
			},
			{
				ID:   "protected-001",
				Name: "National Reserve",
				Type: "protected_area",
				Boundaries: []geo.Point{
					{Lat: -1.2800, Lon: 36.8000},
					{Lat: -1.2600, Lon: 36.8000},
					{Lat: -1.2600, Lon: 36.8300},
					{Lat: -1.2800, Lon: 36.8300},
				},
				RiskLevel:    "low",
				AlertRadiusM: floatPtr(1000),
				Description:  "Protected wildlife area",
			},
		},
		Entities: []Entity{
			{ID: "elephant-001", Name: "Tembo", Species: "African Elephant", Lat: -1.2921, Lon: 36.8219, CollarID: "COL-001",
				BatteryLevel: floatPtr(85), SpeedKmh: floatPtr(5.2), HeadingDeg: floatPtr(180), Health: "healthy", AgeYears: intPtr(25), Gender: "male", ConservationStatus: "endangered"},
			{ID: "lion-001", Name: "Simba", Species: "African Lion", Lat: -1.2845, Lon: 36.8156, CollarID: "COL-002",
				BatteryLevel: floatPtr(72), SpeedKmh: floatPtr(8.5), HeadingDeg: floatPtr(45), Health: "healthy", AgeYears: intPtr(8), Gender: "male", ConservationStatus: "vulnerable"},
			{ID: "rhino-001", Name: "Kifaru", Species: "Black Rhinoceros", Lat: -1.2756, Lon: 36.8089, CollarID: "COL-003",
				BatteryLevel: floatPtr(91), SpeedKmh: floatPtr(3.1), HeadingDeg: floatPtr(270), Health: "healthy", AgeYears: intPtr(15), Gender: "female", ConservationStatus: "endangered"},
			{ID: "giraffe-001", Name: "Twiga", Species: "Masai Giraffe", Lat: -1.2689, Lon: 36.8203, CollarID: "COL-004",
				BatteryLevel: floatPtr(68), SpeedKmh: floatPtr(12.3), HeadingDeg: floatPtr(90), Health: "healthy", AgeYears: intPtr(12), Gender: "female", ConservationStatus: "vulnerable"},
			{ID: "leopard-001", Name: "Chui", Species: "African Leopard", Lat: -1.2634, Lon: 36.8267, CollarID: "COL-005",
				BatteryLevel: floatPtr(45), SpeedKmh: floatPtr(15.7), HeadingDeg: floatPtr(135), Health: "healthy", AgeYears: intPtr(6), Gender: "female", ConservationStatus: "vulnerable"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}
