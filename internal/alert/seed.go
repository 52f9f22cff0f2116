package alert

import "time"

type seedAlert struct {
	age time.Duration
	Alert
}

// demoAlerts are listed oldest first so insertion keeps IDs in creation order.
var demoAlerts = []seedAlert{
	{age: time.Hour, Alert: Alert{
		Type:     TypeAnimalNearVillage,
		Priority: PriorityMedium,
		Title:    "Lion pride spotted near Village C",
		Message:  "A pride of 4 lions has been seen 2km from Village C. Monitoring situation.",
		Location: Location{Lat: -1.2650, Lon: 36.8050, Name: "Village C"},
		Source:   SourceRangerReport,
		Metadata: map[string]any{"animal_type": "lion", "pride_size": 4, "distance": "2km"},
	}},
	{age: 30 * time.Minute, Alert: Alert{
		Type:     TypeCollarMalfunction,
		Priority: PriorityMedium,
		Title:    "GPS collar battery low",
		Message:  "Collar COL-003 (Kifaru - Black Rhinoceros) battery at 15%. Maintenance required.",
		Location: Location{Lat: -1.2756, Lon: 36.8089, Name: "Reserve Zone B"},
		Source:   SourceGPSCollar,
		Metadata: map[string]any{"animal_type": "rhino", "battery_level": 15, "collar_id": "COL-003"},
	}},
	{age: 15 * time.Minute, Alert: Alert{
		Type:     TypePoacherDetected,
		Priority: PriorityCritical,
		Title:    "Suspicious activity detected",
		Message:  "Camera trap captured images of armed individuals in protected area. Rangers notified.",
		Location: Location{Lat: -1.2720, Lon: 36.8150, Name: "National Reserve"},
		Source:   SourceCameraTrap,
		Metadata: map[string]any{"threat_level": "high", "rangers_notified": true},
	}},
	{age: 10 * time.Minute, Alert: Alert{
		Type:     TypeFenceBreach,
		Priority: PriorityHigh,
		Title:    "Perimeter fence damaged",
		Message:  "Section 12-B of perimeter fence has been damaged, possibly by elephants. Immediate repair needed.",
		Location: Location{Lat: -1.2800, Lon: 36.8100, Name: "Fence Section 12-B"},
		Source:   SourceSensor,
		Metadata: map[string]any{"section_id": "12-B", "damage_level": "major"},
	}},
	{age: 5 * time.Minute, Alert: Alert{
		Type:     TypeAnimalNearVillage,
		Priority: PriorityHigh,
		Title:    "Elephant herd approaching Village A",
		Message:  "A herd of 6 elephants has been detected 800m from Village A. Estimated arrival in 20 minutes.",
		Location: Location{Lat: -1.2890, Lon: 36.8210, Name: "Village A"},
		Source:   SourceGPSCollar,
		Metadata: map[string]any{"animal_type": "elephant", "herd_size": 6},
	}},
	{age: 0, Alert: Alert{
		Type:     TypeWildlifeConflict,
		Priority: PriorityCritical,
		Title:    "Human-wildlife conflict reported",
		Message:  "Farmers report crop damage by buffalo herd. Rangers dispatched to resolve conflict.",
		Location: Location{Lat: -1.2950, Lon: 36.8300, Name: "Farming Area C"},
		Source:   SourceVillagerReport,
		Metadata: map[string]any{"conflict_type": "crop_damage", "animal_type": "buffalo"},
	}},
}

// seedLocked inserts the demonstration alerts. Roughly 30% start read.
// They carry no animal or zone so they never suppress live rules. They reach
// the alerts and stats topics but never the created topic.
func (e *Engine) seedLocked(now time.Time) {
	for _, s := range demoAlerts {
		a := s.Alert.Clone()
		a.Timestamp = now.Add(-s.age)
		a.IsRead = e.rand.Float64() > 0.7
		a.IsActive = true
		e.insertLocked(a)
	}
}
