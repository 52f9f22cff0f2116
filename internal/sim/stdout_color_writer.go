// ColorStdoutWriter prints human-friendly, colorized telemetry to STDOUT.
package sim

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"wildwatch-sim/internal/alert"
	"wildwatch-sim/internal/config"
	"wildwatch-sim/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

var speciesPalette = []string{colorGreen, colorYellow, colorBlue, colorMagenta, colorCyan}

// ColorStdoutWriter prints entity rows and alerts using ANSI colors.
type ColorStdoutWriter struct {
	cfg  *config.SimulationConfig
	out  io.Writer
	once sync.Once

	mu            sync.Mutex
	speciesColors map[string]string
	colorIdx      int
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter(cfg *config.SimulationConfig) *ColorStdoutWriter {
	return &ColorStdoutWriter{
		cfg:           cfg,
		out:           os.Stdout,
		speciesColors: make(map[string]string),
	}
}

func (w *ColorStdoutWriter) speciesColor(species string) string {
	if c, ok := w.speciesColors[species]; ok {
		return c
	}
	c := speciesPalette[w.colorIdx%len(speciesPalette)]
	w.speciesColors[species] = c
	w.colorIdx++
	return c
}

func (w *ColorStdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}

	fmt.Fprintln(w.out, "Simulation Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Tick Interval:\t%s\n", w.cfg.Simulation.TickInterval)
	fmt.Fprintf(tw, "Evaluation Interval:\t%s\n", w.cfg.Monitoring.EvaluationInterval)
	fmt.Fprintf(tw, "Village Radius (km):\t%.1f\n", w.cfg.Monitoring.NearVillageRadiusKm)
	if p := w.cfg.Monitoring.IncidentProbability; p != nil {
		fmt.Fprintf(tw, "Incident Probability:\t%.2f\n", *p)
	}
	tw.Flush()

	fmt.Fprintln(w.out, "\nZones:")
	tw = tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tName\tType\tRisk\n")
	for _, z := range w.cfg.Zones {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", z.ID, z.Name, z.Type, riskColor(z.RiskLevel)+z.RiskLevel+colorReset)
	}
	tw.Flush()
	fmt.Fprintln(w.out)
}

func riskColor(level string) string {
	switch level {
	case "high", "critical":
		return colorRed
	case "medium":
		return colorYellow
	}
	return colorGreen
}

func priorityColor(p alert.Priority) string {
	switch p {
	case alert.PriorityCritical, alert.PriorityHigh:
		return colorRed
	case alert.PriorityMedium:
		return colorYellow
	}
	return colorGray
}

// Write outputs a single entity row in colorized format.
func (w *ColorStdoutWriter) Write(row telemetry.EntityRow) error {
	w.once.Do(w.printOverview)
	w.mu.Lock()
	defer w.mu.Unlock()

	battColor := colorGreen
	switch {
	case row.Battery < 0:
		battColor = colorGray
	case row.Battery < 10:
		battColor = colorRed
	case row.Battery < 20:
		battColor = colorYellow
	}
	active := colorGreen + "active" + colorReset
	if !row.Active {
		active = colorGray + "inactive" + colorReset
	}

	fmt.Fprintf(w.out, "%s[%s]%s ", colorGray, row.Timestamp.Format(time.RFC3339), colorReset)
	fmt.Fprintf(w.out, "%s%s%s ", w.speciesColor(row.Species), row.Species, colorReset)
	fmt.Fprintf(w.out, "id=%s name=%s collar=%s ", row.EntityID, row.Name, row.CollarID)
	fmt.Fprintf(w.out, "%slat=%.5f lon=%.5f%s ", colorBlue, row.Lat, row.Lon, colorReset)
	fmt.Fprintf(w.out, "%sbatt=%.1f%s ", battColor, row.Battery, colorReset)
	fmt.Fprintf(w.out, "%sspd=%.1f hdg=%.0f%s ", colorCyan, row.SpeedKmh, row.HeadingDeg, colorReset)
	fmt.Fprintf(w.out, "health=%s %s\n", row.Health, active)
	return nil
}

// WriteBatch outputs multiple entity rows.
func (w *ColorStdoutWriter) WriteBatch(rows []telemetry.EntityRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteAlert prints a newly raised alert.
func (w *ColorStdoutWriter) WriteAlert(a alert.Alert) error {
	w.once.Do(w.printOverview)
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, "%s[%s]%s %sALERT #%d %s%s %s",
		colorGray, a.Timestamp.Format(time.RFC3339), colorReset,
		priorityColor(a.Priority), a.ID, a.Priority, colorReset, a.Title)
	if a.AnimalID != "" {
		fmt.Fprintf(w.out, " animal=%s", a.AnimalID)
	}
	if a.ZoneID != "" {
		fmt.Fprintf(w.out, " zone=%s", a.ZoneID)
	}
	fmt.Fprintln(w.out)
	return nil
}

// WriteStats prints an alert statistics summary.
func (w *ColorStdoutWriter) WriteStats(s alert.Stats) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, "%sSTATS%s total=%d unread=%d critical=%d high=%d medium=%d low=%d today=%d week=%d\n",
		colorMagenta, colorReset, s.Total, s.Unread,
		s.ByPriority.Critical, s.ByPriority.High, s.ByPriority.Medium, s.ByPriority.Low,
		s.TodayCount, s.WeekCount)
	return nil
}
