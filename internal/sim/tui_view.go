package sim

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"wildwatch-sim/internal/geo"
	"wildwatch-sim/internal/zone"
)

const (
	bgRed    = "\x1b[41m"
	bgYellow = "\x1b[43m"
	bgGreen  = "\x1b[42m"
)

func indicator(on bool) string {
	c := lipgloss.Color("9")
	if on {
		c = lipgloss.Color("10")
	}
	return lipgloss.NewStyle().Foreground(c).Render("●")
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.vp.Width)
	body := m.vp.View()
	if m.showMap {
		body = m.renderMap()
	}
	sections := []string{
		m.header,
		divider,
		body,
		divider,
		"Alerts:",
		m.alertVP.View(),
	}
	if m.addDialog {
		sections = append(sections, divider,
			fmt.Sprintf("Add entity (name,species,lat,lon) - Enter to add, Esc to cancel: %s", m.addInput.View()))
	}
	sections = append(sections, divider, m.renderBottom())
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderHeader() string {
	s := m.stats
	summary := fmt.Sprintf("%sALERTS%s total=%d unread=%d %scritical=%d high=%d%s %smedium=%d%s low=%d today=%d week=%d",
		colorMagenta, colorReset, s.Total, s.Unread,
		colorRed, s.ByPriority.Critical, s.ByPriority.High, colorReset,
		colorYellow, s.ByPriority.Medium, colorReset,
		s.ByPriority.Low, s.TodayCount, s.WeekCount)
	return lipgloss.JoinVertical(lipgloss.Left, m.table.View(), summary)
}

func (m tuiModel) renderBottom() string {
	return fmt.Sprintf("Simulation %s | Monitoring %s | Ticks %d | Admin UI %s | Wrap %s | Scroll %s | Map %s | h help",
		indicator(m.status.SimulationRunning),
		indicator(m.status.MonitoringRunning),
		m.status.Ticks,
		indicator(m.admin),
		indicator(m.wrap),
		indicator(m.autoscroll),
		indicator(m.showMap))
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q  quit",
		" p  start/stop simulation",
		" m  start/stop alert monitoring",
		" r  mark all alerts read",
		" a  add entity (name,species,lat,lon)",
		" v  toggle map view",
		" w  toggle wrap",
		" s  toggle auto-scroll",
		" h/? toggle this help view",
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	}
	return strings.Join(lines, "\n")
}

func headingIcon(h float64) string {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	switch {
	case h >= 45 && h < 135:
		return ">"
	case h >= 135 && h < 225:
		return "v"
	case h >= 225 && h < 315:
		return "<"
	default:
		return "^"
	}
}

func batteryBG(b float64) string {
	switch {
	case b < 10:
		return bgRed
	case b < 20:
		return bgYellow
	default:
		return bgGreen
	}
}

func zoneGlyph(t zone.Type) string {
	switch t {
	case zone.TypeVillage:
		return "V"
	case zone.TypeProtectedArea:
		return "P"
	case zone.TypeBufferZone:
		return "B"
	case zone.TypeDangerZone:
		return "D"
	case zone.TypeWildlifeCorridor:
		return "C"
	}
	return "?"
}

// mapBounds covers every zone vertex and entity with a small margin.
func (m tuiModel) mapBounds() (minLat, maxLat, minLon, maxLon float64) {
	minLat, maxLat = math.Inf(1), math.Inf(-1)
	minLon, maxLon = math.Inf(1), math.Inf(-1)
	add := func(lat, lon float64) {
		minLat, maxLat = math.Min(minLat, lat), math.Max(maxLat, lat)
		minLon, maxLon = math.Min(minLon, lon), math.Max(maxLon, lon)
	}
	for _, z := range m.cfg.Zones {
		for _, p := range z.Boundaries {
			add(p.Lat, p.Lon)
		}
	}
	for _, r := range m.entities {
		add(r.Lat, r.Lon)
	}
	if math.IsInf(minLat, 1) {
		return 0, 1, 0, 1
	}
	latPad := math.Max((maxLat-minLat)*0.05, 0.01)
	lonPad := math.Max((maxLon-minLon)*0.05, 0.01)
	return minLat - latPad, maxLat + latPad, minLon - lonPad, maxLon + lonPad
}

func (m tuiModel) renderMap() string {
	width := m.vp.Width
	height := m.vp.Height - 2
	if width < 1 || height < 1 {
		return "Map: window too small"
	}
	if len(m.entities) == 0 && len(m.cfg.Zones) == 0 {
		return "No position data"
	}
	minLat, maxLat, minLon, maxLon := m.mapBounds()
	grid := make([][]string, height)
	for i := range grid {
		row := make([]string, width)
		for j := range row {
			row[j] = "."
		}
		grid[i] = row
	}
	place := func(lat, lon float64, cell string) {
		x := int((lon - minLon) / (maxLon - minLon) * float64(width-1))
		y := int((maxLat - lat) / (maxLat - minLat) * float64(height-1))
		if y >= 0 && y < height && x >= 0 && x < width {
			grid[y][x] = cell
		}
	}
	for _, z := range m.cfg.Zones {
		c := geo.Centroid(z.Boundaries)
		place(c.Lat, c.Lon, riskColor(z.RiskLevel)+zoneGlyph(zone.Type(z.Type))+colorReset)
	}
	for _, id := range m.order {
		r := m.entities[id]
		fg := m.colors.get(r.Species)
		bg := ""
		if r.Battery >= 0 {
			bg = batteryBG(r.Battery)
		}
		place(r.Lat, r.Lon, bg+fg+headingIcon(r.HeadingDeg)+colorReset)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("lat %.4f..%.4f lon %.4f..%.4f N↑\n", maxLat, minLat, minLon, maxLon))
	for _, row := range grid {
		b.WriteString(strings.Join(row, ""))
		b.WriteByte('\n')
	}
	b.WriteString(fmt.Sprintf("V=village P=protected B=buffer D=danger C=corridor  %s█%s=batt<10 %s█%s=batt<20",
		bgRed, colorReset, bgYellow, colorReset))
	return b.String()
}
