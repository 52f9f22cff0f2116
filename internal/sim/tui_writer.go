package sim

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"wildwatch-sim/internal/alert"
	"wildwatch-sim/internal/config"
	"wildwatch-sim/internal/geo"
	"wildwatch-sim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries a telemetry log line for the viewport.
type logMsg struct{ line string }

// alertMsg carries a newly raised alert and its rendered line.
type alertMsg struct {
	line  string
	alert alert.Alert
}

// statsMsg carries a stats snapshot for the header.
type statsMsg struct{ alert.Stats }

// entityMsg carries the latest row of one entity for the table and map.
type entityMsg struct{ telemetry.EntityRow }

// adminMsg reports admin UI status.
type adminMsg struct{ active bool }

type setControllerMsg struct{ c Controller }

// statusMsg reports loop state after a command ran.
type statusMsg struct{ Status }

const (
	maxLogLines         = 1000
	maxSectionHeightPct = 0.25
	fallbackEntityInput = "Unknown,Unknown Species,-1.2921,36.8219"
)

// TUIWriter renders telemetry and alerts using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	colors     *speciesColors
	done       chan struct{}
	sendSignal atomic.Bool
}

// speciesColors assigns palette colors to species in first-seen order.
type speciesColors struct {
	mu     sync.Mutex
	colors map[string]string
	idx    int
}

func newSpeciesColors() *speciesColors {
	return &speciesColors{colors: make(map[string]string)}
}

func (s *speciesColors) get(species string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.colors[species]; ok {
		return c
	}
	c := speciesPalette[s.idx%len(speciesPalette)]
	s.colors[species] = c
	s.idx++
	return c
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
func NewTUIWriter(cfg *config.SimulationConfig) *TUIWriter {
	colors := newSpeciesColors()
	w := &TUIWriter{colors: colors, done: make(chan struct{})}
	w.sendSignal.Store(true)
	for _, e := range cfg.Entities {
		colors.get(e.Species)
	}
	p := tea.NewProgram(newTUIModel(cfg, colors), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		// quitting the TUI ends the process like Ctrl+C would
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

func formatEntityLine(row telemetry.EntityRow, speciesColor string) string {
	battColor := colorGreen
	switch {
	case row.Battery < 0:
		battColor = colorGray
	case row.Battery < 10:
		battColor = colorRed
	case row.Battery < 20:
		battColor = colorYellow
	}
	return fmt.Sprintf("%s[%s]%s %s%s%s %sid=%s%s %slat=%.5f lon=%.5f%s %sbatt=%.1f%s %sspd=%.1f hdg=%.0f%s health=%s",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		speciesColor, row.Name, colorReset,
		colorBlue, row.EntityID, colorReset,
		colorCyan, row.Lat, row.Lon, colorReset,
		battColor, row.Battery, colorReset,
		colorMagenta, row.SpeedKmh, row.HeadingDeg, colorReset,
		row.Health)
}

func formatAlertLine(a alert.Alert) string {
	line := fmt.Sprintf("%s[%s]%s %s#%d %s%s %s",
		colorGray, a.Timestamp.Format("15:04:05"), colorReset,
		priorityColor(a.Priority), a.ID, strings.ToUpper(string(a.Priority)), colorReset, a.Title)
	if a.AnimalID != "" {
		line += fmt.Sprintf(" %sanimal=%s%s", colorBlue, a.AnimalID, colorReset)
	}
	if a.ZoneID != "" {
		line += fmt.Sprintf(" %szone=%s%s", colorMagenta, a.ZoneID, colorReset)
	}
	return line
}

// Write implements TelemetryWriter.
func (w *TUIWriter) Write(row telemetry.EntityRow) error {
	w.program.Send(logMsg{line: formatEntityLine(row, w.colors.get(row.Species))})
	w.program.Send(entityMsg{row})
	return nil
}

// WriteBatch outputs multiple entity rows.
func (w *TUIWriter) WriteBatch(rows []telemetry.EntityRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteAlert implements AlertWriter.
func (w *TUIWriter) WriteAlert(a alert.Alert) error {
	w.program.Send(alertMsg{line: formatAlertLine(a), alert: a})
	return nil
}

// WriteStats implements StatsWriter.
func (w *TUIWriter) WriteStats(s alert.Stats) error {
	w.program.Send(statsMsg{s})
	return nil
}

// SetAdminStatus updates the admin UI indicator.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// SetController registers the session the key bindings act on.
func (w *TUIWriter) SetController(c Controller) {
	w.program.Send(setControllerMsg{c: c})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	cfg        *config.SimulationConfig
	colors     *speciesColors
	table      table.Model
	vp         viewport.Model
	alertVP    viewport.Model
	logs       []string
	alertLogs  []string
	stats      alert.Stats
	status     Status
	ctrl       Controller
	admin      bool
	wrap       bool
	autoscroll bool
	help       bool
	showMap    bool
	header     string
	height     int

	addInput  textinput.Model
	addDialog bool

	entities map[string]telemetry.EntityRow
	order    []string
}

func newTUIModel(cfg *config.SimulationConfig, colors *speciesColors) tuiModel {
	if colors == nil {
		colors = newSpeciesColors()
	}
	cols := []table.Column{
		{Title: "ID", Width: 12},
		{Title: "Name", Width: 10},
		{Title: "Species", Width: 18},
		{Title: "Battery", Width: 8},
		{Title: "Speed", Width: 6},
		{Title: "Health", Width: 8},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(len(cfg.Entities)+1))
	return tuiModel{
		cfg:        cfg,
		colors:     colors,
		table:      t,
		vp:         viewport.New(0, 0),
		alertVP:    viewport.New(0, 0),
		autoscroll: true,
		entities:   make(map[string]telemetry.EntityRow),
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

// run executes a controller command off the UI goroutine and reports the
// resulting status.
func (m tuiModel) run(fn func(Controller)) tea.Cmd {
	if m.ctrl == nil {
		return nil
	}
	c := m.ctrl
	return func() tea.Msg {
		if fn != nil {
			fn(c)
		}
		return statusMsg{c.Status()}
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.alertVP.Width = msg.Width
		m.height = msg.Height
		m.header = m.renderHeader()
		m.updateViewportHeight()
		m.refreshViewport()
		m.refreshAlerts()
	case tea.KeyMsg:
		if m.addDialog {
			switch msg.Type {
			case tea.KeyEnter:
				spec, err := parseEntityInput(m.addInput.Value())
				m.addDialog = false
				m.updateViewportHeight()
				if err == nil {
					return m, m.run(func(c Controller) { c.AddEntity(spec) })
				}
			case tea.KeyEsc:
				m.addDialog = false
				m.updateViewportHeight()
			default:
				var cmd tea.Cmd
				m.addInput, cmd = m.addInput.Update(msg)
				return m, cmd
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			m.refreshAlerts()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
				m.alertVP.GotoBottom()
			}
			return m, nil
		case "p":
			return m, m.run(func(c Controller) { c.ToggleSimulation() })
		case "m":
			return m, m.run(func(c Controller) { c.ToggleMonitoring() })
		case "r":
			return m, m.run(func(c Controller) { c.MarkAllAsRead() })
		case "a":
			m.addInput = textinput.New()
			m.addInput.Placeholder = "name,species,lat,lon"
			m.addInput.SetValue(fallbackEntityInput)
			m.addInput.CursorEnd()
			m.addInput.Focus()
			m.addDialog = true
			m.updateViewportHeight()
			return m, nil
		case "v":
			m.showMap = !m.showMap
			return m, nil
		case "h", "?":
			m.help = !m.help
			return m, nil
		}
		if !m.autoscroll {
			switch msg.String() {
			case "j", "down":
				m.vp.LineDown(1)
			case "k", "up":
				m.vp.LineUp(1)
			case "pgdown", "ctrl+n":
				m.vp.LineDown(10)
			case "pgup", "ctrl+p":
				m.vp.LineUp(10)
			default:
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				return m, cmd
			}
		}
		return m, nil
	case logMsg:
		m.logs = appendCapped(m.logs, msg.line)
		m.refreshViewport()
	case alertMsg:
		m.alertLogs = appendCapped(m.alertLogs, msg.line)
		m.updateViewportHeight()
		m.refreshAlerts()
	case entityMsg:
		if _, seen := m.entities[msg.EntityID]; !seen {
			m.order = append(m.order, msg.EntityID)
		}
		m.entities[msg.EntityID] = msg.EntityRow
		m.refreshTable()
	case statsMsg:
		m.stats = msg.Stats
		m.header = m.renderHeader()
	case adminMsg:
		m.admin = msg.active
	case setControllerMsg:
		m.ctrl = msg.c
		return m, m.run(nil)
	case statusMsg:
		m.status = msg.Status
	}
	return m, nil
}

func appendCapped(lines []string, line string) []string {
	lines = append(lines, line)
	if len(lines) > maxLogLines {
		lines = lines[len(lines)-maxLogLines:]
	}
	return lines
}

// parseEntityInput reads "name,species,lat,lon". Lat and lon are optional.
func parseEntityInput(val string) (EntitySpec, error) {
	parts := strings.Split(val, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 || parts[0] == "" {
		return EntitySpec{}, fmt.Errorf("expected name,species[,lat,lon]")
	}
	spec := EntitySpec{Name: parts[0], Species: parts[1]}
	if len(parts) >= 4 {
		lat, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return EntitySpec{}, fmt.Errorf("lat: %w", err)
		}
		lon, err := strconv.ParseFloat(parts[3], 64)
		if err != nil {
			return EntitySpec{}, fmt.Errorf("lon: %w", err)
		}
		spec.Position = &geo.Point{Lat: lat, Lon: lon}
	}
	return spec, nil
}

func (m *tuiModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.order))
	for _, id := range m.order {
		r := m.entities[id]
		batt := "n/a"
		if r.Battery >= 0 {
			batt = fmt.Sprintf("%.0f%%", r.Battery)
		}
		rows = append(rows, table.Row{r.EntityID, r.Name, r.Species, batt, fmt.Sprintf("%.1f", r.SpeedKmh), r.Health})
	}
	m.table.SetRows(rows)
	m.table.SetHeight(len(rows) + 1)
	m.header = m.renderHeader()
}

func (m *tuiModel) updateViewportHeight() {
	maxLines := int(float64(m.height) * maxSectionHeightPct)
	if maxLines < 1 {
		maxLines = 1
	}
	alertLines := len(m.alertLogs)
	if alertLines == 0 {
		alertLines = 1
	}
	if alertLines > maxLines {
		alertLines = maxLines
	}
	m.alertVP.Height = alertLines

	bottom := lipgloss.Height(m.renderBottom())
	h := m.height - lipgloss.Height(m.header) - bottom - (1 + m.alertVP.Height) - 4
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.vp.GotoBottom()
		m.alertVP.GotoBottom()
	}
}

func (m *tuiModel) wrapLines(lines []string, width int) string {
	if !m.wrap {
		return strings.Join(lines, "\n")
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = wordwrap.String(l, width)
	}
	return strings.Join(out, "\n")
}

func (m *tuiModel) refreshViewport() {
	m.vp.SetContent(m.wrapLines(m.logs, m.vp.Width))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshAlerts() {
	content := "none"
	if len(m.alertLogs) > 0 {
		content = m.wrapLines(m.alertLogs, m.alertVP.Width)
	}
	m.alertVP.SetContent(content)
	if m.autoscroll {
		m.alertVP.GotoBottom()
	}
}
