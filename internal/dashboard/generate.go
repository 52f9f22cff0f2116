// Package dashboard renders Grafana dashboards over the GreptimeDB tables
// written by the telemetry sink.
package dashboard

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"wildwatch-sim/internal/alert"
	"wildwatch-sim/internal/telemetry"
)

//go:embed templates/*.tmpl
var templates embed.FS

// Tables names the GreptimeDB tables a dashboard queries.
type Tables struct {
	Telemetry string
	Alerts    string
}

// DefaultTables returns the tables the GreptimeDB writer uses.
func DefaultTables() Tables {
	return Tables{Telemetry: telemetry.TelemetryTableName, Alerts: alert.Alert{}.TableName()}
}

// Render writes every dashboard to outDir. Templates may call env, which
// fails when the variable is unset.
func Render(outDir string) error {
	return RenderTables(outDir, DefaultTables())
}

// RenderTables is Render with explicit table names.
func RenderTables(outDir string, tables Tables) error {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
	}

	names, err := templates.ReadDir("templates")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, entry := range names {
		name := entry.Name()
		t, err := template.New(name).Funcs(funcMap).ParseFS(templates, "templates/"+name)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		// render fully before touching the output file
		var b strings.Builder
		if err := t.Execute(&b, tables); err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(name, ".tmpl"))
		if err := os.WriteFile(outPath, []byte(b.String()), 0o644); err != nil {
			return err
		}
	}
	return nil
}
