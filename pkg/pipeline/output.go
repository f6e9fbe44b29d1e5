package pipeline

import (
	"igvision/pkg/config"
	"igvision/pkg/report"
)

// Outputs names the files a report is written to
type Outputs struct {
	CSV         string
	SQLitePath  string
	SQLiteTable string
}

// OutputsFromConfig reads the report section of the settings
func OutputsFromConfig(cfg config.ReportConfig) Outputs {
	return Outputs{
		CSV:         cfg.Output,
		SQLitePath:  cfg.SQLitePath,
		SQLiteTable: cfg.SQLiteTable,
	}
}

// Write writes the CSV and, when configured, the SQLite table
func (o Outputs) Write(rep *report.Report) error {
	if err := report.WriteCSV(rep, o.CSV); err != nil {
		return err
	}
	if o.SQLitePath == "" {
		return nil
	}
	return report.WriteSQLite(rep, o.SQLitePath, o.SQLiteTable)
}
