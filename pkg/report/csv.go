package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	errs "igvision/pkg/errors"
)

// WriteCSV writes the report with a leading 0-based id column. The file is
// written beside path and renamed into place, so a failed run never leaves a
// truncated report.
func WriteCSV(rep *Report, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errs.Write(path, err)
	}

	tmp, err := os.CreateTemp(dir, ".report-*.csv")
	if err != nil {
		return errs.Write(path, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(append([]string{idColumn}, rep.Header()...)); err != nil {
		tmp.Close()
		return errs.Write(path, err)
	}
	for i, row := range rep.Rows {
		if err := w.Write(append([]string{strconv.Itoa(i)}, row.Values()...)); err != nil {
			tmp.Close()
			return errs.Write(path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return errs.Write(path, err)
	}

	if err := tmp.Close(); err != nil {
		return errs.Write(path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return errs.Write(path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errs.Write(path, err)
	}
	return nil
}
