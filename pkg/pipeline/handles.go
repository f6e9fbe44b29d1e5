package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	errs "igvision/pkg/errors"
	"igvision/pkg/instagram"
	"igvision/pkg/logger"
)

// Handles resolves the positional argument of the CLI: a single handle, or
// with list set a file of one handle per line. Blank lines are skipped and
// handles are sanitized; invalid ones are logged and dropped.
func Handles(arg string, list bool, log logger.Logger) ([]string, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	var raw []string
	if list {
		lines, err := readLines(arg)
		if err != nil {
			return nil, errs.ConfigLoad(arg, err)
		}
		raw = lines
	} else {
		raw = []string{arg}
	}

	seen := make(map[string]bool)
	var handles []string
	for _, line := range raw {
		if strings.TrimSpace(line) == "" {
			continue
		}
		handle := instagram.SanitizeUsername(line)
		if !instagram.IsValidUsername(handle) {
			log.WithField("handle", line).Warn("Skipping invalid handle")
			continue
		}
		if seen[handle] {
			continue
		}
		seen[handle] = true
		handles = append(handles, handle)
	}

	if len(handles) == 0 {
		return nil, errs.ConfigLoad(arg, errors.New("no valid handles"))
	}
	return handles, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read handles: %w", err)
	}
	return lines, nil
}
