package config

import (
	"os"
	"path/filepath"
)

const defaultBaseDir = ".haven"

// Paths holds resolved filesystem paths for Haven data.
type Paths struct {
	Base   string // ~/.haven
	Config string // ~/.haven/config.yaml
	Data   string // ~/.haven/data
	Logs   string // ~/.haven/logs
}

// ResolvePaths computes all standard paths from the home directory.
// If HAVEN_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("HAVEN_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:   base,
		Config: filepath.Join(base, "config.yaml"),
		Data:   filepath.Join(base, "data"),
		Logs:   filepath.Join(base, "logs"),
	}, nil
}

// EnsurePaths creates the standard directories if they do not exist.
func EnsurePaths(p Paths) error {
	for _, dir := range []string{p.Base, p.Data, p.Logs} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return nil
}
