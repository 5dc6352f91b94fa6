package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// ErrNoRuleSet is returned by Discover when no rule-set file exists.
var ErrNoRuleSet = errors.New("no rule set found")

// LocalNames are the rule-set file names looked up in the working directory,
// in priority order.
var LocalNames = []string{".retag.yaml", ".retag.yml", ".retag.toml"}

// userConfigNames are looked up under the XDG config directories.
var userConfigNames = []string{"retag/rules.yaml", "retag/rules.yml", "retag/rules.toml"}

// Discover finds the rule set to use when none is given explicitly: a local
// file in dir first, then a per-user file under the XDG config directories.
func Discover(dir string) (string, error) {
	for _, name := range LocalNames {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}

	for _, name := range userConfigNames {
		if path, err := xdg.SearchConfigFile(name); err == nil {
			return path, nil
		}
	}
	return "", ErrNoRuleSet
}

// UserConfigPath returns where a per-user rule set is expected.
func UserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, userConfigNames[0])
}
