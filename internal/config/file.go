package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/sqve/tandem/internal/fs"
)

const (
	FileName   = ".tandem.toml"
	configName = ".tandem"
)

//go:embed tandem.template.toml
var initTemplate string

func FilePath(dir string) string {
	return filepath.Join(dir, FileName)
}

func FileConfigExists(dir string) bool {
	return fs.FileExists(FilePath(dir))
}

// WriteTemplateToFile writes the default config template with comments.
// An existing file is never overwritten.
func WriteTemplateToFile(dir string) (string, error) {
	path := FilePath(dir)
	if fs.PathExists(path) {
		return "", fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.WriteFile(path, []byte(initTemplate), fs.FileGit); err != nil { //nolint:gosec // Fixed permissions for config file
		return "", err
	}
	return path, nil
}

// Encode renders cfg as TOML, as it would appear in a config file.
func Encode(cfg *Config) ([]byte, error) {
	return toml.Marshal(cfg)
}

// Template returns the embedded config template.
func Template() string {
	return initTemplate
}
