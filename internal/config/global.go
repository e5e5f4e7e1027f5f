package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/lifeviz/config.yml.
type GlobalConfig struct {
	// ProjectPath is used when the working directory is not inside a project.
	ProjectPath string `yaml:"project_path,omitempty"`
	DefaultAddr string `yaml:"default_addr,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "lifeviz"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/lifeviz/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}
	if cfg.ProjectPath != "" {
		cfg.ProjectPath = ExpandTilde(cfg.ProjectPath)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// ResolveProject finds the project enclosing start, falling back to the
// global project_path.
func ResolveProject(start string) (string, error) {
	root, err := FindProject(start)
	if err == nil {
		return root, nil
	}
	g, gerr := LoadGlobalConfig()
	if gerr != nil {
		return "", gerr
	}
	if g.ProjectPath != "" && IsProject(g.ProjectPath) {
		return g.ProjectPath, nil
	}
	if g.ProjectPath != "" {
		return "", fmt.Errorf("configured project_path is not a lifeviz project: %s", g.ProjectPath)
	}
	return "", fmt.Errorf("%w\n\n%s", err, HelpfulConfigMessage())
}

// HelpfulConfigMessage explains how to create or point at a project.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`Run 'lifeviz init' to create a project here.

Tip: Create %s to set a default project:
  mkdir -p %s
  echo 'project_path: /path/to/your/project' > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
