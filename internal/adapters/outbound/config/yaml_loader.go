package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lenra-io/lenra-cli/internal/domain"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file.
const FileName = ".lenra-check.yaml"

// EnvAppURL overrides app_url.
const EnvAppURL = "LENRA_APP_URL"

// YAMLLoader implements domain.ConfigLoader by reading .lenra-check.yaml.
type YAMLLoader struct{}

var _ domain.ConfigLoader = (*YAMLLoader)(nil)

// New creates a YAMLLoader.
func New() *YAMLLoader { return &YAMLLoader{} }

// Load reads .lenra-check.yaml from projectPath.
// Returns DefaultConfig if the file does not exist. LENRA_APP_URL, when set,
// wins over the file.
func (l *YAMLLoader) Load(projectPath string) (domain.CheckConfig, error) {
	cfg, err := l.read(projectPath)
	if err != nil {
		return domain.CheckConfig{}, err
	}
	if url := os.Getenv(EnvAppURL); url != "" {
		cfg.AppURL = url
	}
	return cfg.WithDefaults(), nil
}

func (l *YAMLLoader) read(projectPath string) (domain.CheckConfig, error) {
	data, err := os.ReadFile(filepath.Join(projectPath, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DefaultConfig(), nil
		}
		return domain.CheckConfig{}, err
	}

	var cfg domain.CheckConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.CheckConfig{}, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	// Validate before applying defaults, on the user's raw input.
	if err := cfg.Validate(); err != nil {
		return domain.CheckConfig{}, fmt.Errorf("invalid %s: %w", FileName, err)
	}
	return cfg, nil
}

// Path returns the configuration file path for projectPath.
func Path(projectPath string) string {
	return filepath.Join(projectPath, FileName)
}

// Template is the commented configuration written by lenra init.
const Template = `# lenra check configuration.
#
# URL of the running app under test. LENRA_APP_URL overrides it.
app_url: http://localhost:8080

# Treat warnings as failures.
strict: false

# Checkers or rules to skip: "checker", "checker:rule", "checker*", "checker:rule*".
ignore: []
#  - manifest:uniquePaths
#  - /counter*

template:
  # Root widget the template manifest must declare.
  root_widget: main

# Expected response shapes, by route path or view name.
expectations: []
#  - route: /
#    shape:
#      _type: text
#      value: Hello World

# jq rules run on checker subjects. checker "*" applies to every checker.
rules: []
#  - name: hasChildren
#    checker: /
#    query: .children | length > 0
#    expect: true
#    level: warning
`

// WriteTemplate writes Template to projectPath. An existing file is kept
// unless force is set.
func WriteTemplate(projectPath string, force bool) (string, error) {
	path := Path(projectPath)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("%s already exists (use --force to overwrite)", FileName)
		}
	}
	if err := os.WriteFile(path, []byte(Template), 0644); err != nil {
		return path, fmt.Errorf("writing %s: %w", FileName, err)
	}
	return path, nil
}
