package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	a := assert.New(t)

	t.Run("Missing file returns defaults", func(t *testing.T) {
		config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		a.Nil(err)
		a.Equal("lmstudio", config.Captioner.Backend)
		a.Equal("http://localhost:1234", config.Captioner.BaseURL)
		a.Equal(1, config.Captioner.Concurrency)
		a.Equal(256, config.Thumbnails.Size)
	})

	t.Run("File overrides defaults", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		content := `
log_level: DEBUG
captioner:
  backend: script
  python_path: /usr/bin/python3
  script_path: /opt/tagger/tagger.py
  concurrency: 4
thumbnails:
  size: 512
`
		a.Nil(os.WriteFile(configPath, []byte(content), 0644))

		config, err := LoadConfig(configPath)
		a.Nil(err)
		a.Equal("DEBUG", config.LogLevel)
		a.Equal("script", config.Captioner.Backend)
		a.Equal("/usr/bin/python3", config.Captioner.PythonPath)
		a.Equal(4, config.Captioner.Concurrency)
		a.Equal(512, config.Thumbnails.Size)
		// Untouched keys keep their defaults
		a.Equal("http://localhost:1234", config.Captioner.BaseURL)
		a.Equal(120, config.Captioner.TimeoutSecs)
	})

	t.Run("Malformed file is an error", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		a.Nil(os.WriteFile(configPath, []byte("log_level: [unclosed"), 0644))

		_, err := LoadConfig(configPath)
		a.NotNil(err)
	})
}
