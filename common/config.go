package common

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel   string          `yaml:"log_level"`
	Captioner  CaptionerConfig `yaml:"captioner"`
	Thumbnails ThumbnailConfig `yaml:"thumbnails"`
}

type CaptionerConfig struct {
	// Backend selects the captioning capability: "lmstudio" or "script".
	Backend           string `yaml:"backend"`
	BaseURL           string `yaml:"base_url"`
	Model             string `yaml:"model"`
	Prompt            string `yaml:"prompt"`
	MaxTokens         int    `yaml:"max_tokens"`
	TimeoutSecs       int    `yaml:"timeout_secs"`
	Concurrency       int    `yaml:"concurrency"`
	MaxImageDimension int    `yaml:"max_image_dimension"`
	PythonPath        string `yaml:"python_path"`
	ScriptPath        string `yaml:"script_path"`
}

type ThumbnailConfig struct {
	Dir  string `yaml:"dir"`
	Size int    `yaml:"size"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "INFO",
		Captioner: CaptionerConfig{
			Backend:     "lmstudio",
			BaseURL:     "http://localhost:1234",
			Prompt:      "Describe this image as comma separated tags.",
			MaxTokens:   300,
			TimeoutSecs: 120,
			Concurrency: 1,
			PythonPath:  "python",
		},
		Thumbnails: ThumbnailConfig{
			Size: 256,
		},
	}
}

// LoadConfig reads a YAML config file on top of the defaults. A missing
// file is not an error; the defaults are returned as is.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
