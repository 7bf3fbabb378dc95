package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"haruki-swf-extractor/utils"
	harukiLogger "haruki-swf-extractor/utils/logger"
)

type BackendConfig struct {
	Host                     string `yaml:"host"`
	Port                     int    `yaml:"port"`
	SSL                      bool   `yaml:"ssl"`
	SSLCert                  string `yaml:"ssl_cert"`
	SSLKey                   string `yaml:"ssl_key"`
	LogLevel                 string `yaml:"log_level"`
	MainLogFile              string `yaml:"main_log_file"`
	AccessLog                string `yaml:"access_log"`
	AccessLogPath            string `yaml:"access_log_path"`
	EnableAuthorization      bool   `yaml:"enable_authorization,omitempty"`
	AcceptUserAgentPrefix    string `yaml:"accept_user_agent_prefix,omitempty"`
	AcceptAuthorizationToken string `yaml:"accept_authorization_token,omitempty"`
}

type ToolConfig struct {
	FFMPEGPath string `yaml:"ffmpeg_path,omitempty"`
	CwebpPath  string `yaml:"cwebp_path,omitempty"`
}

// RemoteStorageConfig is one upload target. Type "program" runs Program with
// Args (placeholders {src} and {dst}); type "s3" uses the S3 fields.
type RemoteStorageConfig struct {
	Type    string   `yaml:"type"`
	Base    string   `yaml:"base"`
	Program string   `yaml:"program,omitempty"`
	Args    []string `yaml:"args,omitempty"`

	Bucket          string `yaml:"bucket,omitempty"`
	Region          string `yaml:"region,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	PathStyle       bool   `yaml:"path_style,omitempty"`
}

type Config struct {
	Proxy             string                         `yaml:"proxy,omitempty"`
	ConcurrentDecodes int                            `yaml:"concurrent_decodes,omitempty"`
	ConcurrentUploads int                            `yaml:"concurrent_uploads,omitempty"`
	Backend           BackendConfig                  `yaml:"backend,omitempty"`
	Tools             ToolConfig                     `yaml:"tool,omitempty"`
	Extractor         utils.HarukiSWFExtractorConfig `yaml:"extractor"`
	RemoteStorages    []RemoteStorageConfig          `yaml:"remote_storages,omitempty"`
}

const (
	DefaultConfigFile = "haruki-swf-configs.yaml"
	ConfigEnv         = "HARUKI_SWF_CONFIG"
)

var Version = "v1.0.0-dev"
var Cfg = Default()

// Default returns the settings used for keys missing from the config file.
func Default() Config {
	return Config{
		ConcurrentDecodes: 4,
		ConcurrentUploads: 4,
		Backend: BackendConfig{
			Host:     "0.0.0.0",
			Port:     8080,
			LogLevel: "INFO",
		},
		Extractor: utils.HarukiSWFExtractorConfig{
			OutputDir:        "./output",
			ExportSounds:     true,
			ExportBitmaps:    true,
			ExportBinaryData: true,
			ManifestFormat:   utils.ManifestFormatJSON,
		},
	}
}

// Path returns the config file location, honoring HARUKI_SWF_CONFIG.
func Path() string {
	if p := os.Getenv(ConfigEnv); p != "" {
		return p
	}
	return DefaultConfigFile
}

// Load reads path over the defaults. A missing file returns the defaults and
// an error wrapping fs.ErrNotExist.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.normalize(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	if c.ConcurrentDecodes < 1 {
		c.ConcurrentDecodes = 1
	}
	if c.ConcurrentUploads < 1 {
		c.ConcurrentUploads = 1
	}
	format, err := utils.ParseManifestFormat(string(c.Extractor.ManifestFormat))
	if err != nil {
		return err
	}
	c.Extractor.ManifestFormat = format
	for i, rs := range c.RemoteStorages {
		switch rs.Type {
		case "program", "":
			if rs.Program == "" {
				return fmt.Errorf("remote storage %d: program is required", i)
			}
		case "s3":
			if rs.Bucket == "" {
				return fmt.Errorf("remote storage %d: bucket is required", i)
			}
		default:
			return fmt.Errorf("remote storage %d: unknown type %q", i, rs.Type)
		}
	}
	return nil
}

func init() {
	logger := harukiLogger.NewLogger("ConfigLoader", "DEBUG", nil)
	path := Path()
	cfg, err := Load(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Warnf("Config file %s not found, using defaults", path)
	case err != nil:
		logger.Errorf("Failed to load config: %v", err)
		os.Exit(1)
	}
	Cfg = cfg
}
