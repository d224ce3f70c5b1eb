// Package config loads application settings and stored API credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const EnvPrefix = "AAPSLAB"

type ServerSettings struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"gt=0,lte=65535"`
}

type ArchiveSettings struct {
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
	Profile string `mapstructure:"profile"`
	Region  string `mapstructure:"region"`
}

type Settings struct {
	APIBaseURL         string          `mapstructure:"api_base_url" validate:"required,url"`
	HTTPTimeout        time.Duration   `mapstructure:"http_timeout" validate:"gt=0"`
	CachePath          string          `mapstructure:"cache_path" validate:"required"`
	TemplateDir        string          `mapstructure:"template_dir" validate:"required"`
	OutputDir          string          `mapstructure:"output_dir" validate:"required"`
	ProfilePath        string          `mapstructure:"profile_path" validate:"required"`
	CredentialsPath    string          `mapstructure:"credentials_path" validate:"required"`
	CredentialsProfile string          `mapstructure:"credentials_profile" validate:"required"`
	SchemaVersion      int             `mapstructure:"schema_version" validate:"oneof=1 2"`
	Server             ServerSettings  `mapstructure:"server"`
	Archive            ArchiveSettings `mapstructure:"archive"`
}

func defaults(v *viper.Viper) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	v.SetDefault("api_base_url", "https://datos.aaps.gob.bo/api")
	v.SetDefault("http_timeout", "30s")
	v.SetDefault("cache_path", filepath.Join("datos", "cache.duckdb"))
	v.SetDefault("template_dir", "plantillas")
	v.SetDefault("output_dir", filepath.Join("datos", "reportes"))
	v.SetDefault("profile_path", filepath.Join(home, ".aapslab", "perfil.ini"))
	v.SetDefault("credentials_path", filepath.Join(home, ".aapslabcfg"))
	v.SetDefault("credentials_profile", DefaultProfile)
	v.SetDefault("schema_version", 2)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.prefix", "")
	v.SetDefault("archive.profile", "")
	v.SetDefault("archive.region", "")
}

// LoadSettings reads path when given, then applies AAPSLAB_* environment overrides.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := validator.New().Struct(s); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return &s, nil
}
