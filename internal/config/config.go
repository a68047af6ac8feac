package config

import (
	"chatapp-servers/internal/models"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	defaultAddress    = "0.0.0.0"
	defaultPort       = "3000"
	defaultUploadRoot = "./public"
	defaultSqlitePath = "./database.db"
	defaultLogLevel   = "info"
)

// Read decodes the JSON config at path and fills in defaults for unset fields.
func Read(path string) (*models.ConfigFile, error) {
	configFile, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer configFile.Close()

	bytes, err := io.ReadAll(configFile)
	if err != nil {
		return nil, err
	}

	var cfg models.ConfigFile
	err = json.Unmarshal(bytes, &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *models.ConfigFile) {
	if cfg.Address == "" {
		cfg.Address = defaultAddress
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.UploadRoot == "" {
		cfg.UploadRoot = defaultUploadRoot
	}
	if cfg.SqlitePath == "" {
		cfg.SqlitePath = defaultSqlitePath
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
}

func validate(cfg *models.ConfigFile) error {
	if cfg.JwtSecret == "" {
		return errors.New("JwtSecret is empty")
	}
	if (cfg.TlsCert == "") != (cfg.TlsKey == "") {
		return errors.New("TlsCert and TlsKey must be set together")
	}
	if !cfg.SelfContained && cfg.RedisAddress == "" {
		return errors.New("RedisAddress is required unless SelfContained is set")
	}
	return nil
}
