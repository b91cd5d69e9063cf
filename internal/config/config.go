// Package config provides configuration utilities for the application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jomfood/jomdeals/internal/common"
)

// Settings holds everything the client needs to talk to the backend.
type Settings struct {
	BaseURL         string
	Language        string
	CustomerID      string
	AuthToken       string
	DatabasePath    string
	RefreshInterval time.Duration
	PollInterval    time.Duration
	PageLimit       int
}

// Load reads settings from viper (config file, env, bound flags) and
// validates them.
func Load() (*Settings, error) {
	s := &Settings{
		BaseURL:         viper.GetString("api.base_url"),
		Language:        viper.GetString("api.language"),
		AuthToken:       viper.GetString("api.auth_token"),
		CustomerID:      viper.GetString("customer.id"),
		DatabasePath:    ExpandPath(viper.GetString("storage.path")),
		RefreshInterval: viper.GetDuration("cache.refresh_interval"),
		PollInterval:    viper.GetDuration("notifications.poll_interval"),
		PageLimit:       viper.GetInt("api.page_limit"),
	}

	if s.Language == "" {
		s.Language = "en"
	}
	if s.DatabasePath == "" {
		s.DatabasePath = defaultDatabasePath()
	}
	if s.RefreshInterval <= 0 {
		s.RefreshInterval = 5 * time.Minute
	}
	if s.PollInterval <= 0 {
		s.PollInterval = time.Minute
	}
	if s.PageLimit <= 0 {
		s.PageLimit = 10
	}

	if s.BaseURL == "" {
		return nil, fmt.Errorf("%w: api.base_url is required", common.ErrMissingConfig)
	}
	if s.Language != "en" && s.Language != "malay" {
		return nil, fmt.Errorf("%w: api.language must be en or malay", common.ErrInvalidConfig)
	}
	if s.CustomerID != "" {
		if err := common.ValidateID("customer", s.CustomerID); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
		}
	}

	return s, nil
}

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "jomdeals.db"
	}
	return filepath.Join(home, ".local", "share", "jomdeals", "jomdeals.db")
}
