package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/lekha-app/lekha/internal/common"
	"github.com/lekha-app/lekha/internal/sync"
)

// LoadDriveConfig loads Google Drive OAuth configuration.
// Precedence:
// 1. Viper configuration (from config file or LEKHA_ env vars)
// 2. Direct environment variables (GOOGLE_DRIVE_*)
// 3. Default token location
func LoadDriveConfig() (*sync.OAuth2Config, error) {
	var config sync.OAuth2Config

	config.ClientID = viper.GetString("drive.client_id")
	config.ClientSecret = viper.GetString("drive.client_secret")
	config.TokenFile = ExpandPath(viper.GetString("drive.token_file"))

	if config.ClientID == "" {
		config.ClientID = os.Getenv("GOOGLE_DRIVE_CLIENT_ID")
	}
	if config.ClientSecret == "" {
		config.ClientSecret = os.Getenv("GOOGLE_DRIVE_CLIENT_SECRET")
	}
	if config.TokenFile == "" {
		config.TokenFile = ExpandPath("~/.config/lekha/drive-token.json")
	}

	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, fmt.Errorf("%w: drive.client_id and drive.client_secret are required for sync", common.ErrMissingConfig)
	}

	return &config, nil
}
