package service

import (
	"context"
	"fmt"

	"video_importer/internal/config"
	"video_importer/internal/domain"
)

// CredentialsLoader resolves the API key and channel id for a run. Values from
// the config file win; empty ones fall back to the settings saved through the
// admin API.
type CredentialsLoader struct {
	apiKey    string
	channelID string
	settings  SettingsReader
}

func NewCredentialsLoader(cfg config.YouTubeConfig, settings SettingsReader) *CredentialsLoader {
	return &CredentialsLoader{
		apiKey:    cfg.APIKey,
		channelID: cfg.ChannelID,
		settings:  settings,
	}
}

func (l *CredentialsLoader) Credentials(ctx context.Context) (domain.Credentials, error) {
	creds := domain.Credentials{APIKey: l.apiKey, ChannelID: l.channelID}
	if creds.Complete() || l.settings == nil {
		return creds, nil
	}

	if creds.APIKey == "" {
		v, err := l.settings.Get(ctx, domain.SettingAPIKey)
		if err != nil {
			return domain.Credentials{}, fmt.Errorf("read setting %s: %w", domain.SettingAPIKey, err)
		}
		creds.APIKey = v
	}
	if creds.ChannelID == "" {
		v, err := l.settings.Get(ctx, domain.SettingChannelID)
		if err != nil {
			return domain.Credentials{}, fmt.Errorf("read setting %s: %w", domain.SettingChannelID, err)
		}
		creds.ChannelID = v
	}

	return creds, nil
}
