package cmd

import (
	"context"
	"fmt"

	opensubtitles "github.com/angelospk/opensubtitles-provider"
	"github.com/angelospk/opensubtitles-provider/internal/constants"
	"github.com/spf13/viper"
)

// ProviderClient is the part of the OpenSubtitles client the commands use.
type ProviderClient interface {
	Login(ctx context.Context) error
	Logout(ctx context.Context) (bool, error)
	Search(ctx context.Context, req opensubtitles.SearchRequest) ([]opensubtitles.RemoteSubtitleInfo, error)
	GetSubtitles(ctx context.Context, id string) (*opensubtitles.SubtitleResponse, error)
	Languages(ctx context.Context) ([]string, error)
	Quota() opensubtitles.QuotaInfo
}

// Ensure the real client satisfies the interface
var _ ProviderClient = (*opensubtitles.Client)(nil)

// NewProviderFunc allows overriding the client creation for testing.
var NewProviderFunc = func(cfg opensubtitles.Config) (ProviderClient, error) {
	client, err := opensubtitles.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// providerFromConfig builds a client from the viper configuration.
func providerFromConfig() (ProviderClient, error) {
	apiKey := viper.GetString(CfgKeyOSAPIKey)
	if apiKey == "" && constants.DefaultApiKey == "" {
		return nil, fmt.Errorf("OpenSubtitles API key not configured. Set via key '%s' or env OSSUBS_OPENSUBTITLES_APIKEY", CfgKeyOSAPIKey)
	}

	client, err := NewProviderFunc(opensubtitles.Config{
		ApiKey:   apiKey,
		Username: viper.GetString(CfgKeyOSUsername),
		Password: viper.GetString(CfgKeyOSPassword),
		BaseURL:  viper.GetString(CfgKeyOSBaseURL),
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenSubtitles client: %w", err)
	}
	return client, nil
}
