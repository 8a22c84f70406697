package cmd_test

import (
	"bytes"
	"context"
	"testing"

	opensubtitles "github.com/angelospk/opensubtitles-provider"
	clicmd "github.com/angelospk/opensubtitles-provider/cmd/cli/cmd"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProvider is a mock implementation of clicmd.ProviderClient using testify/mock
type MockProvider struct {
	mock.Mock
}

// Ensure MockProvider satisfies the interface used by the commands
var _ clicmd.ProviderClient = (*MockProvider)(nil)

func (m *MockProvider) Login(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockProvider) Logout(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockProvider) Search(ctx context.Context, req opensubtitles.SearchRequest) ([]opensubtitles.RemoteSubtitleInfo, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]opensubtitles.RemoteSubtitleInfo), args.Error(1)
}

func (m *MockProvider) GetSubtitles(ctx context.Context, id string) (*opensubtitles.SubtitleResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*opensubtitles.SubtitleResponse), args.Error(1)
}

func (m *MockProvider) Languages(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProvider) Quota() opensubtitles.QuotaInfo {
	args := m.Called()
	return args.Get(0).(opensubtitles.QuotaInfo)
}

// executeCommand runs the root command with args against mockClient and
// returns stdout.
func executeCommand(t *testing.T, mockClient clicmd.ProviderClient, args ...string) (string, error) {
	t.Helper()

	originalNewProvider := clicmd.NewProviderFunc
	t.Cleanup(func() { clicmd.NewProviderFunc = originalNewProvider })
	clicmd.NewProviderFunc = func(cfg opensubtitles.Config) (clicmd.ProviderClient, error) {
		require.Equal(t, "test-api-key", cfg.ApiKey)
		require.NotNil(t, cfg.Logger)
		return mockClient, nil
	}

	originalAPIKey := viper.GetString(clicmd.CfgKeyOSAPIKey)
	viper.Set(clicmd.CfgKeyOSAPIKey, "test-api-key")
	t.Cleanup(func() { viper.Set(clicmd.CfgKeyOSAPIKey, originalAPIKey) })

	outBuf := bytes.NewBufferString("")
	clicmd.RootCmd.SetOut(outBuf)
	clicmd.RootCmd.SetErr(bytes.NewBufferString(""))
	clicmd.RootCmd.SetArgs(args)
	t.Cleanup(func() { clicmd.RootCmd.SetArgs([]string{}) })

	_, err := clicmd.RootCmd.ExecuteC()
	return outBuf.String(), err
}
