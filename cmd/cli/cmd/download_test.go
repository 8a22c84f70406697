package cmd_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	opensubtitles "github.com/angelospk/opensubtitles-provider"
	coreErrors "github.com/angelospk/opensubtitles-provider/pkg/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const srtContent = "1\n00:00:01,000 --> 00:00:02,000\nHello\n"

func subtitleResponse() *opensubtitles.SubtitleResponse {
	return &opensubtitles.SubtitleResponse{
		Format:   "srt",
		Language: "eng",
		Content:  io.NopCloser(strings.NewReader(srtContent)),
	}
}

func TestDownloadCommand_Stdout(t *testing.T) {
	mockClient := new(MockProvider)
	mockClient.On("GetSubtitles", mock.Anything, "srt-eng-123").Return(subtitleResponse(), nil).Once()

	out, err := executeCommand(t, mockClient, "download", "srt-eng-123", "--output=")

	require.NoError(t, err)
	assert.Equal(t, srtContent, out)
	mockClient.AssertExpectations(t)
}

func TestDownloadCommand_File(t *testing.T) {
	mockClient := new(MockProvider)
	target := filepath.Join(t.TempDir(), "movie.eng.srt")
	remaining := 5
	mockClient.On("GetSubtitles", mock.Anything, "srt-eng-123").Return(subtitleResponse(), nil).Once()
	mockClient.On("Quota").Return(opensubtitles.QuotaInfo{Remaining: &remaining, Allowed: 20}).Once()

	out, err := executeCommand(t, mockClient, "download", "srt-eng-123", "--output", target)

	require.NoError(t, err)
	assert.Contains(t, out, "Saved srt subtitle (eng) to "+target)
	assert.Contains(t, out, "Remaining downloads: 5")
	written, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, srtContent, string(written))
	mockClient.AssertExpectations(t)
}

func TestDownloadCommand_QuotaExceeded(t *testing.T) {
	mockClient := new(MockProvider)
	mockClient.On("GetSubtitles", mock.Anything, "srt-eng-9").Return(nil, &coreErrors.QuotaExceededError{}).Once()

	_, err := executeCommand(t, mockClient, "download", "srt-eng-9", "--output=")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "download failed")
	assert.True(t, errors.Is(err, coreErrors.ErrQuotaExceeded))
}

func TestDownloadCommand_RequiresID(t *testing.T) {
	_, err := executeCommand(t, new(MockProvider), "download")
	assert.Error(t, err)
}
