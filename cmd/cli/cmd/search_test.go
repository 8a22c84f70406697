package cmd_test

import (
	"errors"
	"path/filepath"
	"testing"

	opensubtitles "github.com/angelospk/opensubtitles-provider"
	coreErrors "github.com/angelospk/opensubtitles-provider/pkg/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// searchArgs spells out every search flag so values from earlier runs of the
// shared root command do not leak in.
func searchArgs(path string, overrides map[string]string) []string {
	flags := map[string]string{
		"--lang":      "en",
		"--type":      "",
		"--imdbid":    "",
		"--series":    "",
		"--season":    "0",
		"--episode":   "0",
		"--perfect":   "false",
		"--automated": "false",
	}
	for k, v := range overrides {
		flags[k] = v
	}
	args := []string{"search", path}
	for k, v := range flags {
		args = append(args, k+"="+v)
	}
	return args
}

func TestSearchCommand_Movie(t *testing.T) {
	mockClient := new(MockProvider)
	path := filepath.Join(t.TempDir(), "The.Matrix.1999.mkv")

	mockClient.On("Search", mock.Anything, mock.MatchedBy(func(req opensubtitles.SearchRequest) bool {
		return req.MediaPath == path &&
			req.ContentType == opensubtitles.ContentMovie &&
			req.Language == "eng" &&
			req.TwoLetterISOLanguageName == "en" &&
			req.IMDbID == "tt0133093" &&
			req.IsPerfectMatch &&
			!req.IsAutomated
	})).Return([]opensubtitles.RemoteSubtitleInfo{
		{ID: "srt-eng-222", Name: "The.Matrix.1999", Author: "neo", DownloadCount: 15, CommunityRating: 6, IsHashMatch: true},
		{ID: "srt-eng-111", Name: "The.Matrix.1999.1080p", DownloadCount: 9000, Comment: "resynced"},
	}, nil).Once()

	out, err := executeCommand(t, mockClient, searchArgs(path, map[string]string{
		"--imdbid":  "133093",
		"--type":    "movie",
		"--perfect": "true",
	})...)

	require.NoError(t, err)
	assert.Contains(t, out, "Found 2 subtitles")
	assert.Contains(t, out, "ID: srt-eng-222")
	assert.Contains(t, out, "Uploader: neo")
	assert.Contains(t, out, "Hash match: true")
	assert.Contains(t, out, "Comment: resynced")
	mockClient.AssertExpectations(t)
}

func TestSearchCommand_EpisodeFromFileName(t *testing.T) {
	mockClient := new(MockProvider)
	path := filepath.Join(t.TempDir(), "Some.Show.S03E07.720p.HDTV.mkv")

	mockClient.On("Search", mock.Anything, mock.MatchedBy(func(req opensubtitles.SearchRequest) bool {
		return req.ContentType == opensubtitles.ContentEpisode &&
			req.SeasonNumber != nil && *req.SeasonNumber == 3 &&
			req.EpisodeNumber != nil && *req.EpisodeNumber == 7 &&
			req.SeriesName != "" &&
			req.Language == "por" &&
			req.TwoLetterISOLanguageName == "pt" &&
			req.IsAutomated
	})).Return([]opensubtitles.RemoteSubtitleInfo{}, nil).Once()

	out, err := executeCommand(t, mockClient, searchArgs(path, map[string]string{
		"--lang":      "por",
		"--automated": "true",
	})...)

	require.NoError(t, err)
	assert.Contains(t, out, "No subtitles found matching the criteria.")
	mockClient.AssertExpectations(t)
}

func TestSearchCommand_FlagsOverrideFileName(t *testing.T) {
	mockClient := new(MockProvider)
	path := filepath.Join(t.TempDir(), "Some.Show.S03E07.mkv")

	mockClient.On("Search", mock.Anything, mock.MatchedBy(func(req opensubtitles.SearchRequest) bool {
		return *req.SeasonNumber == 4 && *req.EpisodeNumber == 1 &&
			req.SeriesName == "Other Show" &&
			req.TwoLetterISOLanguageName == "pt-BR"
	})).Return([]opensubtitles.RemoteSubtitleInfo{}, nil).Once()

	_, err := executeCommand(t, mockClient, searchArgs(path, map[string]string{
		"--lang":    "pt-BR",
		"--type":    "episode",
		"--season":  "4",
		"--episode": "1",
		"--series":  "Other Show",
	})...)

	require.NoError(t, err)
	mockClient.AssertExpectations(t)
}

func TestSearchCommand_InvalidInput(t *testing.T) {
	testCases := []struct {
		name      string
		overrides map[string]string
		wantErr   string
	}{
		{"Invalid type", map[string]string{"--type": "tvshow"}, "invalid --type"},
		{"Unknown language", map[string]string{"--lang": "klingon"}, "unknown language"},
		{"Invalid IMDb id", map[string]string{"--imdbid": "ttabc"}, "invalid IMDb id"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockClient := new(MockProvider)

			_, err := executeCommand(t, mockClient, searchArgs(filepath.Join(t.TempDir(), "movie.mkv"), tc.overrides)...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
			mockClient.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
		})
	}
}

func TestSearchCommand_ClientError(t *testing.T) {
	mockClient := new(MockProvider)
	mockClient.On("Search", mock.Anything, mock.Anything).
		Return(nil, &coreErrors.UnsupportedLanguageError{Language: "en"}).Once()

	_, err := executeCommand(t, mockClient, searchArgs(filepath.Join(t.TempDir(), "movie.mkv"), nil)...)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "subtitle search failed")
	assert.True(t, errors.Is(err, coreErrors.ErrUnsupportedLanguage))
	mockClient.AssertExpectations(t)
}
