package cmd

import (
	"fmt"
	"strings"

	opensubtitles "github.com/angelospk/opensubtitles-provider"
	"github.com/angelospk/opensubtitles-provider/pkg/core/metadata"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	searchLang      string
	searchType      string
	searchIMDbID    string
	searchSeries    string
	searchSeason    int
	searchEpisode   int
	searchPerfect   bool
	searchAutomated bool
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <video-file>",
	Short: "Search subtitles for a local video file",
	Long: `Searches OpenSubtitles.com for subtitles matching a local video file.
The file is hashed so exact matches rank first. Season, episode, series name
and IMDb id are taken from the file name and a matching .nfo file unless
given as flags.

Examples:
  ossubs search /media/The.Matrix.1999.mkv --lang en
  ossubs search /media/Show.S01E05.mkv --lang pt-BR --perfect
  ossubs search /media/movie.mkv --imdbid tt0133093 --type movie`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	RootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVarP(&searchLang, "lang", "l", "en", "Subtitle language (e.g. en, pt-BR, eng)")
	searchCmd.Flags().StringVar(&searchType, "type", "", "Content type: movie or episode (default: detected from file name)")
	searchCmd.Flags().StringVar(&searchIMDbID, "imdbid", "", "IMDb ID (e.g., tt1234567)")
	searchCmd.Flags().StringVar(&searchSeries, "series", "", "Series name (for type=episode)")
	searchCmd.Flags().IntVarP(&searchSeason, "season", "s", 0, "Season number (for type=episode)")
	searchCmd.Flags().IntVarP(&searchEpisode, "episode", "e", 0, "Episode number (for type=episode)")
	searchCmd.Flags().BoolVar(&searchPerfect, "perfect", false, "Only return subtitles matching the file hash")
	searchCmd.Flags().BoolVar(&searchAutomated, "automated", false, "Behave like a background task: return nothing once the quota is used up")
}

// buildSearchRequest merges the flags with what the file name and NFO say.
func buildSearchRequest(videoPath string) (opensubtitles.SearchRequest, error) {
	info, err := metadata.ParseVideo(videoPath)
	if err != nil {
		return opensubtitles.SearchRequest{}, err
	}

	lang, ok := metadata.LookupLanguage(searchLang)
	if !ok {
		return opensubtitles.SearchRequest{}, fmt.Errorf("unknown language %q", searchLang)
	}

	req := opensubtitles.SearchRequest{
		MediaPath:                videoPath,
		Language:                 lang.Code3,
		TwoLetterISOLanguageName: searchLang,
		IsPerfectMatch:           searchPerfect,
		IsAutomated:              searchAutomated,
	}
	if !strings.Contains(searchLang, "-") {
		req.TwoLetterISOLanguageName = lang.Code2
	}

	switch strings.ToLower(searchType) {
	case "":
		req.ContentType = opensubtitles.ContentMovie
		if info.IsEpisode() {
			req.ContentType = opensubtitles.ContentEpisode
		}
	case "movie":
		req.ContentType = opensubtitles.ContentMovie
	case "episode":
		req.ContentType = opensubtitles.ContentEpisode
	default:
		return opensubtitles.SearchRequest{}, fmt.Errorf("invalid --type: %s. Must be one of: movie, episode", searchType)
	}

	imdbID := info.NFO_IMDbID
	if searchIMDbID != "" {
		if imdbID, err = metadata.NormalizeIMDbID(searchIMDbID); err != nil {
			return opensubtitles.SearchRequest{}, err
		}
	}
	req.IMDbID = imdbID

	if req.ContentType == opensubtitles.ContentEpisode {
		req.SeriesName = firstNonEmpty(searchSeries, info.Title)
		if season := firstPositive(searchSeason, info.Season); season > 0 {
			req.SeasonNumber = &season
		}
		if episode := firstPositive(searchEpisode, info.Episode); episode > 0 {
			req.EpisodeNumber = &episode
		}
	}
	return req, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	req, err := buildSearchRequest(args[0])
	if err != nil {
		return err
	}

	client, err := providerFromConfig()
	if err != nil {
		return err
	}

	logger.WithFields(log.Fields{
		"file":     req.MediaPath,
		"type":     req.ContentType,
		"language": req.TwoLetterISOLanguageName,
		"imdb_id":  req.IMDbID,
	}).Debug("Searching subtitles...")

	results, err := client.Search(cmd.Context(), req)
	if err != nil {
		logger.WithError(err).Error("Subtitle search failed")
		return fmt.Errorf("subtitle search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "No subtitles found matching the criteria.")
		return nil
	}

	fmt.Fprintf(out, "Found %d subtitles:\n", len(results))
	fmt.Fprintln(out, "--------------------------------------------------")
	for _, r := range results {
		fmt.Fprintf(out, "ID: %s\n", r.ID)
		fmt.Fprintf(out, "  Release: %s\n", r.Name)
		fmt.Fprintf(out, "  Uploader: %s\n", r.Author)
		fmt.Fprintf(out, "  Downloads: %d\n", r.DownloadCount)
		fmt.Fprintf(out, "  Rating: %.1f\n", r.CommunityRating)
		fmt.Fprintf(out, "  Hash match: %t\n", r.IsHashMatch)
		if r.Comment != "" {
			fmt.Fprintf(out, "  Comment: %s\n", r.Comment)
		}
		fmt.Fprintln(out, "--------------------------------------------------")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
