package opensubtitles

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	coreErrors "github.com/angelospk/opensubtitles-provider/pkg/core/errors"
	"github.com/angelospk/opensubtitles-provider/pkg/core/fileops"
	log "github.com/sirupsen/logrus"
)

// rateLimitLogInterval bounds how often an automated search logs that the
// quota is used up.
const rateLimitLogInterval = 60 * time.Second

// SearchRequest is a host request for subtitles matching a local video.
type SearchRequest struct {
	MediaPath   string
	ContentType ContentType
	// Language is the three-letter tag used in the returned identifiers.
	Language                 string
	TwoLetterISOLanguageName string
	// IMDbID is the "tt"-prefixed catalog id, if known.
	IMDbID         string
	SeriesName     string
	SeasonNumber   *int
	EpisodeNumber  *int
	IsPerfectMatch bool
	IsAutomated    bool
}

// RemoteSubtitleInfo is one ranked search result.
type RemoteSubtitleInfo struct {
	ID                         string
	Name                       string
	Author                     string
	Comment                    string
	Format                     string
	ProviderName               string
	ThreeLetterISOLanguageName string
	CommunityRating            float64
	DownloadCount              int
	DateCreated                time.Time
	IsHashMatch                bool
}

// Search finds subtitles for the video described by req, best matches first.
// Automated searches while the quota is used up, and requests missing the
// episode numbers or the media path, return an empty list.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]RemoteSubtitleInfo, error) {
	if err := c.EnsureLoggedIn(ctx); err != nil {
		return nil, err
	}

	if req.IsAutomated {
		if q := c.Quota(); q.Remaining != nil && *q.Remaining <= 0 {
			if c.shouldLogRateLimit() {
				c.logger.Info("Daily download limit reached, returning no results for automated task")
			}
			return []RemoteSubtitleInfo{}, nil
		}
	}

	if req.ContentType == ContentEpisode && (req.SeasonNumber == nil || req.EpisodeNumber == nil || req.SeriesName == "") {
		c.logger.Debug("Episode information missing")
		return []RemoteSubtitleInfo{}, nil
	}
	if req.MediaPath == "" {
		c.logger.Debug("Path missing")
		return []RemoteSubtitleInfo{}, nil
	}

	imdbID, _ := strconv.Atoi(strings.TrimLeft(req.IMDbID, "t"))

	language, err := c.ResolveLanguage(ctx, req.TwoLetterISOLanguageName)
	if err != nil {
		return nil, err
	}

	hash, _, err := fileops.CalculateOSDbHash(req.MediaPath)
	if err != nil {
		return nil, &coreErrors.TransportError{Op: "hash " + req.MediaPath, Err: err}
	}

	contentType := req.ContentType
	if contentType != ContentEpisode {
		contentType = ContentMovie
	}
	criteria := SearchCriteria{
		Languages:    language,
		MovieHash:    hash,
		ContentType:  contentType,
		PerfectMatch: req.IsPerfectMatch,
	}
	if imdbID != 0 {
		criteria.IMDbID = imdbID
	} else {
		criteria.Query = filepath.Base(req.MediaPath)
		if contentType == ContentEpisode {
			criteria.SeasonNumber = req.SeasonNumber
			criteria.EpisodeNumber = req.EpisodeNumber
		}
	}
	// Filtering always checks season and episode, even when the catalog id
	// was used for the query.
	filterCriteria := criteria
	filterCriteria.SeasonNumber = req.SeasonNumber
	filterCriteria.EpisodeNumber = req.EpisodeNumber

	c.logger.WithFields(log.Fields{
		"languages": criteria.Languages,
		"type":      criteria.ContentType,
		"imdb_id":   criteria.IMDbID,
		"query":     criteria.Query,
	}).Debug("Search query")

	subs, err := c.SearchSubtitles(ctx, criteria)
	if err != nil {
		return nil, err
	}

	matches := filterMatches(subs, filterCriteria)
	rankMatches(matches)

	results := make([]RemoteSubtitleInfo, 0, len(matches))
	for _, s := range matches {
		results = append(results, c.project(s, req.Language))
	}
	return results, nil
}

func (c *Client) project(s Subtitle, language string) RemoteSubtitleInfo {
	a := s.Attributes
	info := RemoteSubtitleInfo{
		ID:                         EncodeIdentifier("srt", language, a.Files[0].FileID),
		Name:                       a.Release,
		Comment:                    a.Comments,
		Format:                     "srt",
		ProviderName:               ProviderName,
		ThreeLetterISOLanguageName: language,
		CommunityRating:            a.Ratings,
		DownloadCount:              a.DownloadCount,
		DateCreated:                a.UploadDate,
		IsHashMatch:                a.MoviehashMatch,
	}
	if a.Uploader != nil {
		info.Author = a.Uploader.Name
	}
	return info
}

func (c *Client) shouldLogRateLimit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if now.Sub(c.lastRateLimitLog) <= rateLimitLogInterval {
		return false
	}
	c.lastRateLimitLog = now
	return true
}
