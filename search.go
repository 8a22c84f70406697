package opensubtitles

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/angelospk/opensubtitles-provider/internal/constants"
	"github.com/angelospk/opensubtitles-provider/internal/httpclient"
	"github.com/angelospk/opensubtitles-provider/internal/metrics"
	log "github.com/sirupsen/logrus"
)

// SearchCriteria describes one catalog search.
type SearchCriteria struct {
	Languages     string
	MovieHash     string
	ContentType   ContentType
	IMDbID        int
	Query         string
	SeasonNumber  *int
	EpisodeNumber *int
	PerfectMatch  bool
}

func (sc SearchCriteria) params(page int) SearchSubtitlesParams {
	p := SearchSubtitlesParams{
		Languages:     sc.Languages,
		Moviehash:     sc.MovieHash,
		Type:          string(sc.ContentType),
		Query:         sc.Query,
		SeasonNumber:  sc.SeasonNumber,
		EpisodeNumber: sc.EpisodeNumber,
	}
	if sc.IMDbID != 0 {
		id := sc.IMDbID
		p.IMDbID = &id
	}
	if sc.PerfectMatch {
		p.MoviehashMatch = "only"
	}
	if page > 1 {
		p.Page = &page
	}
	return p
}

// SearchSubtitles queries the catalog and merges all result pages. Paging
// stops at the reported last page or at the first short page. A failed page
// fails the whole search.
func (c *Client) SearchSubtitles(ctx context.Context, criteria SearchCriteria) ([]Subtitle, error) {
	var (
		results []Subtitle
		total   = -1
		page    = 1
	)
	for {
		qs, err := httpclient.EncodeQuery(criteria.params(page))
		if err != nil {
			return nil, err
		}

		resp, err := send[SearchSubtitlesResponse](ctx, c, http.MethodGet, "/subtitles?"+qs, nil, nil)
		if err != nil {
			metrics.SearchesTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		metrics.SearchPagesTotal.Inc()

		data, err := resp.payload(fmt.Sprintf("Search failed on page %d", page))
		if err != nil {
			metrics.SearchesTotal.WithLabelValues("error").Inc()
			c.logger.WithFields(log.Fields{"page": page, "status": resp.Code}).WithError(err).Error("Invalid search response")
			return nil, err
		}

		if data.TotalPages == 0 {
			break
		}
		if total == -1 {
			total = data.TotalPages
		}
		results = append(results, data.Data...)

		next := data.Page + 1
		if next <= page {
			next = page + 1
		}
		page = next
		if page > total || len(data.Data) < constants.SearchPageSize {
			break
		}
	}

	metrics.SearchesTotal.WithLabelValues("success").Inc()
	c.logger.WithFields(log.Fields{"rows": len(results), "pages": total}).Debug("Search completed")
	return results, nil
}

// filterMatches keeps results for the requested feature that have at least
// one file. Episodes must match season and episode, movies the IMDb id when
// one was searched for.
func filterMatches(subs []Subtitle, criteria SearchCriteria) []Subtitle {
	want := criteria.ContentType.featureType()
	out := make([]Subtitle, 0, len(subs))
	for _, s := range subs {
		a := s.Attributes
		if a == nil || a.FeatureDetails == nil || len(a.Files) == 0 {
			continue
		}
		fd := a.FeatureDetails
		if fd.FeatureType != want {
			continue
		}
		if criteria.ContentType == ContentEpisode {
			if !intPtrEqual(fd.SeasonNumber, criteria.SeasonNumber) || !intPtrEqual(fd.EpisodeNumber, criteria.EpisodeNumber) {
				continue
			}
		} else if criteria.IMDbID != 0 && (fd.IMDbID == nil || *fd.IMDbID != criteria.IMDbID) {
			continue
		}
		if criteria.PerfectMatch && !a.MoviehashMatch {
			continue
		}
		out = append(out, s)
	}
	return out
}

// rankMatches orders results by hash match, download count, rating and
// trusted uploader, all descending. Ties keep their original order.
func rankMatches(subs []Subtitle) {
	sort.SliceStable(subs, func(i, j int) bool {
		a, b := subs[i].Attributes, subs[j].Attributes
		if a.MoviehashMatch != b.MoviehashMatch {
			return a.MoviehashMatch
		}
		if a.DownloadCount != b.DownloadCount {
			return a.DownloadCount > b.DownloadCount
		}
		if a.Ratings != b.Ratings {
			return a.Ratings > b.Ratings
		}
		return a.FromTrusted && !b.FromTrusted
	})
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
