package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Session metrics
var (
	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opensubtitles_logins_total",
			Help: "Total number of login attempts by result.",
		},
		[]string{"result"},
	)
)

// Search metrics
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opensubtitles_searches_total",
			Help: "Total number of catalog searches by result.",
		},
		[]string{"result"},
	)

	SearchPagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "opensubtitles_search_pages_total",
			Help: "Total number of search result pages requested.",
		},
	)
)

// Subtitle download metrics
var (
	SubtitleDownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opensubtitles_subtitle_downloads_total",
			Help: "Total number of subtitle downloads by status.",
		},
		[]string{"status"},
	)

	RemainingDownloads = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "opensubtitles_remaining_downloads",
			Help: "Downloads left in the current quota window as last reported by the service.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		LoginsTotal,
		SearchesTotal,
		SearchPagesTotal,
		SubtitleDownloadsTotal,
		RemainingDownloads,
	)
}
