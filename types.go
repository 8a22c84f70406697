package opensubtitles

import "time"

// --- Common Types ---

// ContentType is the kind of media a search is made for.
type ContentType string

const (
	ContentMovie   ContentType = "movie"
	ContentEpisode ContentType = "episode"
)

// featureType is the capitalized form the service uses in feature_details.
func (t ContentType) featureType() string {
	if t == ContentEpisode {
		return "Episode"
	}
	return "Movie"
}

// PaginatedResponse defines the structure for paginated API responses.
type PaginatedResponse struct {
	TotalPages int `json:"total_pages"`
	TotalCount int `json:"total_count"`
	PerPage    int `json:"per_page"`
	Page       int `json:"page"`
}

// UploaderInfo contains details about the subtitle uploader.
type UploaderInfo struct {
	UploaderID *int   `json:"uploader_id"`
	Name       string `json:"name"`
	Rank       string `json:"rank"`
}

// --- Auth Types ---

// LoginRequest is the request body for the login endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginUser is the user record embedded in a login response.
type LoginUser struct {
	AllowedDownloads int    `json:"allowed_downloads"`
	Level            string `json:"level"`
	UserID           int    `json:"user_id"`
	VIP              bool   `json:"vip"`
}

// LoginResponse is the response from the login endpoint.
type LoginResponse struct {
	User    *LoginUser `json:"user"`
	BaseURL string     `json:"base_url"`
	Token   string     `json:"token"`
	Status  int        `json:"status"`
}

// LogoutResponse is the response from the logout endpoint.
type LogoutResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// UserInfo contains details from the /infos/user endpoint.
type UserInfo struct {
	AllowedDownloads   int        `json:"allowed_downloads"`
	Level              string     `json:"level"`
	UserID             int        `json:"user_id"`
	VIP                bool       `json:"vip"`
	DownloadsCount     int        `json:"downloads_count"`
	RemainingDownloads *int       `json:"remaining_downloads"`
	ResetTimeUTC       *time.Time `json:"reset_time_utc"`
}

// GetUserInfoResponse wraps the UserInfo data.
type GetUserInfoResponse struct {
	Data *UserInfo `json:"data"`
}

// --- Language Types ---

// Language is one entry of the supported language list.
type Language struct {
	Code string `json:"language_code"`
	Name string `json:"language_name"`
}

// LanguagesResponse wraps the /infos/languages list.
type LanguagesResponse struct {
	Data []Language `json:"data"`
}

// --- Subtitle Types ---

// SubtitleFeatureDetails represents the nested feature info within a subtitle.
type SubtitleFeatureDetails struct {
	FeatureID     int    `json:"feature_id"`
	FeatureType   string `json:"feature_type"` // "Movie", "Episode"
	Year          int    `json:"year"`
	Title         string `json:"title"`
	MovieName     string `json:"movie_name"`
	IMDbID        *int   `json:"imdb_id"`
	TMDBID        *int   `json:"tmdb_id"`
	SeasonNumber  *int   `json:"season_number"`
	EpisodeNumber *int   `json:"episode_number"`
	ParentIMDbID  *int   `json:"parent_imdb_id"`
	ParentTitle   string `json:"parent_title"`
}

// SubtitleFile represents a single file within a subtitle entry.
type SubtitleFile struct {
	FileID   int    `json:"file_id"`
	CDNumber int    `json:"cd_number"`
	FileName string `json:"file_name"`
}

// SubtitleAttributes holds the details of a subtitle entry.
type SubtitleAttributes struct {
	SubtitleID      string                  `json:"subtitle_id"`
	Language        string                  `json:"language"`
	DownloadCount   int                     `json:"download_count"`
	HearingImpaired bool                    `json:"hearing_impaired"`
	Votes           int                     `json:"votes"`
	Ratings         float64                 `json:"ratings"`
	FromTrusted     bool                    `json:"from_trusted"`
	UploadDate      time.Time               `json:"upload_date"`
	MoviehashMatch  bool                    `json:"moviehash_match"`
	Release         string                  `json:"release"`
	Comments        string                  `json:"comments"`
	Uploader        *UploaderInfo           `json:"uploader"`
	FeatureDetails  *SubtitleFeatureDetails `json:"feature_details"`
	URL             string                  `json:"url"`
	Files           []SubtitleFile          `json:"files"`
}

// Subtitle represents one search result row.
type Subtitle struct {
	ID         string              `json:"id"`
	Type       string              `json:"type"`
	Attributes *SubtitleAttributes `json:"attributes"`
}

// SearchSubtitlesParams defines query parameters for the /subtitles endpoint.
type SearchSubtitlesParams struct {
	EpisodeNumber  *int   `url:"episode_number,omitempty"`
	IMDbID         *int   `url:"imdb_id,omitempty"`
	Languages      string `url:"languages,omitempty"`
	Moviehash      string `url:"moviehash,omitempty"`
	MoviehashMatch string `url:"moviehash_match,omitempty"` // "only"
	Page           *int   `url:"page,omitempty"`
	Query          string `url:"query,omitempty"`
	SeasonNumber   *int   `url:"season_number,omitempty"`
	Type           string `url:"type,omitempty"` // "movie", "episode"
}

// SearchSubtitlesResponse wraps the paginated subtitle results.
type SearchSubtitlesResponse struct {
	PaginatedResponse
	Data []Subtitle `json:"data"`
}

// --- Download Types ---

// DownloadRequest is the request body for the /download endpoint.
type DownloadRequest struct {
	FileID int `json:"file_id"`
}

// DownloadResponse is the response from the /download endpoint.
type DownloadResponse struct {
	Link         string     `json:"link"`
	FileName     string     `json:"file_name"`
	Requests     int        `json:"requests"`
	Remaining    *int       `json:"remaining"`
	Message      string     `json:"message"`
	ResetTime    string     `json:"reset_time"`
	ResetTimeUTC *time.Time `json:"reset_time_utc"`
}
