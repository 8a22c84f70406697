package constants

// DefaultBaseURL is the standard base URL for the OpenSubtitles REST API.
const DefaultBaseURL = "https://api.opensubtitles.com/api/v1"

// ApiPath is the common path prefix for API endpoints.
const ApiPath = "/api/v1"

// DefaultApiKey is the built-in API key used when no per-install key is configured.
// Release builds inject it with -ldflags "-X .../internal/constants.DefaultApiKey=...".
var DefaultApiKey = ""

// Version is reported in the User-Agent header of every API request.
const Version = "1.2.0"

// DefaultUserAgent identifies this client to the service.
const DefaultUserAgent = "opensubtitles-provider v" + Version

// SearchPageSize is the number of rows the service returns on a full result page.
const SearchPageSize = 100
