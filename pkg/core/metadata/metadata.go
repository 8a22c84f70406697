package metadata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	ptn "github.com/razsteinmetz/go-ptn"
	log "github.com/sirupsen/logrus"
)

// imdbIDRegex finds an IMDb title id in free text such as an NFO file.
var imdbIDRegex = regexp.MustCompile(`tt\d{7,8}`)

// VideoInfo holds what can be learned about a video from its file name and
// any NFO file next to it.
type VideoInfo struct {
	FilePath   string `json:"filePath"`
	FileName   string `json:"fileName"`
	NFO_IMDbID string `json:"nfoImdbId,omitempty"` // IMDb ID extracted from NFO

	Title        string `json:"title,omitempty"`
	Year         int    `json:"year,omitempty"`
	Season       int    `json:"season,omitempty"`
	Episode      int    `json:"episode,omitempty"`
	Resolution   string `json:"resolution,omitempty"` // e.g., "1080p", "720p"
	ReleaseGroup string `json:"releaseGroup,omitempty"`
}

// IsEpisode reports whether the file name carried an episode number.
func (v *VideoInfo) IsEpisode() bool {
	return v.Episode > 0
}

// LanguageInfo holds details for a specific language.
type LanguageInfo struct {
	Code2 string // ISO 639-1 Code (e.g., "en", "pt")
	Code3 string // ISO 639-2 Code (e.g., "eng", "por")
	Name  string // English name (e.g., "English", "Portuguese")
}

// languagesDB maps lower-cased two-letter codes, three-letter codes and names
// to their LanguageInfo.
var languagesDB = map[string]LanguageInfo{}

func init() {
	languages := []LanguageInfo{
		{Code2: "en", Code3: "eng", Name: "English"},
		{Code2: "el", Code3: "gre", Name: "Greek"},
		{Code2: "es", Code3: "spa", Name: "Spanish"},
		{Code2: "fr", Code3: "fre", Name: "French"},
		{Code2: "de", Code3: "ger", Name: "German"},
		{Code2: "it", Code3: "ita", Name: "Italian"},
		{Code2: "pt", Code3: "por", Name: "Portuguese"},
		{Code2: "zh", Code3: "chi", Name: "Chinese"},
		{Code2: "af", Code3: "afr", Name: "Afrikaans"},
		{Code2: "sq", Code3: "alb", Name: "Albanian"},
		{Code2: "ar", Code3: "ara", Name: "Arabic"},
		{Code2: "hy", Code3: "arm", Name: "Armenian"},
		{Code2: "eu", Code3: "baq", Name: "Basque"},
		{Code2: "bn", Code3: "ben", Name: "Bengali"},
		{Code2: "bg", Code3: "bul", Name: "Bulgarian"},
		{Code2: "ca", Code3: "cat", Name: "Catalan"},
		{Code2: "hr", Code3: "hrv", Name: "Croatian"},
		{Code2: "cs", Code3: "cze", Name: "Czech"},
		{Code2: "da", Code3: "dan", Name: "Danish"},
		{Code2: "nl", Code3: "dut", Name: "Dutch"},
		{Code2: "fi", Code3: "fin", Name: "Finnish"},
		{Code2: "he", Code3: "heb", Name: "Hebrew"},
		{Code2: "hi", Code3: "hin", Name: "Hindi"},
		{Code2: "hu", Code3: "hun", Name: "Hungarian"},
		{Code2: "id", Code3: "ind", Name: "Indonesian"},
		{Code2: "ja", Code3: "jpn", Name: "Japanese"},
		{Code2: "ko", Code3: "kor", Name: "Korean"},
		{Code2: "lv", Code3: "lav", Name: "Latvian"},
		{Code2: "lt", Code3: "lit", Name: "Lithuanian"},
		{Code2: "mk", Code3: "mac", Name: "Macedonian"},
		{Code2: "ms", Code3: "may", Name: "Malay"},
		{Code2: "no", Code3: "nor", Name: "Norwegian"},
		{Code2: "fa", Code3: "per", Name: "Persian"},
		{Code2: "pl", Code3: "pol", Name: "Polish"},
		{Code2: "ro", Code3: "rum", Name: "Romanian"},
		{Code2: "ru", Code3: "rus", Name: "Russian"},
		{Code2: "sr", Code3: "scc", Name: "Serbian"},
		{Code2: "sk", Code3: "slo", Name: "Slovak"},
		{Code2: "sl", Code3: "slv", Name: "Slovenian"},
		{Code2: "sv", Code3: "swe", Name: "Swedish"},
		{Code2: "th", Code3: "tha", Name: "Thai"},
		{Code2: "tr", Code3: "tur", Name: "Turkish"},
		{Code2: "uk", Code3: "ukr", Name: "Ukrainian"},
		{Code2: "vi", Code3: "vie", Name: "Vietnamese"},
	}

	for _, lang := range languages {
		for _, key := range []string{lang.Code2, lang.Code3, lang.Name} {
			languagesDB[strings.ToLower(key)] = lang
		}
	}
}

// LookupLanguage finds a language by two-letter code, three-letter code or
// English name. A regional tag such as "pt-BR" is looked up by its primary
// subtag.
func LookupLanguage(tag string) (LanguageInfo, bool) {
	key := strings.ToLower(strings.TrimSpace(tag))
	if lang, ok := languagesDB[key]; ok {
		return lang, true
	}
	if primary, _, found := strings.Cut(key, "-"); found {
		lang, ok := languagesDB[primary]
		return lang, ok
	}
	return LanguageInfo{}, false
}

// ParseVideo extracts title, season and episode from the video's file name
// and an IMDb id from a matching .nfo file, if one exists.
func ParseVideo(videoPath string) (*VideoInfo, error) {
	if videoPath == "" {
		return nil, errors.New("video path is empty")
	}

	info := &VideoInfo{
		FilePath: videoPath,
		FileName: filepath.Base(videoPath),
	}

	parsed, err := ptn.Parse(info.FileName)
	if err == nil {
		info.Title = parsed.Title
		info.Year = parsed.Year
		info.Season = parsed.Season
		info.Episode = parsed.Episode
		info.Resolution = parsed.Resolution
		info.ReleaseGroup = parsed.Group
	} else {
		log.Warnf("Failed to parse video filename '%s': %v", info.FileName, err)
		baseName := strings.TrimSuffix(info.FileName, filepath.Ext(info.FileName))
		info.Title = strings.ReplaceAll(baseName, ".", " ")
	}

	nfoPath := strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".nfo"
	imdbID, err := ReadNFO(nfoPath)
	switch {
	case err == nil:
		info.NFO_IMDbID = imdbID
	case !os.IsNotExist(err):
		log.Warnf("Error reading NFO file %s: %v", nfoPath, err)
	}

	return info, nil
}

// ReadNFO returns the first IMDb title id found in an NFO file, or an empty
// string when the file has none.
func ReadNFO(filePath string) (string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	return imdbIDRegex.FindString(string(content)), nil
}

// NormalizeIMDbID accepts "tt0133093", "133093" or "0133093" and returns the
// "tt"-prefixed, zero padded form.
func NormalizeIMDbID(id string) (string, error) {
	digits := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(id)), "tt")
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("invalid IMDb id %q", id)
	}
	return fmt.Sprintf("tt%07d", n), nil
}
