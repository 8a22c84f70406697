package opensubtitles

import (
	"context"
	"net/http"
	"strings"

	coreErrors "github.com/angelospk/opensubtitles-provider/pkg/core/errors"
)

// languageAliases maps bare tags to the regional code the service lists.
var languageAliases = map[string]string{
	"zh": "zh-CN",
	"pt": "pt-PT",
}

// Languages returns the language codes supported by the service. The list is
// fetched on first use and kept for the lifetime of the client.
func (c *Client) Languages(ctx context.Context) ([]string, error) {
	c.langMu.RLock()
	cached := c.languages
	c.langMu.RUnlock()
	// An empty list is never treated as loaded; the next call asks again.
	if len(cached) > 0 {
		return append([]string(nil), cached...), nil
	}

	resp, err := send[LanguagesResponse](ctx, c, http.MethodGet, "/infos/languages", nil, nil)
	if err != nil {
		return nil, err
	}
	data, err := resp.payload("Failed to get language list")
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(data.Data))
	for _, l := range data.Data {
		if strings.TrimSpace(l.Code) != "" {
			codes = append(codes, l.Code)
		}
	}

	c.langMu.Lock()
	c.languages = codes
	c.langMu.Unlock()
	return append([]string(nil), codes...), nil
}

// ResolveLanguage maps a two-letter or regional tag to the code the service
// expects. A regional tag with no exact match falls back to its primary
// subtag.
func (c *Client) ResolveLanguage(ctx context.Context, tag string) (string, error) {
	codes, err := c.Languages(ctx)
	if err != nil {
		return "", err
	}

	candidate := aliasLanguage(tag)
	if found, ok := matchLanguage(codes, candidate); ok {
		return found, nil
	}
	if primary, _, ok := strings.Cut(candidate, "-"); ok {
		if found, ok := matchLanguage(codes, aliasLanguage(primary)); ok {
			return found, nil
		}
	}
	return "", &coreErrors.UnsupportedLanguageError{Language: tag}
}

func aliasLanguage(tag string) string {
	if alias, ok := languageAliases[strings.ToLower(tag)]; ok {
		return alias
	}
	return tag
}

func matchLanguage(codes []string, tag string) (string, bool) {
	for _, code := range codes {
		if strings.EqualFold(code, tag) {
			return code, true
		}
	}
	return "", false
}
