package opensubtitles

import (
	"fmt"
	"strconv"
	"strings"

	coreErrors "github.com/angelospk/opensubtitles-provider/pkg/core/errors"
)

// SubtitleIdentifier names one downloadable subtitle file. Its string form is
// "<format>-<language>-<file-id>", e.g. "srt-eng-12345".
type SubtitleIdentifier struct {
	Format   string
	Language string
	FileID   int
}

func (id SubtitleIdentifier) String() string {
	return EncodeIdentifier(id.Format, id.Language, id.FileID)
}

// EncodeIdentifier builds the string form of a subtitle identifier.
func EncodeIdentifier(format, language string, fileID int) string {
	return fmt.Sprintf("%s-%s-%d", format, language, fileID)
}

// DecodeIdentifier parses the string form of a subtitle identifier.
func DecodeIdentifier(raw string) (SubtitleIdentifier, error) {
	parts := strings.Split(raw, "-")
	if len(parts) != 3 {
		return SubtitleIdentifier{}, &coreErrors.InvalidIdentifierError{
			ID:     raw,
			Reason: fmt.Sprintf("expected 3 parts, got %d", len(parts)),
		}
	}
	fileID, err := strconv.Atoi(parts[2])
	if err != nil {
		return SubtitleIdentifier{}, &coreErrors.InvalidIdentifierError{ID: raw, Reason: "file id is not a number"}
	}
	if fileID < 0 {
		return SubtitleIdentifier{}, &coreErrors.InvalidIdentifierError{ID: raw, Reason: "file id is negative"}
	}
	return SubtitleIdentifier{Format: parts[0], Language: parts[1], FileID: fileID}, nil
}
