package opensubtitles

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/angelospk/opensubtitles-provider/internal/httpclient"
	"github.com/angelospk/opensubtitles-provider/internal/metrics"
	coreErrors "github.com/angelospk/opensubtitles-provider/pkg/core/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/html/charset"
)

// SubtitleResponse is a downloaded subtitle. Content holds UTF-8 text.
type SubtitleResponse struct {
	Format   string
	Language string
	Content  io.ReadCloser
}

// GetSubtitles downloads the subtitle file named by id, an identifier
// returned by Search. A rejected token is renewed and the download retried
// once.
func (c *Client) GetSubtitles(ctx context.Context, id string) (*SubtitleResponse, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &coreErrors.InvalidIdentifierError{ID: id, Reason: "missing id"}
	}
	sid, err := DecodeIdentifier(id)
	if err != nil {
		return nil, err
	}

	link, err := c.requestDownloadLink(ctx, sid.FileID)
	if err != nil {
		metrics.SubtitleDownloadsTotal.WithLabelValues(downloadStatus(err)).Inc()
		return nil, err
	}

	content, err := c.fetchSubtitle(ctx, link, sid.FileID)
	if err != nil {
		metrics.SubtitleDownloadsTotal.WithLabelValues(downloadStatus(err)).Inc()
		return nil, err
	}
	metrics.SubtitleDownloadsTotal.WithLabelValues("success").Inc()

	return &SubtitleResponse{
		Format:   sid.Format,
		Language: sid.Language,
		Content:  io.NopCloser(bytes.NewReader(content)),
	}, nil
}

func (c *Client) requestDownloadLink(ctx context.Context, fileID int) (string, error) {
	const attempts = 2
	for attempt := 1; ; attempt++ {
		if err := c.preCheckDownload(ctx); err != nil {
			c.logger.WithError(err).Error("OpenSubtitles download limit reached")
			return "", err
		}
		if err := c.EnsureLoggedIn(ctx); err != nil {
			return "", err
		}
		token := c.token()

		resp, err := send[DownloadResponse](ctx, c, http.MethodPost, "/download", DownloadRequest{FileID: fileID}, authHeaders(token))
		if err != nil {
			return "", err
		}
		if err := c.recordDownloadResult(resp.Code, resp.Data); err != nil {
			c.logger.WithError(err).Error("OpenSubtitles download limit reached")
			return "", err
		}

		if resp.Code == http.StatusUnauthorized && attempt < attempts {
			c.logger.WithField("file_id", fileID).Debug("Token rejected, logging in again")
			c.invalidateToken(token)
			continue
		}
		if !resp.Ok() {
			return "", resp.remoteError(fmt.Sprintf("Invalid response for file %d", fileID))
		}
		if resp.Data == nil || strings.TrimSpace(resp.Data.Link) == "" {
			return "", resp.remoteError(fmt.Sprintf("Failed to obtain download link for file %d (empty response)", fileID))
		}
		return resp.Data.Link, nil
	}
}

// fetchSubtitle reads the subtitle body from a signed link and converts it
// to UTF-8 using the charset in the response Content-Type.
func (c *Client) fetchSubtitle(ctx context.Context, link string, fileID int) ([]byte, error) {
	resp, err := c.transport.Do(ctx, &httpclient.Request{
		Method:  http.MethodGet,
		URL:     link,
		Headers: map[string]string{"Accept": "*/*"},
	})
	if err != nil {
		return nil, &coreErrors.TransportError{Op: fmt.Sprintf("download file %d", fileID), Err: err}
	}
	if resp.StatusCode != http.StatusOK || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, coreErrors.NewRemoteServiceError(resp.StatusCode, fmt.Sprintf("Subtitle with Id %d could not be downloaded", fileID), "")
	}

	reader, err := charset.NewReader(bytes.NewReader(resp.Body), resp.ContentType)
	if err != nil {
		c.logger.WithError(err).WithField("content_type", resp.ContentType).Debug("Unknown subtitle charset, keeping raw bytes")
		return resp.Body, nil
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		c.logger.WithError(err).WithField("file_id", fileID).Warn("Charset conversion failed, keeping raw bytes")
		return resp.Body, nil
	}
	c.logger.WithFields(log.Fields{"file_id": fileID, "bytes": len(content)}).Debug("Downloaded subtitle")
	return content, nil
}

func downloadStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case coreErrors.IsQuotaExceeded(err):
		return "quota_exceeded"
	case coreErrors.IsAuthentication(err):
		return "auth_failed"
	case coreErrors.IsTransport(err):
		return "transport_error"
	default:
		return "remote_error"
	}
}
