package opensubtitles

import (
	"encoding/json"
	"net/http"

	"github.com/angelospk/opensubtitles-provider/internal/httpclient"
	coreErrors "github.com/angelospk/opensubtitles-provider/pkg/core/errors"
)

// apiResponse is the outcome of one API call: the status code, the raw body
// and the decoded payload. Data is decoded for every status so error bodies
// that carry useful fields (a 406 download answer, for one) can still be read.
type apiResponse[T any] struct {
	Code      int
	Body      string
	Data      *T
	decodeErr error
}

func newAPIResponse[T any](resp *httpclient.Response) *apiResponse[T] {
	r := &apiResponse[T]{
		Code: resp.StatusCode,
		Body: string(resp.Body),
	}
	if len(resp.Body) == 0 {
		return r
	}
	var data T
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		r.decodeErr = err
		return r
	}
	r.Data = &data
	return r
}

// Ok reports a 2xx status.
func (r *apiResponse[T]) Ok() bool {
	return r.Code >= http.StatusOK && r.Code < http.StatusMultipleChoices
}

func (r *apiResponse[T]) remoteError(msg string) *coreErrors.RemoteServiceError {
	return coreErrors.NewRemoteServiceError(r.Code, msg, r.Body)
}

// payload returns the decoded data of a successful response, or a remote
// error when the status is not 2xx or the body could not be decoded.
func (r *apiResponse[T]) payload(msg string) (*T, error) {
	if !r.Ok() {
		return nil, r.remoteError(msg)
	}
	if r.Data == nil {
		if r.decodeErr != nil {
			return nil, r.remoteError(msg + ": malformed response: " + r.decodeErr.Error())
		}
		return nil, r.remoteError(msg + ": malformed response")
	}
	return r.Data, nil
}
