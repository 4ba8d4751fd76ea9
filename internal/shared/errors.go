package shared

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrDownloadCancelled = errors.New("download cancelled by user")
	ErrEmptySongList     = errors.New("song list response contained no playlists")
)

// NotFoundError is returned when the track list file does not exist.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("track list not found: %s", e.Path)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ParseError is returned when the track list is not a JSON array of
// {songname, songmid} records.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse track list %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TransportError is a failed resolution request. StatusCode is zero when the
// request never produced a response.
type TransportError struct {
	StatusCode int
	Status     string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("resolve request failed: %v", e.Err)
	}
	return fmt.Sprintf("resolve request failed: HTTP %d: %s", e.StatusCode, e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError is returned when the resolution payload is not JSON.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed resolve response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// ApplicationError is a well-formed response that signals a logical failure,
// such as a missing source link. It is reported as a diagnostic only.
type ApplicationError struct {
	Code int
	Msg  string
}

func (e *ApplicationError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("resolve service returned code %d", e.Code)
	}
	return fmt.Sprintf("resolve service returned code %d: %s", e.Code, e.Msg)
}

// FetchError is a failed media download.
type FetchError struct {
	StatusCode int
	Status     string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("media download failed: %v", e.Err)
	}
	return fmt.Sprintf("media download failed: HTTP %d: %s", e.StatusCode, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// TranscodeError is a failed decode/encode. Output holds the encoder's
// combined output when there is one.
type TranscodeError struct {
	Source string
	Output string
	Err    error
}

func (e *TranscodeError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("transcode of %s failed: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("transcode of %s failed: %v\nffmpeg output: %s", e.Source, e.Err, e.Output)
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// IsRetryable checks if a resolve or fetch error is worth another attempt:
// connection failures and the usual overload statuses.
func IsRetryable(err error) bool {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.StatusCode == 0 || retryableStatus(transportErr.StatusCode)
	}
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.StatusCode == 0 || retryableStatus(fetchErr.StatusCode)
	}
	return false
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusServiceUnavailable, // 503
		http.StatusTooManyRequests, // 429
		http.StatusBadGateway,      // 502
		http.StatusGatewayTimeout:  // 504
		return true
	}
	return false
}
