package shared

import (
	"sync"
)

// UnknownField is substituted for metadata the resolution service left out.
const UnknownField = "unknown"

// TrackDescriptor is one entry of the track list input file.
type TrackDescriptor struct {
	Name       string `json:"songname"`
	Identifier string `json:"songmid"`
}

// ResolvedMedia is the direct media link and display metadata for a track.
type ResolvedMedia struct {
	SourceURL string
	Title     string
	Artist    string
	CoverURL  string // optional, empty when the service did not return one
}

// FileName returns the sanitized base name used for both the downloaded
// source and the transcoded artifact.
func (m *ResolvedMedia) FileName() string {
	return MediaFileName(m.Title, m.Artist)
}

// LocalMediaFile is a downloaded, not yet transcoded, media stream on disk.
type LocalMediaFile struct {
	Path string
	Size int64
}

// TranscodedFile is the final artifact of a successfully processed track.
type TranscodedFile struct {
	Path   string
	Format string
	Title  string
	Artist string
}

// TrackState is a step of the per-track pipeline state machine.
type TrackState int

const (
	StatePending TrackState = iota
	StateResolving
	StateResolveFailed
	StateResolved
	StateFetching
	StateFetchFailed
	StateFetched
	StateTranscodeQueued
	StateTranscodeFailed
	StateDone
)

func (s TrackState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolving:
		return "resolving"
	case StateResolveFailed:
		return "resolve-failed"
	case StateResolved:
		return "resolved"
	case StateFetching:
		return "fetching"
	case StateFetchFailed:
		return "fetch-failed"
	case StateFetched:
		return "fetched"
	case StateTranscodeQueued:
		return "transcode-queued"
	case StateTranscodeFailed:
		return "transcode-failed"
	case StateDone:
		return "done"
	default:
		return "invalid"
	}
}

// Terminal reports whether no further transition can leave s.
func (s TrackState) Terminal() bool {
	switch s {
	case StateResolveFailed, StateFetchFailed, StateTranscodeFailed, StateDone:
		return true
	}
	return false
}

// RunStats aggregates per-track outcomes of a pipeline run. Transcode
// outcomes can be recorded after the bounded phase returns, so all access
// goes through the methods.
type RunStats struct {
	RunID string

	mu              sync.Mutex
	resolved        int
	resolveFailed   int
	fetchFailed     int
	fetched         int
	transcoded      int
	transcodeFailed int
	failedItems     []string
	results         []*TranscodedFile
}

// Snapshot is a point-in-time copy of RunStats.
type Snapshot struct {
	Resolved        int
	ResolveFailed   int
	FetchFailed     int
	Fetched         int
	Transcoded      int
	TranscodeFailed int
	FailedItems     []string
	Outputs         []*TranscodedFile
}

func (s *RunStats) Record(state TrackState, item string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch state {
	case StateResolved:
		s.resolved++
	case StateResolveFailed:
		s.resolveFailed++
		s.failedItems = append(s.failedItems, item)
	case StateFetchFailed:
		s.fetchFailed++
		s.failedItems = append(s.failedItems, item)
	case StateFetched:
		s.fetched++
	case StateTranscodeFailed:
		s.transcodeFailed++
		s.failedItems = append(s.failedItems, item)
	case StateDone:
		s.transcoded++
	}
}

// AddOutput remembers a finished artifact.
func (s *RunStats) AddOutput(out *TranscodedFile) {
	s.mu.Lock()
	s.results = append(s.results, out)
	s.mu.Unlock()
}

func (s *RunStats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Resolved:        s.resolved,
		ResolveFailed:   s.resolveFailed,
		FetchFailed:     s.fetchFailed,
		Fetched:         s.fetched,
		Transcoded:      s.transcoded,
		TranscodeFailed: s.transcodeFailed,
		FailedItems:     append([]string(nil), s.failedItems...),
		Outputs:         append([]*TranscodedFile(nil), s.results...),
	}
}

// QueryParam is a single query-string pair for API requests.
type QueryParam struct {
	Name  string
	Value string
}

// TrackResult describes a track after a state transition. Media is set once
// the track was resolved; Err carries the failure for the *Failed states.
type TrackResult struct {
	Track TrackDescriptor
	State TrackState
	Media *ResolvedMedia
	Err   error
}
