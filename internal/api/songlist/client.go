package songlist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"

	"songlist-downloader/internal/shared"
)

const (
	referer   = "https://y.qq.com/"
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/94.0.4606.81 Safari/537.36"
)

// callbackPattern unwraps JSONP bodies of the form name({...}).
var callbackPattern = regexp.MustCompile(`(?s)^\s*\w+\((.*)\)\s*;?\s*$`)

// Client fetches playlist contents from the playlist-listing service.
type Client struct {
	endpoint string
	client   *http.Client
}

type response struct {
	CdList []struct {
		SongList []struct {
			SongName string `json:"songname"`
			SongMID  string `json:"songmid"`
		} `json:"songlist"`
	} `json:"cdlist"`
}

func NewClient(endpoint string, client *http.Client) *Client {
	return &Client{endpoint: endpoint, client: client}
}

// FetchRaw returns the decoded JSON payload of the playlist, unwrapped from
// any callback envelope.
func (c *Client) FetchRaw(ctx context.Context, playlistID string) (json.RawMessage, error) {
	body, err := c.get(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	payload := unwrapCallback(body)
	if !json.Valid(payload) {
		return nil, &shared.MalformedResponseError{Err: fmt.Errorf("playlist %s: response is not JSON", playlistID)}
	}
	return json.RawMessage(payload), nil
}

// FetchTracks returns the songs of the first listed playlist as track
// descriptors.
func (c *Client) FetchTracks(ctx context.Context, playlistID string) ([]shared.TrackDescriptor, error) {
	raw, err := c.FetchRaw(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &shared.MalformedResponseError{Err: err}
	}
	if len(resp.CdList) == 0 {
		return nil, shared.ErrEmptySongList
	}

	songs := resp.CdList[0].SongList
	tracks := make([]shared.TrackDescriptor, 0, len(songs))
	for _, song := range songs {
		tracks = append(tracks, shared.TrackDescriptor{Name: song.SongName, Identifier: song.SongMID})
	}
	return tracks, nil
}

func (c *Client) get(ctx context.Context, playlistID string) ([]byte, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("error parsing URL: %w", err)
	}
	q := u.Query()
	q.Set("disstid", playlistID)
	q.Set("type", "1")
	q.Set("json", "1")
	q.Set("utf8", "1")
	q.Set("onlysong", "0")
	q.Set("nosign", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Referer", referer)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &shared.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &shared.TransportError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &shared.TransportError{StatusCode: resp.StatusCode, Status: resp.Status, Err: err}
	}
	return body, nil
}

func unwrapCallback(body []byte) []byte {
	if m := callbackPattern.FindSubmatch(body); m != nil {
		return m[1]
	}
	return body
}
