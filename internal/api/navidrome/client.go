package navidrome

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	subsonic "github.com/delucks/go-subsonic"

	"songlist-downloader/internal/shared"
)

const (
	apiVersion = "1.16.1"
	clientName = "songlist-downloader"
)

// Client publishes downloaded tracks into a Navidrome playlist. Library
// lookups go through go-subsonic; playlist writes use the REST endpoints
// directly since they need repeated songIdToAdd parameters.
type Client struct {
	URL      string
	Username string
	Password string

	httpClient *http.Client
	subsonic   subsonic.Client
	salt       string
	token      string
	debug      bool
}

// NewClient creates a Navidrome client. Call Authenticate before use.
func NewClient(baseURL, username, password string, httpClient *http.Client, debug bool) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		URL:        strings.TrimRight(baseURL, "/"),
		Username:   username,
		Password:   password,
		httpClient: httpClient,
		debug:      debug,
	}
}

// Authenticate checks the credentials against the server and prepares the
// token used by the raw playlist calls.
func (n *Client) Authenticate() error {
	salt, err := newSalt()
	if err != nil {
		return err
	}
	n.salt = salt
	n.token = getSaltedPassword(n.Password, n.salt)

	n.subsonic = subsonic.Client{
		Client:       n.httpClient,
		BaseUrl:      n.URL,
		User:         n.Username,
		ClientName:   clientName,
		PasswordAuth: true,
	}
	if err := n.subsonic.Authenticate(n.Password); err != nil {
		return fmt.Errorf("navidrome authentication failed: %w", err)
	}
	return nil
}

// FindTrack looks up a song by title and artist. It returns nil without an
// error when the library has no plausible match.
func (n *Client) FindTrack(title, artist string) (*subsonic.Child, error) {
	combined := fmt.Sprintf("%s %s", title, artist)
	result, err := n.subsonic.Search2(combined, map[string]string{"songCount": "5"})
	if err != nil {
		shared.DebugPrint(n.debug, "Combined search for '%s' failed: %v", combined, err)
	} else if result != nil {
		if song := pickSong(result.Song, title, artist, true); song != nil {
			return song, nil
		}
	}

	result, err = n.subsonic.Search2(title, map[string]string{"songCount": "10"})
	if err != nil {
		return nil, fmt.Errorf("error searching for track '%s': %w", title, err)
	}
	if result == nil {
		return nil, nil
	}
	return pickSong(result.Song, title, artist, false), nil
}

// pickSong prefers an exact title and artist match. With bestGuess the first
// result is accepted when nothing matches exactly; otherwise only the artist
// has to match.
func pickSong(songs []*subsonic.Child, title, artist string, bestGuess bool) *subsonic.Child {
	for _, song := range songs {
		if strings.EqualFold(song.Title, title) && strings.EqualFold(song.Artist, artist) {
			return song
		}
	}
	if bestGuess {
		if len(songs) > 0 {
			return songs[0]
		}
		return nil
	}
	for _, song := range songs {
		if strings.EqualFold(song.Artist, artist) {
			return song
		}
	}
	return nil
}

// FindPlaylist returns the ID of the playlist called name, or "" if there
// is none.
func (n *Client) FindPlaylist(name string) (string, error) {
	playlists, err := n.subsonic.GetPlaylists(map[string]string{})
	if err != nil {
		return "", err
	}
	for _, playlist := range playlists {
		if playlist.Name == name {
			return playlist.ID, nil
		}
	}
	return "", nil
}

// PlaylistTrackIDs returns the song IDs already in a playlist.
func (n *Client) PlaylistTrackIDs(playlistID string) (map[string]bool, error) {
	playlist, err := n.subsonic.GetPlaylist(playlistID)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(playlist.Entry))
	for _, entry := range playlist.Entry {
		ids[entry.ID] = true
	}
	return ids, nil
}

// CreatePlaylist creates an empty playlist and returns its ID.
func (n *Client) CreatePlaylist(ctx context.Context, name string) (string, error) {
	params := url.Values{}
	params.Set("name", name)

	var resp restResponse
	if err := n.call(ctx, "createPlaylist", params, &resp); err != nil {
		return "", fmt.Errorf("failed to create playlist: %w", err)
	}
	if resp.SubsonicResponse.Playlist.ID == "" {
		return "", fmt.Errorf("failed to create playlist: response carried no playlist id")
	}
	return resp.SubsonicResponse.Playlist.ID, nil
}

// AddTracksToPlaylist adds multiple tracks to a playlist in a single call.
func (n *Client) AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}
	params := url.Values{}
	params.Set("playlistId", playlistID)
	for _, songID := range trackIDs {
		params.Add("songIdToAdd", songID)
	}

	var resp restResponse
	if err := n.call(ctx, "updatePlaylist", params, &resp); err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}
	return nil
}

// Publish adds every transcoded file that the server can find to the named
// playlist, creating it if needed. Tracks the server does not know yet
// (the library may not have been rescanned) and tracks already in the
// playlist are skipped. It returns the number of tracks added.
func (n *Client) Publish(ctx context.Context, playlistName string, outputs []*shared.TranscodedFile, reporter shared.Reporter) (int, error) {
	var songIDs []string
	for _, out := range outputs {
		song, err := n.FindTrack(out.Title, out.Artist)
		switch {
		case err != nil:
			warn(reporter, out, "Navidrome search failed", err.Error())
		case song == nil:
			warn(reporter, out, "Track not found in Navidrome library", "")
		default:
			songIDs = append(songIDs, song.ID)
		}
	}
	if len(songIDs) == 0 {
		return 0, nil
	}

	playlistID, err := n.FindPlaylist(playlistName)
	if err != nil {
		return 0, fmt.Errorf("failed to list playlists: %w", err)
	}

	existing := map[string]bool{}
	if playlistID == "" {
		if playlistID, err = n.CreatePlaylist(ctx, playlistName); err != nil {
			return 0, err
		}
	} else if existing, err = n.PlaylistTrackIDs(playlistID); err != nil {
		return 0, fmt.Errorf("failed to read playlist: %w", err)
	}

	var toAdd []string
	for _, id := range songIDs {
		if !existing[id] {
			existing[id] = true
			toAdd = append(toAdd, id)
		}
	}
	if err := n.AddTracksToPlaylist(ctx, playlistID, toAdd); err != nil {
		return 0, err
	}
	return len(toAdd), nil
}

type restResponse struct {
	SubsonicResponse struct {
		Status string `json:"status"`
		Error  struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Playlist struct {
			ID string `json:"id"`
		} `json:"playlist"`
	} `json:"subsonic-response"`
}

func (n *Client) call(ctx context.Context, endpoint string, params url.Values, out *restResponse) error {
	params.Set("u", n.Username)
	params.Set("t", n.token)
	params.Set("s", n.salt)
	params.Set("v", apiVersion)
	params.Set("c", clientName)
	params.Set("f", "json")

	callURL := fmt.Sprintf("%s/rest/%s.view?%s", n.URL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, callURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status code %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if out.SubsonicResponse.Status == "failed" {
		return fmt.Errorf("%s (code %d)", out.SubsonicResponse.Error.Message, out.SubsonicResponse.Error.Code)
	}
	return nil
}

func warn(reporter shared.Reporter, out *shared.TranscodedFile, message, details string) {
	if reporter != nil {
		reporter.AddWarning(shared.PublishWarning, fmt.Sprintf("%s - %s", out.Title, out.Artist), message, details)
	}
}

func newSalt() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// getSaltedPassword returns the salted password for navidrome
func getSaltedPassword(password string, salt string) string {
	hasher := md5.New()
	hasher.Write([]byte(password + salt))
	return hex.EncodeToString(hasher.Sum(nil))
}
