package songlist

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"songlist-downloader/internal/shared"
)

const playlistBody = `{"code":0,"cdlist":[{"dissname":"mix","songlist":[{"songname":"A","songmid":"m1","albumname":"x"},{"songname":"B","songmid":"m2"}]}]}`

func serve(t *testing.T, body string, check func(r *http.Request)) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/fcg", server.Client())
}

func TestFetchTracksPlainJSON(t *testing.T) {
	client := serve(t, playlistBody, func(r *http.Request) {
		q := r.URL.Query()
		if q.Get("disstid") != "123456" || q.Get("type") != "1" || q.Get("nosign") != "1" {
			t.Errorf("unexpected query: %v", q)
		}
		if r.Header.Get("Referer") != referer {
			t.Errorf("missing Referer header")
		}
	})

	tracks, err := client.FetchTracks(context.Background(), "123456")
	if err != nil {
		t.Fatalf("FetchTracks failed: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("Expected 2 tracks, got %d", len(tracks))
	}
	if tracks[0] != (shared.TrackDescriptor{Name: "A", Identifier: "m1"}) {
		t.Errorf("unexpected first track: %+v", tracks[0])
	}
}

func TestFetchTracksCallbackEnvelope(t *testing.T) {
	client := serve(t, "jsonCallback("+playlistBody+")", nil)

	tracks, err := client.FetchTracks(context.Background(), "1")
	if err != nil {
		t.Fatalf("FetchTracks failed: %v", err)
	}
	if len(tracks) != 2 || tracks[1].Identifier != "m2" {
		t.Errorf("unexpected tracks: %+v", tracks)
	}
}

func TestFetchRawKeepsPayload(t *testing.T) {
	client := serve(t, "cb("+playlistBody+")", nil)

	raw, err := client.FetchRaw(context.Background(), "1")
	if err != nil {
		t.Fatalf("FetchRaw failed: %v", err)
	}
	if string(raw) != playlistBody {
		t.Errorf("Expected unwrapped payload, got %s", raw)
	}
}

func TestFetchTracksErrors(t *testing.T) {
	client := serve(t, "not json at all", nil)
	_, err := client.FetchTracks(context.Background(), "1")
	var malformed *shared.MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Errorf("Expected MalformedResponseError, got %v", err)
	}

	client = serve(t, `{"cdlist":[]}`, nil)
	if _, err := client.FetchTracks(context.Background(), "1"); !errors.Is(err, shared.ErrEmptySongList) {
		t.Errorf("Expected ErrEmptySongList, got %v", err)
	}
}
