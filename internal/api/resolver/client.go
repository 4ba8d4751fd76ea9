package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"songlist-downloader/internal/shared"
)

// Options configures the query parameters and request policy of a Client.
type Options struct {
	ResultIndex       int    // "n"
	Quality           int    // "br"
	UIN               string // sent only when set
	SKey              string // sent only when set
	RequestsPerSecond float64
	Retry             shared.RetryPolicy
}

// Client resolves track identifiers into direct media links.
type Client struct {
	endpoint    string
	opts        Options
	client      *http.Client
	rateLimiter *rate.Limiter
	reporter    shared.Reporter
}

type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
	Msg  string          `json:"msg"`
}

type songData struct {
	Src      string `json:"src"`
	SongName string `json:"songname"`
	Name     string `json:"name"`
	Cover    string `json:"cover"`
}

// NewClient creates a resolver. Application-level failures are reported to
// reporter, which may be nil.
func NewClient(endpoint string, opts Options, client *http.Client, reporter shared.Reporter) *Client {
	if opts.ResultIndex == 0 {
		opts.ResultIndex = 1
	}
	if opts.Quality == 0 {
		opts.Quality = 4
	}
	c := &Client{
		endpoint: endpoint,
		opts:     opts,
		client:   client,
		reporter: reporter,
	}
	if opts.RequestsPerSecond > 0 {
		c.rateLimiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return c
}

// Resolve looks up the media link of identifier. It returns (nil, nil) when
// the service answered but could not provide a link; the reason goes to the
// reporter. Transport failures come back as *shared.TransportError and
// undecodable payloads as *shared.MalformedResponseError.
func (c *Client) Resolve(ctx context.Context, identifier string) (*shared.ResolvedMedia, error) {
	var env envelope
	err := shared.Retry(ctx, c.opts.Retry, func() error {
		var err error
		env, err = c.request(ctx, identifier)
		return err
	})
	if err != nil {
		return nil, err
	}

	if env.Code != 0 {
		c.report(ctx, identifier, &shared.ApplicationError{Code: env.Code, Msg: env.Msg})
		return nil, nil
	}

	var data songData
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, &shared.MalformedResponseError{Err: fmt.Errorf("decoding data: %w", err)}
		}
	}
	if data.Src == "" {
		c.report(ctx, identifier, &shared.ApplicationError{Code: env.Code, Msg: "no source link in response"})
		return nil, nil
	}

	return &shared.ResolvedMedia{
		SourceURL: data.Src,
		Title:     orUnknown(data.SongName),
		Artist:    orUnknown(data.Name),
		CoverURL:  data.Cover,
	}, nil
}

func (c *Client) request(ctx context.Context, identifier string) (envelope, error) {
	var env envelope

	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return env, fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	u, err := c.buildURL(identifier)
	if err != nil {
		return env, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return env, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", shared.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return env, &shared.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return env, &shared.TransportError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return env, &shared.TransportError{StatusCode: resp.StatusCode, Status: resp.Status, Err: err}
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return env, &shared.MalformedResponseError{Err: err}
	}
	return env, nil
}

// buildURL constructs the lookup URL for identifier
func (c *Client) buildURL(identifier string) (*url.URL, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("error parsing URL: %w", err)
	}

	params := []shared.QueryParam{
		{Name: "mid", Value: identifier},
		{Name: "n", Value: strconv.Itoa(c.opts.ResultIndex)},
		{Name: "br", Value: strconv.Itoa(c.opts.Quality)},
	}
	if c.opts.UIN != "" {
		params = append(params, shared.QueryParam{Name: "uin", Value: c.opts.UIN})
	}
	if c.opts.SKey != "" {
		params = append(params, shared.QueryParam{Name: "skey", Value: c.opts.SKey})
	}

	q := u.Query()
	for _, param := range params {
		q.Set(param.Name, param.Value)
	}
	u.RawQuery = q.Encode()
	return u, nil
}

func (c *Client) report(ctx context.Context, identifier string, appErr *shared.ApplicationError) {
	if c.reporter == nil {
		return
	}
	c.reporter.AddWarning(shared.ResolveWarning, shared.DiagnosticContext(ctx, identifier), "Could not resolve download link", appErr.Error())
}

func orUnknown(s string) string {
	if s == "" {
		return shared.UnknownField
	}
	return s
}

// NewHTTPClient returns the client shared by the resolver and the fetcher.
// A zero timeout leaves requests unbounded.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
