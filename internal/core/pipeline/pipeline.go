package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"songlist-downloader/internal/shared"
)

// Resolver turns a track identifier into a media link. A nil media with a
// nil error means the service had nothing to offer; the resolver has already
// reported why.
type Resolver interface {
	Resolve(ctx context.Context, identifier string) (*shared.ResolvedMedia, error)
}

// Fetcher downloads resolved media to dest. bar may be nil.
type Fetcher interface {
	Fetch(ctx context.Context, media *shared.ResolvedMedia, dest string, bar *pb.ProgressBar) (*shared.LocalMediaFile, error)
}

// Transcoder converts a fetched file and removes it on success.
type Transcoder interface {
	TargetPath(src *shared.LocalMediaFile) string
	Transcode(ctx context.Context, src *shared.LocalMediaFile, media *shared.ResolvedMedia, target string) (*shared.TranscodedFile, error)
}

// Options is the run configuration handed to the coordinator at construction.
type Options struct {
	OutputDir    string
	Parallelism  int
	ShowProgress bool
	Debug        bool
}

// Coordinator drives every track through resolve, fetch and transcode. At
// most Parallelism tracks hold a permit at once; a permit spans resolve and
// fetch only. Transcodes run detached and unbounded.
type Coordinator struct {
	opts        Options
	resolver    Resolver
	fetcher     Fetcher
	transcoder  Transcoder
	diagnostics *shared.WarningCollector
	sem         *semaphore.Weighted
	transcodes  errgroup.Group

	// OnTransition, when set, observes every state change. It is called
	// from the track's goroutine and must be safe for concurrent use.
	OnTransition func(shared.TrackResult)
}

// New creates a coordinator. A nil diagnostics collector is replaced by a
// silent one.
func New(opts Options, resolver Resolver, fetcher Fetcher, transcoder Transcoder, diagnostics *shared.WarningCollector) *Coordinator {
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if diagnostics == nil {
		diagnostics = shared.NewWarningCollector(shared.WarningSilent)
	}
	return &Coordinator{
		opts:        opts,
		resolver:    resolver,
		fetcher:     fetcher,
		transcoder:  transcoder,
		diagnostics: diagnostics,
		sem:         semaphore.NewWeighted(int64(opts.Parallelism)),
	}
}

// Run processes tracks and returns once each of them has been fetched or has
// failed before that. Transcodes queued by the run may still be in flight;
// call Wait to join them. Per-track failures are diagnostics and never abort
// the run. The returned stats keep receiving transcode outcomes until Wait
// returns.
func (c *Coordinator) Run(ctx context.Context, tracks []shared.TrackDescriptor) (*shared.RunStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := shared.CreateDirIfNotExists(c.opts.OutputDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	stats := &shared.RunStats{RunID: uuid.NewString()}
	shared.DebugPrint(c.opts.Debug, "Run %s: %d tracks, parallelism %d", stats.RunID, len(tracks), c.opts.Parallelism)

	var pool *pb.Pool
	if c.opts.ShowProgress && len(tracks) > 0 {
		var err error
		pool, err = pb.StartPool()
		if err != nil {
			shared.ColorError.Printf("❌ Failed to start progress bar pool: %v\n", err)
			pool = nil
		}
	}

	bars := make([]*pb.ProgressBar, len(tracks))
	if pool != nil {
		for i, track := range tracks {
			bar := pb.New(0)
			bar.SetTemplateString(`{{ string . "prefix" }} {{ bar . }} {{ percent . }} | {{ speed . "%s/s" }} | ETA {{ rtime . "%s" }}`)
			bar.Set("prefix", fmt.Sprintf("%-40s", shared.TruncateString(track.Name, 40)))
			bars[i] = bar
			pool.Add(bar)
		}
	}

	var wg sync.WaitGroup
	for idx, track := range tracks {
		c.transition(shared.TrackResult{Track: track, State: shared.StatePending})

		if err := c.sem.Acquire(ctx, 1); err != nil {
			// Cancelled while waiting: nothing after this point gets a permit.
			for _, rest := range tracks[idx:] {
				c.failResolve(stats, rest, fmt.Errorf("%w: %v", shared.ErrDownloadCancelled, err))
			}
			break
		}

		wg.Add(1)
		go func(track shared.TrackDescriptor, bar *pb.ProgressBar) {
			defer wg.Done()
			local, media, ok := c.resolveAndFetch(ctx, stats, track, bar)
			if !ok {
				return
			}
			c.queueTranscode(ctx, stats, track, media, local)
		}(track, bars[idx])
	}

	wg.Wait()
	if pool != nil {
		pool.Stop()
	}
	return stats, nil
}

// Wait blocks until every transcode queued so far has finished.
func (c *Coordinator) Wait() {
	c.transcodes.Wait()
}

// resolveAndFetch runs the permit-holding part of a chain. The caller has
// acquired the permit; it is released when this returns.
func (c *Coordinator) resolveAndFetch(ctx context.Context, stats *shared.RunStats, track shared.TrackDescriptor, bar *pb.ProgressBar) (*shared.LocalMediaFile, *shared.ResolvedMedia, bool) {
	defer c.sem.Release(1)

	c.transition(shared.TrackResult{Track: track, State: shared.StateResolving})
	media, err := c.resolver.Resolve(shared.WithTrack(ctx, track), track.Identifier)
	if err != nil {
		c.failResolve(stats, track, err)
		return nil, nil, false
	}
	if media == nil {
		// Diagnostic already emitted by the resolver.
		stats.Record(shared.StateResolveFailed, shared.TrackContext(track))
		c.transition(shared.TrackResult{Track: track, State: shared.StateResolveFailed})
		return nil, nil, false
	}
	stats.Record(shared.StateResolved, shared.TrackContext(track))
	c.transition(shared.TrackResult{Track: track, State: shared.StateResolved, Media: media})

	dest := filepath.Join(c.opts.OutputDir, media.FileName())
	c.transition(shared.TrackResult{Track: track, State: shared.StateFetching, Media: media})
	local, err := c.fetcher.Fetch(ctx, media, dest, bar)
	if err != nil {
		if bar != nil {
			bar.Finish()
		}
		c.diagnostics.AddFetchFailure(shared.TrackContext(track), err.Error())
		stats.Record(shared.StateFetchFailed, shared.TrackContext(track))
		c.transition(shared.TrackResult{Track: track, State: shared.StateFetchFailed, Media: media, Err: err})
		return nil, nil, false
	}
	if bar != nil {
		bar.Finish()
	}

	stats.Record(shared.StateFetched, shared.TrackContext(track))
	c.transition(shared.TrackResult{Track: track, State: shared.StateFetched, Media: media})
	return local, media, true
}

func (c *Coordinator) queueTranscode(ctx context.Context, stats *shared.RunStats, track shared.TrackDescriptor, media *shared.ResolvedMedia, local *shared.LocalMediaFile) {
	c.transition(shared.TrackResult{Track: track, State: shared.StateTranscodeQueued, Media: media})

	c.transcodes.Go(func() error {
		out, err := c.transcoder.Transcode(ctx, local, media, c.transcoder.TargetPath(local))
		if err != nil {
			c.diagnostics.AddTranscodeFailure(shared.TrackContext(track), err.Error())
			stats.Record(shared.StateTranscodeFailed, shared.TrackContext(track))
			c.transition(shared.TrackResult{Track: track, State: shared.StateTranscodeFailed, Media: media, Err: err})
			return nil
		}
		stats.Record(shared.StateDone, shared.TrackContext(track))
		stats.AddOutput(out)
		c.transition(shared.TrackResult{Track: track, State: shared.StateDone, Media: media})
		return nil
	})
}

func (c *Coordinator) failResolve(stats *shared.RunStats, track shared.TrackDescriptor, err error) {
	c.diagnostics.AddResolveFailure(shared.TrackContext(track), err.Error())
	stats.Record(shared.StateResolveFailed, shared.TrackContext(track))
	c.transition(shared.TrackResult{Track: track, State: shared.StateResolveFailed, Err: err})
}

func (c *Coordinator) transition(result shared.TrackResult) {
	if result.State.Terminal() {
		shared.DebugPrint(c.opts.Debug, "%s -> %s (final)", shared.TrackContext(result.Track), result.State)
	} else {
		shared.DebugPrint(c.opts.Debug, "%s -> %s", shared.TrackContext(result.Track), result.State)
	}
	if c.OnTransition != nil {
		c.OnTransition(result)
	}
}
