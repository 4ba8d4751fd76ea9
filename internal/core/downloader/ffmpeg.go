package downloader

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"

	"songlist-downloader/internal/shared"
)

const partialSuffix = ".part"

// CheckFFmpeg checks if the ffmpeg binary is installed and available in the system's PATH.
func CheckFFmpeg(ffmpegPath string) bool {
	_, err := exec.LookPath(ffmpegPath)
	return err == nil
}

// Transcoder converts downloaded media with ffmpeg. The input container is
// detected by ffmpeg from the content; the source file carries no extension.
type Transcoder struct {
	ffmpegPath string
	format     string
	bitrate    string
	client     *http.Client // cover art downloads, flac only
	reporter   shared.Reporter
	debug      bool
}

func NewTranscoder(ffmpegPath, format, bitrate string, client *http.Client, reporter shared.Reporter, debug bool) *Transcoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Transcoder{
		ffmpegPath: ffmpegPath,
		format:     format,
		bitrate:    bitrate,
		client:     client,
		reporter:   reporter,
		debug:      debug,
	}
}

// TargetPath returns the output path for src.
func (t *Transcoder) TargetPath(src *shared.LocalMediaFile) string {
	return src.Path + "." + t.format
}

// Transcode re-encodes src into target. The encoder writes to a ".part"
// file that replaces target only after a clean exit, so an existing target
// survives a failed run. The source is deleted only after that; on any
// failure it is left in place and a *shared.TranscodeError is returned.
func (t *Transcoder) Transcode(ctx context.Context, src *shared.LocalMediaFile, media *shared.ResolvedMedia, target string) (*shared.TranscodedFile, error) {
	partial := target + partialSuffix
	args, err := t.buildArgs(src.Path, media, partial)
	if err != nil {
		return nil, &shared.TranscodeError{Source: src.Path, Err: err}
	}

	shared.DebugPrint(t.debug, "%s %s", t.ffmpegPath, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(partial)
		return nil, &shared.TranscodeError{Source: src.Path, Output: string(output), Err: err}
	}

	if !shared.FileExists(partial) {
		return nil, &shared.TranscodeError{Source: src.Path, Err: fmt.Errorf("converted file not found after conversion")}
	}

	if t.format == "flac" {
		t.tagFLAC(ctx, partial, target, media)
	}

	if err := os.Rename(partial, target); err != nil {
		os.Remove(partial)
		return nil, &shared.TranscodeError{Source: src.Path, Err: fmt.Errorf("failed to move converted file into place: %w", err)}
	}

	if err := os.Remove(src.Path); err != nil {
		// The artifact exists; a leftover source is only a warning.
		t.warn(shared.TranscodeWarning, src.Path, "Failed to remove source file", err.Error())
	}

	out := &shared.TranscodedFile{Path: target, Format: t.format}
	if media != nil {
		out.Title, out.Artist = media.Title, media.Artist
	}
	return out, nil
}

func (t *Transcoder) buildArgs(input string, media *shared.ResolvedMedia, output string) ([]string, error) {
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", input, "-vn"}

	switch t.format {
	case "mp3":
		args = append(args, "-c:a", "libmp3lame", "-b:a", t.bitrate+"k")
	case "ogg":
		// For ogg, -q:a (quality) is preferred over bitrate.
		args = append(args, "-c:a", "libvorbis", "-q:a", "8")
	case "opus":
		args = append(args, "-c:a", "libopus", "-b:a", t.bitrate+"k")
	case "m4a":
		args = append(args, "-c:a", "aac", "-b:a", t.bitrate+"k")
	case "flac":
		args = append(args, "-c:a", "flac")
	default:
		return nil, fmt.Errorf("unsupported format: %s", t.format)
	}

	if media != nil && t.format != "flac" {
		args = append(args, "-metadata", "title="+media.Title, "-metadata", "artist="+media.Artist)
	}

	// The target extension is chosen by us, so name the muxer explicitly.
	args = append(args, "-f", muxerFor(t.format), output)
	return args, nil
}

func muxerFor(format string) string {
	switch format {
	case "m4a":
		return "ipod"
	default:
		return format
	}
}

// tagFLAC tags the file at path; warnings name subject.
func (t *Transcoder) tagFLAC(ctx context.Context, path, subject string, media *shared.ResolvedMedia) {
	if media == nil {
		return
	}

	var coverData []byte
	if media.CoverURL != "" && t.client != nil {
		var err error
		coverData, err = DownloadCover(ctx, t.client, media.CoverURL)
		if err != nil {
			t.warn(shared.TaggingWarning, subject, "Could not download cover art", err.Error())
		}
	}

	if err := AddMetadata(path, media, coverData); err != nil {
		t.warn(shared.TaggingWarning, subject, "Failed to write FLAC metadata", err.Error())
	}
}

func (t *Transcoder) warn(warningType shared.WarningType, subject, message, details string) {
	if t.reporter != nil {
		t.reporter.AddWarning(warningType, subject, message, details)
	}
}
