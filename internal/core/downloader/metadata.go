package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"

	"songlist-downloader/internal/shared"
)

const maxCoverSize = 10 << 20

// AddMetadata replaces the Vorbis comment and picture blocks of a FLAC file
// with the resolved title and artist and, when given, the cover image.
func AddMetadata(filePath string, media *shared.ResolvedMedia, coverData []byte) error {
	f, err := flac.ParseFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to parse FLAC file: %w", err)
	}

	// Remove existing VORBIS_COMMENT and PICTURE blocks to ensure clean metadata
	var newMetaData []*flac.MetaDataBlock
	for _, block := range f.Meta {
		if block.Type != flac.VorbisComment && block.Type != flac.Picture {
			newMetaData = append(newMetaData, block)
		}
	}
	f.Meta = newMetaData

	comment := flacvorbis.New()
	addField(comment, flacvorbis.FIELD_TITLE, media.Title)
	addField(comment, flacvorbis.FIELD_ARTIST, media.Artist)
	addField(comment, "ENCODER", shared.UserAgent)

	vorbisCommentBlock := comment.Marshal()
	f.Meta = append(f.Meta, &vorbisCommentBlock)

	if err := addCoverArt(f, coverData); err != nil {
		return err
	}

	if err := f.Save(filePath); err != nil {
		return fmt.Errorf("failed to save FLAC file with metadata: %w", err)
	}
	return nil
}

// addField adds a field to vorbis comment only if value is not empty
func addField(comment *flacvorbis.MetaDataBlockVorbisComment, field, value string) {
	if value != "" && value != shared.UnknownField {
		comment.Add(field, value)
	}
}

// addCoverArt adds cover art to the FLAC file
func addCoverArt(f *flac.File, coverData []byte) error {
	if len(coverData) == 0 {
		return nil
	}

	picture, err := flacpicture.NewFromImageData(
		flacpicture.PictureTypeFrontCover,
		"Front Cover",
		coverData,
		detectImageFormat(coverData),
	)
	if err != nil {
		return fmt.Errorf("failed to create picture metadata: %w", err)
	}

	pictureBlock := picture.Marshal()
	f.Meta = append(f.Meta, &pictureBlock)
	return nil
}

// detectImageFormat detects the image format from the data
func detectImageFormat(data []byte) string {
	if len(data) >= 4 && data[0] == 0x89 && data[1] == 'P' && data[2] == 'N' && data[3] == 'G' {
		return "image/png"
	}
	if len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP" {
		return "image/webp"
	}
	if len(data) >= 4 && string(data[0:4]) == "GIF8" {
		return "image/gif"
	}
	return "image/jpeg"
}

// DownloadCover downloads cover art and returns the image data
func DownloadCover(ctx context.Context, client *http.Client, coverURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", shared.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download cover: HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxCoverSize))
}
