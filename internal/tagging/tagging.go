// Package tagging embeds track metadata into downloaded audio files.
package tagging

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"

	"github.com/crobles/tunegrab/internal/domain"
)

// ErrUnsupportedFormat marks extensions tagging does not handle; callers
// treat it as a skip, not a failure.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Metadata is the tag set written into a file.
type Metadata struct {
	Artist      string
	Title       string
	Album       string
	Picture     []byte // optional front cover
	PictureMime string // defaults to image/jpeg
}

func (m Metadata) pictureMime() string {
	if m.PictureMime != "" {
		return m.PictureMime
	}
	return "image/jpeg"
}

// FromIdentity builds the minimal tag set for a fetched track.
func FromIdentity(id domain.TrackIdentity) Metadata {
	return Metadata{Artist: id.Artist, Title: id.Title}
}

// FindLocalCover returns cover-art bytes for an audio file: an image
// sharing the file's basename with a .jpg/.jpeg/.png extension, sitting
// next to it.
func FindLocalCover(audioPath string) ([]byte, string) {
	base := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	for _, ext := range []string{".jpg", ".jpeg", ".png"} {
		data, err := os.ReadFile(base + ext)
		if err != nil || len(data) == 0 {
			continue
		}
		if bytes.HasPrefix(data, []byte("\x89PNG")) {
			return data, "image/png"
		}
		return data, "image/jpeg"
	}
	return nil, ""
}

// TagFile writes metadata tags to the audio file at filePath.
func TagFile(filePath string, meta Metadata) error {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".mp3":
		return tagMP3(filePath, meta)
	case ".flac":
		return tagFLAC(filePath, meta)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filePath))
	}
}

func tagMP3(filePath string, meta Metadata) error {
	tag, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open mp3 for tagging: %w", err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	if meta.Artist != "" {
		tag.SetArtist(meta.Artist)
	}
	if meta.Title != "" {
		tag.SetTitle(meta.Title)
	}
	if meta.Album != "" {
		tag.SetAlbum(meta.Album)
	}

	if len(meta.Picture) > 0 {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    meta.pictureMime(),
			PictureType: id3v2.PTFrontCover,
			Description: "Front cover",
			Picture:     meta.Picture,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save mp3 tag: %w", err)
	}
	return nil
}

func tagFLAC(filePath string, meta Metadata) error {
	f, err := flac.ParseFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to parse flac: %w", err)
	}

	cmts, err := extractVorbisComment(f)
	if err != nil {
		return err
	}

	if meta.Artist != "" {
		if err := cmts.Add(flacvorbis.FIELD_ARTIST, meta.Artist); err != nil {
			return fmt.Errorf("failed to set artist: %w", err)
		}
	}
	if meta.Title != "" {
		if err := cmts.Add(flacvorbis.FIELD_TITLE, meta.Title); err != nil {
			return fmt.Errorf("failed to set title: %w", err)
		}
	}
	if meta.Album != "" {
		if err := cmts.Add(flacvorbis.FIELD_ALBUM, meta.Album); err != nil {
			return fmt.Errorf("failed to set album: %w", err)
		}
	}

	cmtBlock := cmts.Marshal()
	replaced := false
	for i, block := range f.Meta {
		if block.Type == flac.VorbisComment {
			f.Meta[i] = &cmtBlock
			replaced = true
			break
		}
	}
	if !replaced {
		f.Meta = append(f.Meta, &cmtBlock)
	}

	if len(meta.Picture) > 0 {
		pic, picErr := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Front cover", meta.Picture, meta.pictureMime())
		if picErr != nil {
			return fmt.Errorf("failed to build picture block: %w", picErr)
		}
		picBlock := pic.Marshal()
		f.Meta = append(f.Meta, &picBlock)
	}

	if err := f.Save(filePath); err != nil {
		return fmt.Errorf("failed to save flac: %w", err)
	}
	return nil
}

// extractVorbisComment returns the file's existing comment block, or a
// fresh one when none exists.
func extractVorbisComment(f *flac.File) (*flacvorbis.MetaDataBlockVorbisComment, error) {
	for _, block := range f.Meta {
		if block.Type == flac.VorbisComment {
			cmts, err := flacvorbis.ParseFromMetaDataBlock(*block)
			if err != nil {
				return nil, fmt.Errorf("failed to parse vorbis comments: %w", err)
			}
			return cmts, nil
		}
	}
	return flacvorbis.New(), nil
}
