// Package media reads metadata embedded in cached audio payloads. When a
// track's full media bytes are already in the persistent cache, its lyrics
// and cover art can come straight from the file instead of the network.
package media

import (
	"bytes"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"

	"github.com/dmarchetti/cadenza/internal/constants"
)

var (
	flacMagic = []byte("fLaC")
	id3Magic  = []byte("ID3")
)

// ExtractLyrics pulls embedded lyric text out of a FLAC or MP3 payload.
// Returns false when the payload is not recognized or carries no lyrics.
func ExtractLyrics(payload []byte) (string, bool) {
	switch {
	case bytes.HasPrefix(payload, flacMagic):
		return flacLyrics(payload)
	case bytes.HasPrefix(payload, id3Magic):
		return mp3Lyrics(payload)
	default:
		return "", false
	}
}

// ExtractCover pulls embedded front-cover art out of a FLAC or MP3 payload.
func ExtractCover(payload []byte) ([]byte, string, bool) {
	switch {
	case bytes.HasPrefix(payload, flacMagic):
		return flacCover(payload)
	case bytes.HasPrefix(payload, id3Magic):
		return mp3Cover(payload)
	default:
		return nil, "", false
	}
}

func flacLyrics(payload []byte) (string, bool) {
	f, err := flac.ParseBytes(bytes.NewReader(payload))
	if err != nil {
		return "", false
	}
	for _, block := range f.Meta {
		if block.Type != flac.VorbisComment {
			continue
		}
		cmt, err := flacvorbis.ParseFromMetaDataBlock(*block)
		if err != nil {
			continue
		}
		for _, field := range []string{"LYRICS", "UNSYNCEDLYRICS"} {
			if vals, err := cmt.Get(field); err == nil && len(vals) > 0 && vals[0] != "" {
				return vals[0], true
			}
		}
	}
	return "", false
}

func flacCover(payload []byte) ([]byte, string, bool) {
	f, err := flac.ParseBytes(bytes.NewReader(payload))
	if err != nil {
		return nil, "", false
	}
	for _, block := range f.Meta {
		if block.Type != flac.Picture {
			continue
		}
		pic, err := flacpicture.ParseFromMetaDataBlock(*block)
		if err != nil {
			continue
		}
		if pic.PictureType != flacpicture.PictureTypeFrontCover {
			continue
		}
		mime := pic.MIME
		if mime == "" {
			mime = constants.MimeTypeJPEG
		}
		return pic.ImageData, mime, true
	}
	return nil, "", false
}

func mp3Lyrics(payload []byte) (string, bool) {
	tag, err := id3v2.ParseReader(bytes.NewReader(payload), id3v2.Options{Parse: true})
	if err != nil {
		return "", false
	}
	for _, framer := range tag.GetFrames(tag.CommonID("Unsynchronised lyrics/text transcription")) {
		uslt, ok := framer.(id3v2.UnsynchronisedLyricsFrame)
		if !ok || uslt.Lyrics == "" {
			continue
		}
		return uslt.Lyrics, true
	}
	return "", false
}

func mp3Cover(payload []byte) ([]byte, string, bool) {
	tag, err := id3v2.ParseReader(bytes.NewReader(payload), id3v2.Options{Parse: true})
	if err != nil {
		return nil, "", false
	}
	for _, framer := range tag.GetFrames(tag.CommonID("Attached picture")) {
		pic, ok := framer.(id3v2.PictureFrame)
		if !ok || len(pic.Picture) == 0 {
			continue
		}
		if pic.PictureType != id3v2.PTFrontCover && pic.PictureType != id3v2.PTOther {
			continue
		}
		mime := pic.MimeType
		if mime == "" {
			mime = constants.MimeTypeJPEG
		}
		return pic.Picture, mime, true
	}
	return nil, "", false
}
