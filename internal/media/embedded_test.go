package media

import (
	"bytes"
	"testing"

	"github.com/bogem/id3v2/v2"
)

func mp3WithFrames(t *testing.T, fill func(tag *id3v2.Tag)) []byte {
	t.Helper()
	tag := id3v2.NewEmptyTag()
	fill(tag)

	var buf bytes.Buffer
	if _, err := tag.WriteTo(&buf); err != nil {
		t.Fatalf("failed to write tag: %v", err)
	}
	// A few fake audio bytes after the tag.
	buf.Write([]byte{0xFF, 0xFB, 0x90, 0x00})
	return buf.Bytes()
}

func TestExtractLyrics_MP3(t *testing.T) {
	payload := mp3WithFrames(t, func(tag *id3v2.Tag) {
		tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
			Encoding:          id3v2.EncodingUTF8,
			Language:          "eng",
			ContentDescriptor: "",
			Lyrics:            "[00:01.00]embedded line",
		})
	})

	lyrics, ok := ExtractLyrics(payload)
	if !ok {
		t.Fatal("Expected embedded lyrics to be found")
	}
	if lyrics != "[00:01.00]embedded line" {
		t.Errorf("Expected embedded line, got %q", lyrics)
	}
}

func TestExtractLyrics_MP3WithoutLyrics(t *testing.T) {
	payload := mp3WithFrames(t, func(tag *id3v2.Tag) {
		tag.SetTitle("No lyrics here")
	})

	if _, ok := ExtractLyrics(payload); ok {
		t.Error("Expected no lyrics in a title-only tag")
	}
}

func TestExtractCover_MP3(t *testing.T) {
	art := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	payload := mp3WithFrames(t, func(tag *id3v2.Tag) {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Picture:     art,
		})
	})

	data, mime, ok := ExtractCover(payload)
	if !ok {
		t.Fatal("Expected embedded cover to be found")
	}
	if mime != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %q", mime)
	}
	if !bytes.Equal(data, art) {
		t.Errorf("Expected cover bytes %v, got %v", art, data)
	}
}

func TestExtract_UnrecognizedPayload(t *testing.T) {
	junk := []byte("definitely not audio")

	if _, ok := ExtractLyrics(junk); ok {
		t.Error("Expected no lyrics from junk payload")
	}
	if _, _, ok := ExtractCover(junk); ok {
		t.Error("Expected no cover from junk payload")
	}
}

func TestExtract_TruncatedFLAC(t *testing.T) {
	// The FLAC magic followed by garbage must fail parsing, not panic.
	junk := append([]byte("fLaC"), 0x00, 0x01, 0x02)

	if _, ok := ExtractLyrics(junk); ok {
		t.Error("Expected no lyrics from truncated FLAC")
	}
	if _, _, ok := ExtractCover(junk); ok {
		t.Error("Expected no cover from truncated FLAC")
	}
}
