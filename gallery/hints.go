package gallery

import (
	"bytes"
	"os"
	"strings"
	"unicode/utf16"

	"github.com/rwcarlsen/goexif/exif"
)

// Hints carries best-effort title/description fallbacks read from an image's
// embedded EXIF tags. Empty fields mean no usable hint was found.
type Hints struct {
	Title       string
	Description string
}

// ExtractFallbackHints opens an image and reads its descriptive EXIF tags:
// XPTitle for the title, ImageDescription (then UserComment, then XPComment)
// for the description. Every decoding or format error is swallowed; the
// pipeline must never be blocked by a hint lookup.
func ExtractFallbackHints(imagePath string) Hints {
	file, err := os.Open(imagePath)
	if err != nil {
		return Hints{}
	}
	defer file.Close()

	exifData, err := exif.Decode(file)
	if err != nil {
		return Hints{}
	}

	hints := Hints{
		Title: decodeUTF16Tag(exifData, exif.XPTitle),
	}

	if desc := decodeASCIITag(exifData, exif.ImageDescription); desc != "" {
		hints.Description = desc
	} else if comment := decodeUserComment(exifData); comment != "" {
		hints.Description = comment
	} else if xp := decodeUTF16Tag(exifData, exif.XPComment); xp != "" {
		hints.Description = xp
	}
	return hints
}

func decodeASCIITag(exifData *exif.Exif, name exif.FieldName) string {
	tag, err := exifData.Get(name)
	if err != nil || tag == nil {
		return ""
	}
	val, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(val, "\x00"))
}

// decodeUTF16Tag decodes the Windows XP* tags, which store UTF-16LE bytes in
// an undefined-type field.
func decodeUTF16Tag(exifData *exif.Exif, name exif.FieldName) string {
	tag, err := exifData.Get(name)
	if err != nil || tag == nil {
		return ""
	}
	return strings.TrimSpace(decodeUTF16LE(tag.Val))
}

// decodeUserComment handles the EXIF UserComment layout: an 8-byte character
// set identifier followed by the comment body.
func decodeUserComment(exifData *exif.Exif) string {
	tag, err := exifData.Get(exif.UserComment)
	if err != nil || tag == nil {
		return ""
	}
	raw := tag.Val
	if len(raw) <= 8 {
		return ""
	}
	charset := string(bytes.TrimRight(raw[:8], "\x00"))
	body := raw[8:]
	var decoded string
	switch strings.ToUpper(strings.TrimSpace(charset)) {
	case "UNICODE":
		decoded = decodeUTF16LE(body)
	default:
		decoded = string(bytes.TrimRight(body, "\x00"))
	}
	return strings.TrimSpace(decoded)
}

func decodeUTF16LE(raw []byte) string {
	if len(raw) < 2 {
		return ""
	}
	codes := make([]uint16, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		code := uint16(raw[i]) | uint16(raw[i+1])<<8
		if code == 0 {
			continue
		}
		codes = append(codes, code)
	}
	return string(utf16.Decode(codes))
}
