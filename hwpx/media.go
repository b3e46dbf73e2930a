package hwpx

import (
	"bytes"
	"image"
	"path"
	"strings"

	// Registered so attachment sniffing recognizes the formats Hancom
	// documents embed.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

// mediaType determines the MIME type of a binary attachment by decoding
// its image header, falling back to the file extension.
func mediaType(data []byte, name string) string {
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		switch format {
		case "jpeg":
			return "image/jpeg"
		case "png":
			return "image/png"
		case "gif":
			return "image/gif"
		case "bmp":
			return "image/bmp"
		}
	}

	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	}
	return "application/octet-stream"
}
