package constants

import (
	"mime"
	"path/filepath"
	"strings"
)

// Source formats an upload can resolve to.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// Accepted upload MIME types.
const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimePDF  = "application/pdf"
)

// AllowedExtensions maps local file extensions to the MIME type the extractor expects.
var AllowedExtensions = map[string]string{
	"pdf":  MimePDF,
	"jpg":  MimeJPEG,
	"jpeg": MimeJPEG,
	"png":  MimePNG,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// NormalizeMime drops parameters and lowercases a declared content type.
// "image/JPEG; charset=binary" -> "image/jpeg".
func NormalizeMime(declared string) string {
	declared = strings.TrimSpace(declared)
	if declared == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(declared); err == nil {
		return mt
	}
	return strings.ToLower(declared)
}

// MapMimeToFormat returns PDF, IMAGE or "" for anything the extractor does not accept.
func MapMimeToFormat(declared string) string {
	switch NormalizeMime(declared) {
	case MimePDF:
		return PDF
	case MimeJPEG, MimePNG:
		return IMAGE
	default:
		return ""
	}
}

// MimeFromPath guesses the MIME type of a local file by extension; "" when unsupported.
func MimeFromPath(path string) string {
	return AllowedExtensions[NormalizeExt(filepath.Ext(path))]
}
