package model

import (
	"slices"
	"strings"
)

type Category string

const (
	CategoryImage    Category = "image"
	CategoryDocument Category = "document"
	CategoryVideo    Category = "video"
	CategoryAudio    Category = "audio"
	CategoryOther    Category = "other"
)

// Categories lists every category in the order stats are reported
var Categories = []Category{CategoryImage, CategoryDocument, CategoryVideo, CategoryAudio, CategoryOther}

var (
	imageExts    = []string{"jpg", "jpeg", "png", "gif", "bmp", "webp", "svg"}
	documentExts = []string{"pdf", "doc", "docx", "txt", "rtf", "odt", "pages", "xls", "xlsx", "ppt", "pptx", "csv"}
	videoExts    = []string{"mp4", "avi", "mov", "wmv", "flv", "webm", "mkv"}
	audioExts    = []string{"mp3", "wav", "flac", "aac", "ogg", "wma", "m4a"}
)

// CategoryOf classifies a file by mime type first and extension second
func CategoryOf(mimeType, name string) Category {
	mimeType = strings.ToLower(mimeType)
	ext := strings.TrimPrefix(ExtensionOf(name), ".")

	switch {
	case strings.HasPrefix(mimeType, "image/") || slices.Contains(imageExts, ext):
		return CategoryImage
	case strings.HasPrefix(mimeType, "video/") || slices.Contains(videoExts, ext):
		return CategoryVideo
	case strings.HasPrefix(mimeType, "audio/") || slices.Contains(audioExts, ext):
		return CategoryAudio
	case strings.HasPrefix(mimeType, "text/"),
		strings.Contains(mimeType, "pdf"),
		strings.Contains(mimeType, "document"),
		slices.Contains(documentExts, ext):
		return CategoryDocument
	}

	return CategoryOther
}

// ParseCategory returns false for names that are not a known category
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	return c, slices.Contains(Categories, c)
}

var mimeByExt = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"txt":  "text/plain",
	"rtf":  "application/rtf",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"csv":  "text/csv",
	"json": "application/json",
	"zip":  "application/zip",
	"mp4":  "video/mp4",
	"avi":  "video/x-msvideo",
	"mov":  "video/quicktime",
	"mkv":  "video/x-matroska",
	"webm": "video/webm",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"flac": "audio/flac",
	"aac":  "audio/aac",
	"ogg":  "audio/ogg",
	"m4a":  "audio/mp4",
}

// MimeTypeFor picks the content type served for a file name. fallback is
// returned for unknown extensions, or application/octet-stream if empty.
func MimeTypeFor(name, fallback string) string {
	if m, ok := mimeByExt[strings.TrimPrefix(ExtensionOf(name), ".")]; ok {
		return m
	}

	if fallback != "" {
		return fallback
	}

	return "application/octet-stream"
}
