package models

import (
	"mime"
	"path/filepath"
	"strings"
)

type MediaKind string

const (
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
)

// MediaAsset is created once the upload is acknowledged and never changes.
type MediaAsset struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"originalName"`
	Kind         MediaKind `json:"kind"`
	SizeBytes    int64     `json:"sizeBytes"`
	SourceURL    string    `json:"sourceUrl,omitempty"` // local preview, empty once released
	RemoteURL    string    `json:"remoteUrl,omitempty"`
	Duration     float64   `json:"duration,omitempty"`
}

// KindFromMIME classifies by content type, falling back to the file
// extension. Unknown types count as video.
func KindFromMIME(contentType, name string) MediaKind {
	ct := contentType
	if ct == "" || ct == "application/octet-stream" {
		ct = mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	}
	if strings.HasPrefix(ct, "audio/") {
		return MediaAudio
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3", ".wav", ".m4a", ".flac", ".ogg", ".opus", ".aac":
		return MediaAudio
	}
	return MediaVideo
}
