package models

type TrackKind string

const (
	TrackVideo   TrackKind = "video"
	TrackAudio   TrackKind = "audio"
	TrackCaption TrackKind = "caption"
)

func (k TrackKind) Valid() bool {
	switch k {
	case TrackVideo, TrackAudio, TrackCaption:
		return true
	}
	return false
}

type Clip struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Range TimeRange `json:"range"`
}

// Track holds clips ordered by start; clips on one track never overlap.
type Track struct {
	ID    string    `json:"id"`
	Kind  TrackKind `json:"kind"`
	Color string    `json:"color"`
	Clips []Clip    `json:"clips"`
}
