package search

import "time"

type Config struct {
	// IndexPath empty keeps the index in memory.
	IndexPath       string
	DefaultAnalyzer string
	QueryTimeout    time.Duration
	BatchSize       int
}

// SegmentDoc is one transcript segment as indexed.
type SegmentDoc struct {
	MediaID   string
	SegmentID string
	Text      string
	Start     float64
	End       float64
}

// DocID is the index key of a segment.
func (d SegmentDoc) DocID() string {
	return d.MediaID + "/" + d.SegmentID
}

type SearchRequest struct {
	Query     string
	MediaID   string // optional filter
	From      int
	Size      int
	Highlight bool
}

type Hit struct {
	MediaID   string              `json:"mediaId"`
	SegmentID string              `json:"segmentId"`
	Text      string              `json:"text"`
	Start     float64             `json:"start"`
	End       float64             `json:"end"`
	Score     float64             `json:"score"`
	Fragments map[string][]string `json:"fragments,omitempty"`
}

type SearchResult struct {
	Total uint64        `json:"total"`
	Took  time.Duration `json:"took"`
	Hits  []Hit         `json:"hits"`
}
