package models

// Word is the smallest timestamped transcript unit.
type Word struct {
	Text  string    `json:"text"`
	Range TimeRange `json:"range"`
	// Synthetic marks words whose timing was derived by splitting the
	// segment range evenly.
	Synthetic bool `json:"synthetic,omitempty"`
}

type Segment struct {
	ID    string    `json:"id"`
	Range TimeRange `json:"range"`
	Text  string    `json:"text"`
	Words []Word    `json:"words"`
}
