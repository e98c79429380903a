package transcript

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"MediaScribe/internal/models"
	apperrors "MediaScribe/pkg/errors"
)

// WordRef locates a word inside the model.
type WordRef struct {
	SegmentID    string      `json:"segmentId"`
	SegmentIndex int         `json:"segmentIndex"`
	WordIndex    int         `json:"wordIndex"`
	Word         models.Word `json:"word"`
}

type wordEntry struct {
	seg, word int
	r         models.TimeRange
}

// Model owns the segments of one media's transcript. It is only ever
// replaced wholesale.
type Model struct {
	mu       sync.RWMutex
	segments []models.Segment
	index    []wordEntry
	language string
	version  uint64
}

func NewModel() *Model {
	return &Model{}
}

// ReplaceAll validates segments, synthesizes words for segments without word
// timing and swaps the result in. On error the previous content is kept.
func (m *Model) ReplaceAll(segments []models.Segment, language string) error {
	next, err := prepare(segments)
	if err != nil {
		return err
	}
	index := buildIndex(next)

	m.mu.Lock()
	m.segments = next
	m.index = index
	m.language = language
	m.version++
	m.mu.Unlock()
	return nil
}

func prepare(in []models.Segment) ([]models.Segment, error) {
	out := make([]models.Segment, len(in))
	seen := make(map[string]struct{}, len(in))
	for i, seg := range in {
		if seg.ID == "" {
			seg.ID = strconv.Itoa(i)
		}
		if _, dup := seen[seg.ID]; dup {
			return nil, apperrors.WithCodef(apperrors.CodeValidation, "duplicate segment id %q", seg.ID)
		}
		seen[seg.ID] = struct{}{}

		if err := seg.Range.Validate(); err != nil {
			return nil, apperrors.Wrapf(err, "segment %s", seg.ID)
		}
		if i > 0 && out[i-1].Range.End > seg.Range.Start {
			return nil, apperrors.WithCodef(apperrors.CodeValidation,
				"segment %s %s overlaps or precedes segment %s %s",
				seg.ID, seg.Range, out[i-1].ID, out[i-1].Range)
		}

		if len(seg.Words) == 0 {
			seg.Words = synthesize(seg.Text, seg.Range)
		} else {
			words, err := checkWords(seg)
			if err != nil {
				return nil, err
			}
			seg.Words = words
			if strings.TrimSpace(seg.Text) == "" {
				seg.Text = joinWords(words)
			}
		}
		out[i] = seg
	}
	return out, nil
}

func checkWords(seg models.Segment) ([]models.Word, error) {
	words := make([]models.Word, len(seg.Words))
	for j, w := range seg.Words {
		if err := w.Range.Validate(); err != nil {
			return nil, apperrors.Wrapf(err, "segment %s word %d", seg.ID, j)
		}
		if w.Range.Start < seg.Range.Start || w.Range.End > seg.Range.End {
			return nil, apperrors.WithCodef(apperrors.CodeValidation,
				"segment %s word %d %s outside segment %s", seg.ID, j, w.Range, seg.Range)
		}
		if j > 0 && words[j-1].Range.End > w.Range.Start {
			return nil, apperrors.WithCodef(apperrors.CodeValidation,
				"segment %s word %d %s overlaps previous word", seg.ID, j, w.Range)
		}
		words[j] = w
	}
	return words, nil
}

// synthesize splits r evenly across the whitespace separated words of text.
func synthesize(text string, r models.TimeRange) []models.Word {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	step := r.Duration() / float64(len(fields))
	words := make([]models.Word, len(fields))
	for i, f := range fields {
		start := r.Start + step*float64(i)
		end := r.Start + step*float64(i+1)
		if i == len(fields)-1 {
			end = r.End
		}
		words[i] = models.Word{Text: f, Range: models.TimeRange{Start: start, End: end}, Synthetic: true}
	}
	return words
}

func buildIndex(segs []models.Segment) []wordEntry {
	var idx []wordEntry
	for i, seg := range segs {
		for j, w := range seg.Words {
			idx = append(idx, wordEntry{seg: i, word: j, r: w.Range})
		}
	}
	return idx
}

func joinWords(words []models.Word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, w.Text)
	}
	return strings.Join(parts, " ")
}

// ActiveWordAt returns the word whose range contains t.
func (m *Model) ActiveWordAt(t float64) (WordRef, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// word ends are non-decreasing because words never overlap
	i := sort.Search(len(m.index), func(i int) bool { return m.index[i].r.End > t })
	if i == len(m.index) || !m.index[i].r.Contains(t) {
		return WordRef{}, false
	}
	e := m.index[i]
	seg := m.segments[e.seg]
	return WordRef{SegmentID: seg.ID, SegmentIndex: e.seg, WordIndex: e.word, Word: seg.Words[e.word]}, true
}

// WordTime returns the start time of word wordIndex in segment segmentID.
func (m *Model) WordTime(segmentID string, wordIndex int) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, seg := range m.segments {
		if seg.ID != segmentID {
			continue
		}
		if wordIndex < 0 || wordIndex >= len(seg.Words) {
			return 0, apperrors.WithCodef(apperrors.CodeNotFound, "segment %s has no word %d", segmentID, wordIndex)
		}
		return seg.Words[wordIndex].Range.Start, nil
	}
	return 0, apperrors.WithCodef(apperrors.CodeNotFound, "segment %s not found", segmentID)
}

// TextFor joins the words overlapping r.
func (m *Model) TextFor(r models.TimeRange) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var parts []string
	for _, e := range m.index {
		if e.r.Start >= r.End && r.End > r.Start {
			break
		}
		if e.r.Overlaps(r) || (e.r.Duration() == 0 && r.Contains(e.r.Start)) {
			parts = append(parts, m.segments[e.seg].Words[e.word].Text)
		}
	}
	return strings.Join(parts, " ")
}

// Text returns the whole transcript, one segment per line.
func (m *Model) Text() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lines := make([]string, 0, len(m.segments))
	for _, seg := range m.segments {
		lines = append(lines, seg.Text)
	}
	return strings.Join(lines, "\n")
}

// Segments returns a deep copy of the current segments.
func (m *Model) Segments() []models.Segment {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Segment, len(m.segments))
	for i, seg := range m.segments {
		seg.Words = append([]models.Word(nil), seg.Words...)
		out[i] = seg
	}
	return out
}

func (m *Model) Language() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.language
}

// Duration is the end of the last segment.
func (m *Model) Duration() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.segments) == 0 {
		return 0
	}
	return m.segments[len(m.segments)-1].Range.End
}

// Version increments on every successful ReplaceAll.
func (m *Model) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

func (m *Model) WordCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.index)
}
