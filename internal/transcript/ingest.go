package transcript

import (
	"strings"

	"MediaScribe/internal/models"
	apperrors "MediaScribe/pkg/errors"

	"github.com/spf13/cast"
)

// RawWord is a word as the backend sends it. Several field spellings are
// accepted; the first present one wins.
type RawWord struct {
	Text      *string     `json:"text,omitempty"`
	Word      *string     `json:"word,omitempty"`
	Start     interface{} `json:"start,omitempty"`
	StartTime interface{} `json:"start_time,omitempty"`
	StartCC   interface{} `json:"startTime,omitempty"`
	End       interface{} `json:"end,omitempty"`
	EndTime   interface{} `json:"end_time,omitempty"`
	EndCC     interface{} `json:"endTime,omitempty"`
}

// RawSegment is a segment as the backend sends it.
type RawSegment struct {
	ID        interface{} `json:"id,omitempty"`
	Text      *string     `json:"text,omitempty"`
	Start     interface{} `json:"start,omitempty"`
	StartTime interface{} `json:"start_time,omitempty"`
	StartCC   interface{} `json:"startTime,omitempty"`
	End       interface{} `json:"end,omitempty"`
	EndTime   interface{} `json:"end_time,omitempty"`
	EndCC     interface{} `json:"endTime,omitempty"`
	Words     []RawWord   `json:"words,omitempty"`
}

func firstPresent(vals ...interface{}) interface{} {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstString(vals ...*string) string {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return ""
}

func toSeconds(v interface{}, what string) (float64, error) {
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, apperrors.WrapCode(err, apperrors.CodeValidation, what)
	}
	return f, nil
}

func toRange(start, end interface{}, what string) (models.TimeRange, bool, error) {
	if start == nil && end == nil {
		return models.TimeRange{}, false, nil
	}
	if start == nil || end == nil {
		return models.TimeRange{}, false, apperrors.WithCodef(apperrors.CodeValidation, "%s: start and end must both be present", what)
	}
	s, err := toSeconds(start, what+" start")
	if err != nil {
		return models.TimeRange{}, false, err
	}
	e, err := toSeconds(end, what+" end")
	if err != nil {
		return models.TimeRange{}, false, err
	}
	r, err := models.NewTimeRange(s, e)
	if err != nil {
		return models.TimeRange{}, false, apperrors.Wrap(err, what)
	}
	return r, true, nil
}

// Normalize converts backend segments into the canonical schema. Words with
// no timing at all make the whole segment fall back to synthesized words.
// Ordering and overlap are checked later by Model.ReplaceAll.
func Normalize(raw []RawSegment) ([]models.Segment, error) {
	out := make([]models.Segment, 0, len(raw))
	for i, rs := range raw {
		id := cast.ToString(rs.ID)
		what := "segment " + id
		if id == "" {
			what = "segment #" + cast.ToString(i)
		}
		r, ok, err := toRange(firstPresent(rs.Start, rs.StartTime, rs.StartCC), firstPresent(rs.End, rs.EndTime, rs.EndCC), what)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperrors.WithCodef(apperrors.CodeValidation, "%s has no timing", what)
		}

		seg := models.Segment{ID: id, Range: r, Text: strings.TrimSpace(firstString(rs.Text))}
		for j, rw := range rs.Words {
			wr, ok, err := toRange(firstPresent(rw.Start, rw.StartTime, rw.StartCC), firstPresent(rw.End, rw.EndTime, rw.EndCC),
				what+" word "+cast.ToString(j))
			if err != nil {
				return nil, err
			}
			if !ok {
				seg.Words = nil
				break
			}
			seg.Words = append(seg.Words, models.Word{
				Text:  strings.TrimSpace(firstString(rw.Text, rw.Word)),
				Range: wr,
			})
		}
		out = append(out, seg)
	}
	return out, nil
}
