package transcript

import (
	"fmt"
	"io"
	"strings"
	"time"

	"MediaScribe/internal/models"
	apperrors "MediaScribe/pkg/errors"
)

type Format string

const (
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
	FormatText Format = "txt"
)

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatSRT:
		return "application/x-subrip; charset=utf-8"
	case FormatVTT:
		return "text/vtt; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// Export writes segs to w in format f.
func Export(w io.Writer, f Format, segs []models.Segment) error {
	switch f {
	case FormatSRT:
		return WriteSRT(w, segs)
	case FormatVTT:
		return WriteVTT(w, segs)
	case FormatText, "":
		return WriteText(w, segs)
	}
	return apperrors.WithCodef(apperrors.CodeValidation, "unknown export format %q", f)
}

// WriteText writes one line per segment prefixed with [HH:MM:SS].
func WriteText(w io.Writer, segs []models.Segment) error {
	var b strings.Builder
	for _, seg := range segs {
		fmt.Fprintf(&b, "[%s] %s\n", formatTextTimestamp(seconds(seg.Range.Start)), seg.Text)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteSRT writes numbered SubRip cues.
func WriteSRT(w io.Writer, segs []models.Segment) error {
	var b strings.Builder
	for i, seg := range segs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", formatSRTTimestamp(seconds(seg.Range.Start)), formatSRTTimestamp(seconds(seg.Range.End)))
		fmt.Fprintf(&b, "%s\n", seg.Text)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteVTT writes WebVTT cues after the WEBVTT header.
func WriteVTT(w io.Writer, segs []models.Segment) error {
	var b strings.Builder
	b.WriteString("WEBVTT\n")
	for _, seg := range segs {
		b.WriteByte('\n')
		fmt.Fprintf(&b, "%s --> %s\n", formatVTTTimestamp(seconds(seg.Range.Start)), formatVTTTimestamp(seconds(seg.Range.End)))
		fmt.Fprintf(&b, "%s\n", seg.Text)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func seconds(s float64) time.Duration {
	return time.Duration(s*1000+0.5) * time.Millisecond
}

func formatTextTimestamp(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSRTTimestamp(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	ms := int(d.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func formatVTTTimestamp(d time.Duration) string {
	return strings.Replace(formatSRTTimestamp(d), ",", ".", 1)
}
