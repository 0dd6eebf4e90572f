package preview

import "repro/internal/audio"

const (
	// SegmentMs is the length of each preview segment.
	SegmentMs int64 = 8000
	// GapMs separates consecutive preview segments.
	GapMs int64 = 54000
	// CrossfadeMs overlaps consecutive segments.
	CrossfadeMs int64 = 2000
	// FadeMs is applied at both ends of the preview.
	FadeMs int64 = 1000
	// ExcerptMs is the length of the centered excerpt window.
	ExcerptMs int64 = 60000
)

// Segment is one window of the source audio.
type Segment struct {
	StartMs int64
	EndMs   int64
	Audio   *audio.Buffer
}

// SegmentIterator yields preview segments once; it cannot be restarted.
type SegmentIterator struct {
	buf   *audio.Buffer
	total int64
	start int64
	end   int64
	whole bool
	done  bool
}

// Segments returns an iterator over the preview windows of buf.
func Segments(buf *audio.Buffer) *SegmentIterator {
	total := buf.DurationMs()
	return &SegmentIterator{
		buf:   buf,
		total: total,
		end:   SegmentMs,
		whole: SegmentMs >= total,
	}
}

// Next returns the next segment, or false once the windows are exhausted.
func (it *SegmentIterator) Next() (Segment, bool) {
	if it.done {
		return Segment{}, false
	}
	if it.whole {
		it.done = true
		return Segment{StartMs: 0, EndMs: it.total, Audio: it.buf.Clone()}, true
	}
	if it.end >= it.total {
		it.done = true
		return Segment{}, false
	}
	seg := Segment{StartMs: it.start, EndMs: it.end, Audio: it.buf.Slice(it.start, it.end)}
	it.start = it.end + GapMs + 1
	it.end = it.start + SegmentMs
	return seg, true
}

// ExcerptWindow returns the [start, end) range used for the excerpt of a
// recording of totalMs. Recordings up to ExcerptMs use the whole audio.
func ExcerptWindow(totalMs int64) (int64, int64, bool) {
	if totalMs <= ExcerptMs {
		return 0, totalMs, false
	}
	half := ExcerptMs / 2
	return totalMs/2 - half, totalMs/2 + half, true
}
