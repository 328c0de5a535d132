// Package lyrics turns raw time-coded lyric text into a normalized,
// word-level timed document. It is pure: no I/O, no clocks, no globals.
package lyrics

// WordToken is the smallest timed unit within a line: a single character
// for CJK scripts, a whitespace-delimited word otherwise.
type WordToken struct {
	Text  string  `json:"text"`
	Start float64 `json:"startTime"`
	End   float64 `json:"endTime"`
}

// ChorusEffect is the visual treatment assigned to a chorus line.
type ChorusEffect int

const (
	EffectNone ChorusEffect = iota
	EffectBars
	EffectCircles
	EffectBeams
)

func (e ChorusEffect) String() string {
	switch e {
	case EffectBars:
		return "bars"
	case EffectCircles:
		return "circles"
	case EffectBeams:
		return "beams"
	default:
		return "none"
	}
}

// Line is one time-coded unit of lyric text. Tokens are ordered by
// non-decreasing start time and stay inside [Start, End].
type Line struct {
	Tokens      []WordToken  `json:"tokens"`
	Start       float64      `json:"startTime"`
	End         float64      `json:"endTime"`
	FullText    string       `json:"fullText"`
	Translation string       `json:"translation,omitempty"`
	IsChorus    bool         `json:"isChorus,omitempty"`
	Effect      ChorusEffect `json:"chorusEffect,omitempty"`
}

// Document is a parse result. Lines are sorted ascending by start time.
// It is immutable after parse except for the chorus annotation pass.
type Document struct {
	Lines []Line `json:"lines"`
}

// Empty reports whether the document carries no lines at all.
func (d *Document) Empty() bool {
	return d == nil || len(d.Lines) == 0
}
