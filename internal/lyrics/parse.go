package lyrics

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dmarchetti/cadenza/internal/constants"
)

// Translation attach tolerances. Line-stamped sources drift more than
// word-synced ones, so encoding A gets the looser window.
const (
	translationToleranceLine = 1.0
	translationToleranceWord = 0.5
)

type rawLine struct {
	at   float64
	text string
}

// ParseTimed parses line-stamped lyric text (encoding A): every source line
// carries only a start time, so line durations are inferred from the gap to
// the next line and word timing is synthesized by weighted allocation.
// Malformed lines are skipped; fully unparseable input yields an empty
// document, never an error.
func ParseTimed(primary, translation string) Document {
	raws := parseStampedLines(primary)
	if len(raws) == 0 {
		return Document{}
	}

	doc := Document{Lines: make([]Line, 0, len(raws))}
	for i, r := range raws {
		duration := inferDuration(raws, i)
		line := Line{
			Start:    r.at,
			End:      r.at + duration,
			FullText: r.text,
		}
		line.Tokens = allocateTokens(r.text, r.at, duration)
		doc.Lines = append(doc.Lines, line)
	}

	attachTranslations(&doc, translation, translationToleranceLine)
	return doc
}

// ParseWordSynced parses word-synced lyric text (encoding B): enhanced-LRC
// lines whose words carry inline <mm:ss.xx> stamps. The stamps are trusted
// directly; only the translation is attached.
func ParseWordSynced(primary, translation string) Document {
	var doc Document

	for _, src := range strings.Split(primary, "\n") {
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		stamp, rest := splitStamp(trimmed)
		if stamp == "" {
			continue
		}
		start, err := parseStampSeconds(stamp)
		if err != nil {
			continue
		}

		tokens, fullText := parseSyncedWords(rest, start)
		if fullText == "" {
			continue
		}

		line := Line{
			Tokens:   tokens,
			Start:    start,
			FullText: fullText,
		}
		if n := len(tokens); n > 0 {
			line.End = tokens[n-1].End
		} else {
			line.End = start
		}
		doc.Lines = append(doc.Lines, line)
	}

	sort.SliceStable(doc.Lines, func(i, j int) bool {
		return doc.Lines[i].Start < doc.Lines[j].Start
	})

	// A word's end is only known once the next line's start is: the last
	// word of each line runs until the following line begins.
	for i := range doc.Lines {
		n := len(doc.Lines[i].Tokens)
		if n == 0 {
			continue
		}
		last := &doc.Lines[i].Tokens[n-1]
		if last.End > last.Start {
			continue
		}
		if i+1 < len(doc.Lines) {
			last.End = doc.Lines[i+1].Start
		} else {
			last.End = last.Start + constants.FinalLineDuration
		}
		if last.End < last.Start {
			last.End = last.Start
		}
		doc.Lines[i].End = last.End
	}

	attachTranslations(&doc, translation, translationToleranceWord)
	return doc
}

// parseStampedLines extracts ordered (time, text) pairs from LRC-style input.
func parseStampedLines(raw string) []rawLine {
	if raw == "" {
		return nil
	}

	var out []rawLine
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		stamp, text := splitStamp(trimmed)
		if stamp == "" || text == "" {
			continue
		}
		at, err := parseStampSeconds(stamp)
		if err != nil {
			continue
		}
		out = append(out, rawLine{at: at, text: text})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].at < out[j].at })
	return out
}

// splitStamp splits a "[mm:ss.xx]text" line into its stamp and remainder.
func splitStamp(line string) (string, string) {
	if !strings.HasPrefix(line, "[") {
		return "", ""
	}
	end := strings.Index(line, "]")
	if end <= 1 {
		return "", ""
	}
	return line[1:end], strings.TrimSpace(line[end+1:])
}

// parseStampSeconds parses "mm:ss.xx" or "hh:mm:ss.xx" into seconds.
func parseStampSeconds(raw string) (float64, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, strconv.ErrSyntax
	}

	total := 0.0
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, err
		}
		total = total*60 + v
	}
	if total < 0 {
		return 0, strconv.ErrRange
	}
	return total, nil
}

// inferDuration derives the duration of line i from the gap to the next
// line, capped by a reading-speed heuristic so a line never hangs through
// an instrumental break.
func inferDuration(raws []rawLine, i int) float64 {
	if i+1 >= len(raws) {
		return constants.FinalLineDuration
	}

	gap := raws[i+1].at - raws[i].at
	if gap <= 0 {
		return 0
	}
	if gap > constants.LineGapCap {
		readable := float64(len([]rune(raws[i].text)))*constants.ReadingSecsPerChar + constants.ReadingBaseSecs
		if readable < gap {
			return readable
		}
	}
	return gap
}

// parseSyncedWords splits "<mm:ss.xx>word <mm:ss.xx>word ..." into timed
// tokens. Each word's end is the next word's start; the final word is left
// open for the caller to close against the next line.
func parseSyncedWords(rest string, lineStart float64) ([]WordToken, string) {
	var tokens []WordToken
	var textParts []string

	for {
		open := strings.Index(rest, "<")
		if open < 0 {
			break
		}
		closeIdx := strings.Index(rest[open:], ">")
		if closeIdx < 0 {
			break
		}
		closeIdx += open

		at, err := parseStampSeconds(rest[open+1 : closeIdx])
		rest = rest[closeIdx+1:]
		if err != nil {
			continue
		}

		word := rest
		if next := strings.Index(rest, "<"); next >= 0 {
			word = rest[:next]
		}
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}

		if n := len(tokens); n > 0 && tokens[n-1].End <= tokens[n-1].Start {
			tokens[n-1].End = at
		}
		tokens = append(tokens, WordToken{Text: word, Start: at, End: 0})
		textParts = append(textParts, word)
	}

	if len(tokens) == 0 {
		// No inline stamps at all: treat the remainder as a plain line.
		text := strings.TrimSpace(rest)
		if text == "" {
			return nil, ""
		}
		return []WordToken{{Text: text, Start: lineStart, End: 0}}, text
	}

	return tokens, strings.Join(textParts, " ")
}

// attachTranslations pairs independently stamped translation lines with
// primary lines whose start lies within the tolerance. Multiple candidates
// resolve to the closest timestamp; no match leaves Translation empty.
func attachTranslations(doc *Document, translation string, tolerance float64) {
	if translation == "" || len(doc.Lines) == 0 {
		return
	}

	candidates := parseStampedLines(translation)
	if len(candidates) == 0 {
		return
	}

	for i := range doc.Lines {
		best := -1
		bestDist := tolerance
		for j, c := range candidates {
			dist := c.at - doc.Lines[i].Start
			if dist < 0 {
				dist = -dist
			}
			if dist <= bestDist {
				best = j
				bestDist = dist
			}
		}
		if best >= 0 {
			doc.Lines[i].Translation = candidates[best].text
		}
	}
}
