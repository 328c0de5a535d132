package lyrics

import (
	"strings"
	"unicode"

	"github.com/dmarchetti/cadenza/internal/constants"
)

// weightedToken is a token plus its share of the line duration.
type weightedToken struct {
	text   string
	weight float64
}

// allocateTokens synthesizes word timing for a line that only carries a
// line-level start and duration. 10% of the duration is reserved as a
// trailing pad; the remaining 90% is split across tokens proportionally to
// weight. Zero-weight tokens (CJK punctuation) advance the cursor by a
// small fixed step so they render instantly without consuming a share.
func allocateTokens(text string, start, duration float64) []WordToken {
	weighted := tokenizeWeighted(text)
	if len(weighted) == 0 {
		return nil
	}

	end := start + duration
	if duration <= 0 {
		// Degenerate line bounds: collapse every token onto the start so
		// the ordering invariant still holds.
		tokens := make([]WordToken, len(weighted))
		for i, w := range weighted {
			tokens[i] = WordToken{Text: w.text, Start: start, End: start}
		}
		return tokens
	}

	totalWeight := 0.0
	for _, w := range weighted {
		totalWeight += w.weight
	}

	usable := duration * (1 - constants.TrailingPadFraction)
	cursor := start
	tokens := make([]WordToken, 0, len(weighted))
	for _, w := range weighted {
		var span float64
		if w.weight == 0 || totalWeight == 0 {
			span = constants.PunctCursorAdvance
		} else {
			span = w.weight * usable / totalWeight
		}
		tok := WordToken{Text: w.text, Start: cursor, End: cursor + span}
		if w.weight == 0 {
			// Instant render: the token occupies no time of its own.
			tok.End = tok.Start
		}
		tokens = append(tokens, tok)
		cursor += span
	}

	// Float drift can push the final cursor past the line end. Rescale all
	// token times linearly back into the line bounds when that happens.
	if last := tokens[len(tokens)-1].End; last > end {
		scale := duration / (last - start)
		for i := range tokens {
			tokens[i].Start = start + (tokens[i].Start-start)*scale
			tokens[i].End = start + (tokens[i].End-start)*scale
		}
	}

	return tokens
}

// tokenizeWeighted splits a line into weighted tokens: each CJK character
// stands alone (weight 1, punctuation 0), while latin-script runs split on
// whitespace and weigh in at 1 + 0.15 per character.
func tokenizeWeighted(text string) []weightedToken {
	var out []weightedToken
	var word strings.Builder

	flush := func() {
		if word.Len() == 0 {
			return
		}
		w := word.String()
		out = append(out, weightedToken{
			text:   w,
			weight: 1 + constants.LatinLengthWeight*float64(len([]rune(w))),
		})
		word.Reset()
	}

	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case isCJK(r):
			flush()
			out = append(out, weightedToken{text: string(r), weight: 1})
		case isCJKPunct(r):
			flush()
			out = append(out, weightedToken{text: string(r), weight: 0})
		default:
			word.WriteRune(r)
		}
	}
	flush()

	return out
}

// isCJK reports whether r belongs to a CJK script rendered one character
// at a time.
func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}

// isCJKPunct reports whether r is CJK punctuation or a fullwidth form.
func isCJKPunct(r rune) bool {
	return (r >= 0x3000 && r <= 0x303F) || (r >= 0xFF00 && r <= 0xFF0F) ||
		(r >= 0xFF1A && r <= 0xFF20) || (r >= 0xFF3B && r <= 0xFF40) ||
		(r >= 0xFF5B && r <= 0xFF65)
}
