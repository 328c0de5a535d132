package lyrics

import (
	"hash/fnv"
	"strings"
)

// instrumentalPlaceholder marks a silent passage in provider lyric text.
const instrumentalPlaceholder = "♪"

// DetectChorus counts exact-text frequency across the document's lines and
// returns the set of normalized texts sharing the single highest frequency.
// No repetition means no chorus: a max count of 1 yields an empty set.
func DetectChorus(primary string) map[string]struct{} {
	counts := make(map[string]int)
	for _, raw := range strings.Split(primary, "\n") {
		trimmed := strings.TrimSpace(raw)
		stamp, text := splitStamp(trimmed)
		if stamp == "" {
			// Unstamped input still counts: frequency is a property of the
			// text alone.
			text = trimmed
		}
		norm := normalizeChorusLine(text)
		if norm == "" {
			continue
		}
		counts[norm]++
	}

	maxCount := 0
	for _, n := range counts {
		if n > maxCount {
			maxCount = n
		}
	}
	if maxCount <= 1 {
		return map[string]struct{}{}
	}

	chorus := make(map[string]struct{})
	for text, n := range counts {
		if n == maxCount {
			chorus[text] = struct{}{}
		}
	}
	return chorus
}

// AnnotateChorus marks lines whose normalized text is in the chorus set and
// assigns each a visual effect. The effect is a deterministic hash of the
// text, so the same chorus always renders the same way within a session.
func AnnotateChorus(doc *Document, chorus map[string]struct{}) {
	if doc == nil || len(chorus) == 0 {
		return
	}
	for i := range doc.Lines {
		norm := normalizeChorusLine(doc.Lines[i].FullText)
		if _, ok := chorus[norm]; !ok {
			continue
		}
		doc.Lines[i].IsChorus = true
		doc.Lines[i].Effect = effectFor(norm)
	}
}

// effectFor maps a normalized chorus text onto the effect enum.
func effectFor(text string) ChorusEffect {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	return ChorusEffect(h.Sum32()%3) + EffectBars
}

// normalizeChorusLine trims a line and discards ones too short to repeat
// meaningfully, along with the silence placeholder.
func normalizeChorusLine(text string) string {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < 2 || trimmed == instrumentalPlaceholder {
		return ""
	}
	return trimmed
}
