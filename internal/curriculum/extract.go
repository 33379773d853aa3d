package curriculum

import (
	"encoding/json"
	"errors"
)

// ErrNoJSON is returned when text holds no balanced, parseable JSON span.
var ErrNoJSON = errors.New("no JSON value found in text")

// ExtractObject returns the first balanced {...} span in text that is valid JSON.
// Generated text often wraps the payload in prose or markdown fences.
func ExtractObject(text string) (json.RawMessage, error) {
	return extract(text, '{', '}')
}

// ExtractArray returns the first balanced [...] span in text that is valid JSON.
func ExtractArray(text string) (json.RawMessage, error) {
	return extract(text, '[', ']')
}

func extract(text string, open, close byte) (json.RawMessage, error) {
	for start := 0; start < len(text); start++ {
		if text[start] != open {
			continue
		}
		end, ok := balancedEnd(text, start, open, close)
		if !ok {
			// A stray delimiter in prose never closes; the payload may still follow it.
			continue
		}
		if c := text[start : end+1]; json.Valid([]byte(c)) {
			return json.RawMessage(c), nil
		}
	}
	return nil, ErrNoJSON
}

// balancedEnd returns the index of the delimiter closing the span opened at
// s[start]. Quotes are only tracked inside the span so apostrophes and stray
// quotes in surrounding prose are ignored. Byte iteration is safe: ASCII
// delimiters never occur inside UTF-8 sequences.
func balancedEnd(s string, start int, open, close byte) (int, bool) {
	depth := 0
	inString, escape := false, false

	for i := start; i < len(s); i++ {
		b := s[i]
		if escape {
			escape = false
			continue
		}
		if inString {
			switch b {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
