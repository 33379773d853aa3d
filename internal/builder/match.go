package builder

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/p-n-ai/learnly/internal/curriculum"
	"github.com/p-n-ai/learnly/internal/resource"
)

// minKeywordRunes is the shortest token that counts as a keyword.
const minKeywordRunes = 4

// keywords case-folds parts, splits them on anything that is not a letter or digit
// and keeps the distinct tokens of at least minKeywordRunes runes.
func keywords(parts ...string) map[string]struct{} {
	fold := cases.Fold()
	set := make(map[string]struct{})
	for _, p := range parts {
		words := strings.FieldsFunc(fold.String(p), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, w := range words {
			if utf8.RuneCountInString(w) >= minKeywordRunes {
				set[w] = struct{}{}
			}
		}
	}
	return set
}

// candidate is a searched resource with its keywords computed once per build.
type candidate struct {
	res   resource.Resource
	words map[string]struct{}
}

func candidates(rs []resource.Resource) []candidate {
	out := make([]candidate, len(rs))
	for i, r := range rs {
		out[i] = candidate{res: r, words: keywords(r.Title, r.Description)}
	}
	return out
}

// matchResources returns up to n resources sharing at least one keyword with
// the lesson, best first. Ties keep search order.
func matchResources(l curriculum.Lesson, pool []candidate, n int) []resource.Resource {
	lessonWords := keywords(append([]string{l.Title, l.Description}, l.Topics...)...)
	if len(lessonWords) == 0 || len(pool) == 0 {
		return nil
	}

	type scored struct {
		res   resource.Resource
		score int
	}
	var hits []scored
	for _, c := range pool {
		score := 0
		for w := range lessonWords {
			if _, ok := c.words[w]; ok {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{c.res, score})
		}
	}
	slices.SortStableFunc(hits, func(a, b scored) int { return b.score - a.score })

	out := make([]resource.Resource, 0, min(n, len(hits)))
	for _, h := range hits[:min(n, len(hits))] {
		out = append(out, h.res)
	}
	return out
}

func activityType(k resource.Kind) curriculum.ActivityType {
	switch k {
	case resource.KindVideo:
		return curriculum.ActivityWatch
	case resource.KindArticle:
		return curriculum.ActivityRead
	default:
		return curriculum.ActivityPractice
	}
}
