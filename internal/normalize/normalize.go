// Package normalize cleans up the freeform text and image fields the Marvel
// Rivals API returns. Hero descriptions arrive with embedded HTML, difficulty
// is a free-text descriptor, and image paths have changed field names across
// API versions, so everything funnels through here before reaching a client.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	entityRepl   = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&apos;", "'",
	)
)

// CleanHTML strips HTML tags, decodes the common named entities, and
// collapses runs of whitespace. Returns "" for empty input. Idempotent.
func CleanHTML(text string) string {
	if text == "" {
		return ""
	}

	cleaned := htmlTagRe.ReplaceAllString(text, "")
	cleaned = entityRepl.Replace(cleaned)
	cleaned = whitespaceRe.ReplaceAllString(cleaned, " ")

	return strings.TrimSpace(cleaned)
}

// CapitalizeName upper-cases the first letter of each space-separated word
// and lower-cases the rest. Returns "" for empty input.
func CapitalizeName(name string) string {
	if name == "" {
		return ""
	}

	words := strings.Split(name, " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}

	return strings.Join(words, " ")
}

// difficultyTable maps descriptor substrings to star counts. Order matters:
// "very easy" must be checked before "easy", "very hard" before "hard".
var difficultyTable = []struct {
	substr string
	stars  int
}{
	{"very easy", 1},
	{"beginner", 1},
	{"very hard", 5},
	{"expert", 5},
	{"easy", 2},
	{"medium", 3},
	{"moderate", 3},
	{"normal", 3},
	{"hard", 4},
	{"challenging", 4},
}

// DifficultyStars maps a free-text difficulty descriptor to a 1-5 star
// rating. Numeric input already in [1,5] is used directly. Unrecognized
// input defaults to 3. The result is always in [1,5].
func DifficultyStars(difficulty string) int {
	diff := strings.ToLower(strings.TrimSpace(difficulty))
	if diff == "" {
		return 3
	}

	for _, entry := range difficultyTable {
		if strings.Contains(diff, entry.substr) {
			return entry.stars
		}
	}

	if n, err := strconv.Atoi(diff); err == nil && n >= 1 && n <= 5 {
		return n
	}

	return 3
}
