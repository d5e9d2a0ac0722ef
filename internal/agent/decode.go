package agent

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON means no JSON value could be found in a model response
var ErrNoJSON = errors.New("no JSON found in response")

var (
	fencePattern  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	objectPattern = regexp.MustCompile(`(?s)\{.*\}`)
	arrayPattern  = regexp.MustCompile(`(?s)\[.*\]`)
	bulletPattern = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
)

// Decode unmarshals a model response into v. Models wrap JSON in prose or
// code fences, so after a strict attempt it tries the fenced block and then
// the outermost object or array in the text.
func Decode(raw string, v interface{}) error {
	raw = strings.TrimSpace(raw)
	if json.Unmarshal([]byte(raw), v) == nil {
		return nil
	}

	var candidates []string
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if m := objectPattern.FindString(raw); m != "" {
		candidates = append(candidates, m)
	}
	if m := arrayPattern.FindString(raw); m != "" {
		candidates = append(candidates, m)
	}

	for _, c := range candidates {
		if json.Unmarshal([]byte(c), v) == nil {
			return nil
		}
	}
	return ErrNoJSON
}

// Paragraphs splits free text into non-empty paragraphs, one per blank-line
// separated block or list item
func Paragraphs(raw string) []string {
	var out []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.Join(cur, " "))
			cur = nil
		}
	}

	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "" || strings.HasPrefix(trimmed, "```"):
			flush()
		case bulletPattern.MatchString(trimmed):
			flush()
			cur = append(cur, strings.TrimSpace(bulletPattern.ReplaceAllString(trimmed, "")))
		default:
			cur = append(cur, trimmed)
		}
	}
	flush()
	return out
}
