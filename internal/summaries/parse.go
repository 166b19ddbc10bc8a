package summaries

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const maxPoints = 5

var (
	embeddedArray = regexp.MustCompile(`(?s)\[.*\]`)
	bulletPrefix  = regexp.MustCompile(`^(?:[-*•]\s+)`)
)

// Prompt builds the summarization prompt for validated text.
func Prompt(text string) string {
	return "Summarize the following document text into 3 to 5 concise bullet points. " +
		"Return ONLY a JSON array of strings or JSON with a summary_points array. " +
		"Avoid extra commentary.\n\n" +
		"Document text:\n" + text + "\n"
}

// ParsePoints extracts summary points from a model response. It accepts a
// JSON array, an object with summary_points, an array embedded in prose, or
// bullet lines. At most five points are returned.
func ParsePoints(content string) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	var parsed any
	if err := json.Unmarshal([]byte(content), &parsed); err == nil {
		switch v := parsed.(type) {
		case map[string]any:
			items, _ := v["summary_points"].([]any)
			return clean(items)
		case []any:
			return clean(v)
		}
	}

	if m := embeddedArray.FindString(content); m != "" {
		var items []any
		if err := json.Unmarshal([]byte(m), &items); err == nil {
			if points := clean(items); len(points) > 0 {
				return points
			}
		}
	}

	var points []string
	for line := range strings.SplitSeq(content, "\n") {
		line = strings.TrimSpace(bulletPrefix.ReplaceAllString(strings.TrimSpace(line), ""))
		if line != "" {
			points = append(points, line)
		}
	}
	return capPoints(points)
}

func clean(items []any) []string {
	var points []string
	for _, item := range items {
		if item == nil {
			continue
		}
		s, ok := item.(string)
		if !ok {
			s = fmt.Sprint(item)
		}
		if s = strings.TrimSpace(s); s != "" {
			points = append(points, s)
		}
	}
	return capPoints(points)
}

func capPoints(points []string) []string {
	if len(points) > maxPoints {
		return points[:maxPoints]
	}
	return points
}
