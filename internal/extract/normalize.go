package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/fidoogle/process-label/internal/common"
)

// captionKeys is the priority order for caption-like properties when the
// provider returns an object instead of plain text.
var captionKeys = []string{"caption", "text", "output", "description"}

// NormalizeOutput reduces a raw provider payload to caption text. Arrays
// contribute their first element, objects their first caption-like property
// (falling back to their JSON form), strings pass through untouched. Anything
// else is unprocessable.
func NormalizeOutput(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []any:
		if len(v) == 0 {
			return "", nil
		}
		return NormalizeOutput(v[0])
	case []string:
		if len(v) == 0 {
			return "", nil
		}
		return v[0], nil
	case map[string]any:
		for _, key := range captionKeys {
			if s, ok := v[key].(string); ok && s != "" {
				return s, nil
			}
		}
		bs, err := json.Marshal(v)
		if err != nil {
			return "", common.NewAppError("UNPROCESSABLE_OUTPUT",
				fmt.Sprintf("serialize object output: %v", err), common.ErrUnprocessableOutput)
		}
		return string(bs), nil
	default:
		return "", common.NewAppError("UNPROCESSABLE_OUTPUT",
			fmt.Sprintf("output is %T, expected string, array or object", raw),
			common.ErrUnprocessableOutput)
	}
}

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
)

// cleanText collapses noisy whitespace before rule matching. RawCaption keeps
// the verbatim text; only the match input is cleaned.
func cleanText(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
