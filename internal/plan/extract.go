package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// SignatureKey is the top-level key whose list value is the plan document.
const SignatureKey = "plan"

var (
	ErrExtractionFailed = errors.New("plan document not recognized")

	ErrKeyNotFound  = fmt.Errorf("%w: no %q list found", ErrExtractionFailed, SignatureKey)
	ErrUnterminated = fmt.Errorf("%w: %q list is not terminated", ErrExtractionFailed, SignatureKey)
	ErrParseFailed  = fmt.Errorf("%w: %q list is not valid JSON", ErrExtractionFailed, SignatureKey)
)

// Extract finds the plan list in accumulated model output and parses it.
// Surrounding prose, code fences and other JSON are ignored: the scan is
// anchored on the first "plan" key followed by a list, and the region ends
// at the bracket that balances the list's opening bracket.
func Extract(text string) ([]any, error) {
	start, err := locateList(text)
	if err != nil {
		return nil, err
	}

	region, err := balancedList(text, start)
	if err != nil {
		return nil, err
	}

	doc, err := parseList(region)
	if err == nil {
		return doc, nil
	}

	doc, retryErr := parseList(Repair(region))
	if retryErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	return doc, nil
}

// keyOpening matches the plan key and the bracket opening its list. The key
// may be wrapped in typographic quotes, which models emit now and then.
var keyOpening = regexp.MustCompile(`["“”„″]` + regexp.QuoteMeta(SignatureKey) + `["“”„″]\s*:\s*\[`)

// locateList returns the index of the '[' opening the value of the first
// "plan" key whose value is a list.
func locateList(text string) (int, error) {
	loc := keyOpening.FindStringIndex(text)
	if loc == nil {
		return 0, ErrKeyNotFound
	}
	return loc[1] - 1, nil
}

// balancedList scans forward from the '[' at start, counting square
// brackets outside string literals, and returns the region up to and
// including the bracket that brings the depth back to zero.
func balancedList(text string, start int) (string, error) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	return "", ErrUnterminated
}

func parseList(region string) ([]any, error) {
	var doc []any
	if err := json.Unmarshal([]byte(region), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

var (
	smartQuotes = strings.NewReplacer("“", `"`, "”", `"`, "„", `"`, "‘", "'", "’", "'")

	fieldTypos = []struct {
		re   *regexp.Regexp
		repl string
	}{
		{regexp.MustCompile(`"(?:duration_minute|durationMinutes|duration_mins|duration_min)"\s*:`), `"duration_minutes":`},
		{regexp.MustCompile(`"(?:descripton|desription|descriptoin)"\s*:`), `"description":`},
		{regexp.MustCompile(`"(?:subjet|sujbect|subjcet)"\s*:`), `"subject":`},
	}

	trailingComma = regexp.MustCompile(`,(\s*[\]}])`)
)

// Repair applies the fixed set of textual fixes tried once after a failed
// parse: typographic quotes, known field-name typos and trailing commas.
func Repair(s string) string {
	s = smartQuotes.Replace(s)
	for _, ft := range fieldTypos {
		s = ft.re.ReplaceAllString(s, ft.repl)
	}
	return trailingComma.ReplaceAllString(s, "$1")
}
