package extract

import (
	"regexp"
	"strings"
)

// The ordered cascade for single objects. Later stages tolerate messier
// output at the cost of more wasted parsing; mandatory validation after each
// parse keeps garbage out regardless of which stage produced the candidate.
var objectStrategies = []strategy{
	{"direct", findDirect},
	{"fenced", findFenced},
	{"keyed_object", findKeyedObject},
	{"line_scan", findLineScan},
	{"balanced_objects", findBalancedObjects},
}

// The equivalent cascade for arrays.
var arrayStrategies = []strategy{
	{"direct", findDirect},
	{"fenced", findFenced},
	{"balanced_arrays", findBalancedArrays},
	{"object_sequence", findObjectSequence},
}

var fenceRe = regexp.MustCompile("(?s)```[a-zA-Z]*[ \t]*\n?(.*?)```")

// findDirect proposes the whole trimmed text.
func findDirect(text string) []string {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}
	return []string{s}
}

// findFenced proposes the inner content of every fenced code block,
// optionally tagged (```json etc).
func findFenced(text string) []string {
	var out []string
	for _, m := range fenceRe.FindAllStringSubmatch(text, -1) {
		if inner := strings.TrimSpace(m[1]); inner != "" {
			out = append(out, inner)
		}
	}
	return out
}

// scanBalanced expands forward from text[start] (an open delimiter) using a
// running depth counter, returning the substring through the matching close
// delimiter. Depth counting is naive over string values: an unescaped brace
// inside a quoted string is miscounted as structural. Kept as-is; the direct
// and fenced stages already handle well-formed JSON of any shape, and the
// later validation step rejects whatever a miscount produces.
func scanBalanced(text string, start int, opener, closer byte) (string, bool) {
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// findKeyedObject looks for an opening brace whose balanced region contains
// both an "id" and a "title" key. This digs one complete nested object out
// of surrounding narrative text.
func findKeyedObject(text string) []string {
	var out []string
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		region, ok := scanBalanced(text, i, '{', '}')
		if !ok {
			break
		}
		if strings.Contains(region, `"id"`) && strings.Contains(region, `"title"`) {
			out = append(out, region)
			// Skip past this region so nested opens are not re-proposed.
			i += len(region) - 1
		}
	}
	return out
}

// findLineScan walks line by line: the first line whose trimmed content
// begins with an opening brace starts a candidate region, and brace depth is
// accumulated character-by-character across subsequent lines until it
// returns to zero. Recovers multi-line objects with embedded braces across
// lines (subject to the same naive counting as scanBalanced).
func findLineScan(text string) []string {
	lines := strings.Split(text, "\n")
	var region []string
	depth := 0
	collecting := false
	for _, line := range lines {
		if !collecting {
			if !strings.HasPrefix(strings.TrimSpace(line), "{") {
				continue
			}
			collecting = true
		}
		region = append(region, line)
		for i := 0; i < len(line); i++ {
			switch line[i] {
			case '{':
				depth++
			case '}':
				depth--
			}
		}
		if collecting && depth <= 0 {
			return []string{strings.Join(region, "\n")}
		}
	}
	return nil
}

// findBalancedObjects proposes every top-level balanced-brace region in the
// text, in order. Last resort for single objects.
func findBalancedObjects(text string) []string {
	var out []string
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		region, ok := scanBalanced(text, i, '{', '}')
		if !ok {
			break
		}
		out = append(out, region)
		i += len(region) - 1
	}
	return out
}

// findBalancedArrays proposes every top-level bracket-delimited region.
func findBalancedArrays(text string) []string {
	var out []string
	for i := 0; i < len(text); i++ {
		if text[i] != '[' {
			continue
		}
		region, ok := scanBalanced(text, i, '[', ']')
		if !ok {
			break
		}
		out = append(out, region)
		i += len(region) - 1
	}
	return out
}

var objectSeqRe = regexp.MustCompile(`(?s)\{[^{}]*"id"\s*:.*?\}(?:\s*,\s*\{[^{}]*"id"\s*:.*?\})*`)

// findObjectSequence matches a comma-separated run of objects that each
// carry an "id" key and proposes it wrapped as an array. Catches models that
// emit array elements without the enclosing brackets.
func findObjectSequence(text string) []string {
	var out []string
	for _, m := range objectSeqRe.FindAllString(text, -1) {
		out = append(out, "["+m+"]")
	}
	return out
}
