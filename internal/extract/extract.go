// Package extract recovers structured fields from unreliable free-text
// model output.
//
// Completion providers are not contractually guaranteed to emit valid
// JSON: answers arrive fenced in markdown, wrapped in prose, quoted
// with typographic quotes, or written as Python-style dicts. Extraction
// runs an explicit ordered list of strategies, most exact first, and
// stops at the first success. It never fails; callers get best-effort
// partial data, possibly empty, and decide what missing fields mean.
package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var (
	fenceRe = regexp.MustCompile("(?im)^```(?:json)?\\s*|\\s*```$")

	smartQuotes = strings.NewReplacer(
		"“", `"`,
		"”", `"`,
		"‘", "'",
		"’", "'",
	)

	categoryFieldRe   = regexp.MustCompile(`(?i)category\s*[:=]\s*['"]([^'"]+)['"]`)
	confidenceFieldRe = regexp.MustCompile(`(?i)confidence\s*[:=]\s*([0-9]*\.?[0-9]+)`)
	reasonFieldRe     = regexp.MustCompile(`(?i)reason\s*[:=]\s*['"]([^'"]+)['"]`)
)

// strategy is one attempt at recovering an object from cleaned text.
// Strategies run in declaration order; the first to report ok wins.
type strategy struct {
	name string
	fn   func(text string) (map[string]any, bool)
}

var strategies = []strategy{
	{name: "direct-object", fn: parseDirectObject},
	{name: "scan-objects", fn: parseScannedObjects},
	{name: "brace-span", fn: parseBraceSpan},
	{name: "field-regex", fn: parseFieldRegex},
}

// Extract returns whatever structured fields the text yields. The
// result may be partial or empty; it is never nil and extraction never
// fails.
func Extract(text string) map[string]any {
	cleaned := Clean(text)
	if cleaned == "" {
		return map[string]any{}
	}
	for _, s := range strategies {
		if obj, ok := s.fn(cleaned); ok {
			return obj
		}
	}
	return map[string]any{}
}

// Clean strips leading/trailing code fences and normalizes typographic
// quotes to plain ASCII.
func Clean(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))
	return smartQuotes.Replace(text)
}

// parseDirectObject handles text that is exactly one JSON object.
func parseDirectObject(text string) (map[string]any, bool) {
	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		return nil, false
	}
	return unmarshalObject(text)
}

// parseScannedObjects attempts a decode at every brace offset and
// collects the objects that parse. A candidate with a string category
// field is preferred over earlier candidates without one.
func parseScannedObjects(text string) (map[string]any, bool) {
	var candidates []map[string]any
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		var raw any
		if err := dec.Decode(&raw); err != nil {
			continue
		}
		if obj, ok := raw.(map[string]any); ok {
			candidates = append(candidates, obj)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	for _, cand := range candidates {
		if _, ok := cand["category"].(string); ok {
			return cand, true
		}
	}
	return candidates[0], true
}

// parseBraceSpan parses the substring between the first "{" and the
// last "}", retrying with relaxed quoting when strict JSON fails.
func parseBraceSpan(text string) (map[string]any, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, false
	}
	snippet := text[start : end+1]
	if obj, ok := unmarshalObject(snippet); ok {
		return obj, true
	}
	return unmarshalObject(loosen(snippet))
}

// parseFieldRegex pulls individual fields out of prose as a last
// resort, returning whatever subset it finds.
func parseFieldRegex(text string) (map[string]any, bool) {
	out := map[string]any{}
	if m := categoryFieldRe.FindStringSubmatch(text); m != nil {
		out["category"] = m[1]
	}
	if m := confidenceFieldRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			out["confidence"] = v
		}
	}
	if m := reasonFieldRe.FindStringSubmatch(text); m != nil {
		out["reason"] = m[1]
	}
	return out, len(out) > 0
}

func unmarshalObject(text string) (map[string]any, bool) {
	var raw any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, false
	}
	obj, ok := raw.(map[string]any)
	return obj, ok
}

// loosen rewrites Python-flavoured object literals into JSON: single
// quotes become double quotes (escapes preserved, embedded double
// quotes escaped) and bare True/False/None become their JSON forms.
// Best effort only; an apostrophe inside a single-quoted value still
// defeats it, exactly as it would any non-parser approach.
func loosen(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	const (
		stateBare = iota
		stateSingle
		stateDouble
	)
	state := stateBare

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch state {
		case stateSingle:
			switch {
			case c == '\\' && i+1 < len(s):
				next := s[i+1]
				if next == '\'' {
					b.WriteByte('\'')
				} else {
					b.WriteByte(c)
					b.WriteByte(next)
				}
				i++
			case c == '\'':
				b.WriteByte('"')
				state = stateBare
			case c == '"':
				b.WriteString(`\"`)
			default:
				b.WriteByte(c)
			}
		case stateDouble:
			switch {
			case c == '\\' && i+1 < len(s):
				b.WriteByte(c)
				b.WriteByte(s[i+1])
				i++
			case c == '"':
				b.WriteByte(c)
				state = stateBare
			default:
				b.WriteByte(c)
			}
		default:
			switch {
			case c == '\'':
				b.WriteByte('"')
				state = stateSingle
			case c == '"':
				b.WriteByte(c)
				state = stateDouble
			case isWordByte(c):
				j := i
				for j < len(s) && isWordByte(s[j]) {
					j++
				}
				b.WriteString(jsonWord(s[i:j]))
				i = j - 1
			default:
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}

func isWordByte(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z'
}

func jsonWord(w string) string {
	switch w {
	case "True":
		return "true"
	case "False":
		return "false"
	case "None":
		return "null"
	default:
		return w
	}
}
