// Package jsonx recovers structured objects from free-form language-model
// output. Models under token pressure emit markdown fences, missing commas,
// unescaped quotes, and structures cut off mid-array; each repair pass here
// trades a little precision for recall, ordered strictest first so garbage
// is not accepted when a clean parse would do.
package jsonx

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fenceOpenPattern  = regexp.MustCompile("^```[a-zA-Z]*\\s*")
	innerQuotePattern = regexp.MustCompile(`(\w)"(\w)`)
	missingCommaObj   = regexp.MustCompile(`\}\s*\{`)
	missingCommaArr   = regexp.MustCompile(`\]\s*\[`)
	trailingCommaObj  = regexp.MustCompile(`,\s*\}`)
	trailingCommaArr  = regexp.MustCompile(`,\s*\]`)
	greedyObjPattern  = regexp.MustCompile(`\{[\s\S]*\}`)
)

// Extract pulls a JSON object out of text, repairing common malformations.
// It never fails hard: nil means no pass could recover an object.
func Extract(text string) map[string]any {
	cleaned := StripFences(text)

	// Pass 1: direct parse, then parse after delimiter normalization
	if obj := parseObject(cleaned); obj != nil {
		return obj
	}
	normalized := normalizeDelimiters(cleaned)
	if obj := parseObject(normalized); obj != nil {
		return obj
	}

	// Pass 2: balanced-delimiter extraction, with quote repair on failure
	if slice := balancedSlice(normalized); slice != "" {
		if obj := parseObject(slice); obj != nil {
			return obj
		}
		if obj := parseObject(FixUnescapedQuotes(slice)); obj != nil {
			return obj
		}
	}

	// Pass 3: truncation repair
	if obj := repairTruncated(normalized); obj != nil {
		return obj
	}

	// Pass 4: greedy regex fallback
	if span := greedyObjPattern.FindString(normalized); span != "" {
		if obj := parseObject(span); obj != nil {
			return obj
		}
		if obj := parseObject(FixUnescapedQuotes(span)); obj != nil {
			return obj
		}
	}

	return nil
}

// SalvageStrings regex-extracts every string value stored under key,
// bypassing full-object parsing. Used as the last-resort path when
// structure is unrecoverable but content fragments are intact.
func SalvageStrings(text, key string) []string {
	pattern := regexp.MustCompile(`"` + regexp.QuoteMeta(key) + `"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	matches := pattern.FindAllStringSubmatch(text, -1)

	var values []string
	for _, m := range matches {
		var decoded string
		if err := json.Unmarshal([]byte(`"`+m[1]+`"`), &decoded); err != nil {
			decoded = m[1]
		}
		decoded = strings.TrimSpace(decoded)
		if decoded != "" {
			values = append(values, decoded)
		}
	}
	return values
}

// StripFences removes leading/trailing markdown code fences
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = fenceOpenPattern.ReplaceAllString(s, "")
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 && strings.TrimSpace(s[idx+3:]) == "" {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// FixUnescapedQuotes escapes quote characters flanked by word characters on
// both sides, the usual signature of an unescaped quote inside a string
// value. Applied twice because adjacent matches can overlap.
func FixUnescapedQuotes(s string) string {
	fixed := innerQuotePattern.ReplaceAllString(s, `$1\"$2`)
	return innerQuotePattern.ReplaceAllString(fixed, `$1\"$2`)
}

// normalizeDelimiters inserts missing commas between adjacent literals and
// drops trailing commas before closing delimiters
func normalizeDelimiters(s string) string {
	s = missingCommaObj.ReplaceAllString(s, "},{")
	s = missingCommaArr.ReplaceAllString(s, "],[")
	s = trailingCommaObj.ReplaceAllString(s, "}")
	s = trailingCommaArr.ReplaceAllString(s, "]")
	return s
}

// balancedSlice extracts the substring from the first opening brace to the
// point where nesting depth returns to zero, tracking string state so
// braces inside values do not confuse the count. Empty when the structure
// never closes.
func balancedSlice(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

// repairTruncated closes a structure that was cut off mid-stream. First it
// truncates at the last complete object boundary; if that still does not
// parse, it truncates at the last comma (dropping the partial element).
// Either way the open delimiters of the remainder are recounted and exactly
// that many closers appended.
func repairTruncated(s string) map[string]any {
	start := strings.Index(s, "{")
	if start < 0 {
		return nil
	}
	s = s[start:]

	if i := strings.LastIndex(s, "}"); i >= 0 {
		if obj := closeAndParse(s[:i+1]); obj != nil {
			return obj
		}
	}
	if i := strings.LastIndex(s, ","); i > 0 {
		if obj := closeAndParse(s[:i]); obj != nil {
			return obj
		}
	}
	return nil
}

func closeAndParse(s string) map[string]any {
	candidate := s + missingClosers(s)
	if obj := parseObject(candidate); obj != nil {
		return obj
	}
	return parseObject(FixUnescapedQuotes(candidate))
}

// missingClosers returns the exact closing characters needed to balance s:
// a terminating quote if it ends inside a string, then closers for every
// open brace/bracket in reverse order.
func missingClosers(s string) string {
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				stack = append(stack, c)
			}
		case '}':
			if !inString && len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case ']':
			if !inString && len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var b strings.Builder
	if inString {
		b.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}

func parseObject(s string) map[string]any {
	s = strings.TrimSpace(s)
	if s == "" || s[0] != '{' {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil
	}
	return obj
}
