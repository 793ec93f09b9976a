// Package jsonrepair decodes model output that is supposed to be JSON but
// often is not quite: fenced in markdown, surrounded by prose, truncated, or
// carrying trailing commas.
package jsonrepair

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// MalformedOutputError carries the raw model text that could not be decoded.
type MalformedOutputError struct {
	Raw string
	Err error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed model output: %v", e.Err)
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// maxStarts bounds how many opening brackets are tried as value starts.
const maxStarts = 64

// Decode tries a strict parse, then each repaired candidate in the order it
// appears in raw, keeping the first one that decodes into v. On failure the
// returned error is a *MalformedOutputError with raw attached.
func Decode(raw string, v any) error {
	trimmed := strings.TrimSpace(raw)
	strictErr := json.Unmarshal([]byte(trimmed), v)
	if strictErr == nil {
		return nil
	}

	target := reflect.ValueOf(v)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return &MalformedOutputError{Raw: raw, Err: strictErr}
	}

	found := candidates(raw)
	if len(found) == 0 {
		return &MalformedOutputError{Raw: raw, Err: fmt.Errorf("%v; repair: %w", strictErr, errNoValue)}
	}
	var firstErr error
	for _, candidate := range found {
		fresh := reflect.New(target.Elem().Type())
		err := json.Unmarshal([]byte(candidate), fresh.Interface())
		if err == nil {
			target.Elem().Set(fresh.Elem())
			return nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return &MalformedOutputError{Raw: raw, Err: firstErr}
}

var errNoValue = errors.New("no JSON value found")

// Repair returns the first JSON value found in s, closing brackets and quotes
// and dropping trailing commas where needed. Bracketed prose ahead of the
// value is skipped.
func Repair(s string) (string, error) {
	found := candidates(s)
	if len(found) == 0 {
		if !strings.ContainsAny(s, "{[") {
			return "", errNoValue
		}
		return "", errors.New("could not repair JSON structure")
	}
	return found[0], nil
}

// candidates lists the valid JSON values that start at an opening bracket in
// s, in order. A value found at one start hides the starts nested inside it.
func candidates(s string) []string {
	s = stripFences(s)
	var out []string
	for i, tries := 0, 0; i < len(s) && tries < maxStarts; tries++ {
		j := strings.IndexAny(s[i:], "{[")
		if j == -1 {
			break
		}
		start := i + j
		rest := s[start:]

		span := balanced(rest)
		if span != "" && json.Valid([]byte(span)) {
			out = append(out, span)
			i = start + len(span)
			continue
		}
		if fixed := repairStructure(rest); json.Valid([]byte(fixed)) {
			out = append(out, fixed)
			if span == "" {
				break
			}
			i = start + len(span)
			continue
		}
		i = start + 1
	}
	return out
}

func stripFences(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	for _, fence := range []string{"```json", "```JSON", "```"} {
		s = strings.ReplaceAll(s, fence, "")
	}
	return strings.TrimSpace(s)
}

// balanced returns the prefix of s up to the bracket closing s[0], or "" when
// the value never closes.
func balanced(s string) string {
	depth := 0
	inStr, esc := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[:i+1])
			}
		}
	}
	return ""
}

func repairStructure(s string) string {
	buf := make([]byte, 0, len(s)+8)
	var stack []byte
	inStr, esc := false, false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			buf = append(buf, c)
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}

		switch {
		case c == '"':
			inStr = true
			buf = append(buf, c)
		case c == '{':
			stack = append(stack, '}')
			buf = append(buf, c)
		case c == '[':
			stack = append(stack, ']')
			buf = append(buf, c)
		case c == '}' || c == ']':
			if len(stack) == 0 {
				continue
			}
			buf = trimTrailingComma(buf)
			buf = append(buf, stack[len(stack)-1])
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return string(buf)
			}
		case isLetter(c):
			j := i
			for j < len(s) && isLetter(s[j]) {
				j++
			}
			buf = append(buf, literal(s[i:j])...)
			i = j - 1
		default:
			buf = append(buf, c)
		}
	}

	if inStr {
		if esc {
			buf = buf[:len(buf)-1]
		}
		buf = append(buf, '"')
	}
	buf = trimRightSpace(buf)
	if n := len(buf); n > 0 && buf[n-1] == ':' {
		buf = append(buf, "null"...)
	}
	for i := len(stack) - 1; i >= 0; i-- {
		buf = trimTrailingComma(buf)
		buf = append(buf, stack[i])
	}
	return string(buf)
}

func literal(word string) string {
	switch word {
	case "None", "NULL", "Null":
		return "null"
	case "True", "TRUE":
		return "true"
	case "False", "FALSE":
		return "false"
	}
	return word
}

func trimTrailingComma(buf []byte) []byte {
	buf = trimRightSpace(buf)
	if n := len(buf); n > 0 && buf[n-1] == ',' {
		buf = buf[:n-1]
	}
	return buf
}

func trimRightSpace(buf []byte) []byte {
	for len(buf) > 0 {
		switch buf[len(buf)-1] {
		case ' ', '\n', '\t', '\r':
			buf = buf[:len(buf)-1]
			continue
		}
		break
	}
	return buf
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
