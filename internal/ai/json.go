package ai

import (
	"encoding/json"
	"errors"
	"fmt"
)

var errNoJSON = errors.New("no JSON object found in response")

// decodeFirstJSON unmarshals the first balanced {...} span found in text into
// out. Model responses often wrap the JSON in prose or markdown fences; the
// wrapper is ignored, only the object matters.
func decodeFirstJSON(text string, out any) error {
	span, err := firstJSONObject(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(span), out); err != nil {
		return fmt.Errorf("parse model JSON: %w", err)
	}
	return nil
}

// firstJSONObject returns the first balanced top-level {...} span in text,
// tracking string literals and escapes so braces inside values don't
// terminate the span early.
func firstJSONObject(text string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range text {
		if start >= 0 && inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start >= 0 {
				depth--
				if depth == 0 {
					return text[start : i+1], nil
				}
			}
		case '"':
			if start >= 0 {
				inString = true
			}
		}
	}
	return "", errNoJSON
}
