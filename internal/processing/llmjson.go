package processing

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

var errNoJSON = errors.New("no JSON value in model reply")

// stripFences removes a surrounding ```json ... ``` block.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// decodeLoose decodes a model reply into generic JSON values, keeping
// numbers as json.Number. When the reply has prose around the JSON, the
// outermost object or array is cut out and tried again.
func decodeLoose(reply string) (any, error) {
	s := stripFences(reply)
	if v, err := unmarshalNumber(s); err == nil {
		return v, nil
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return nil, errNoJSON
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return nil, errNoJSON
	}
	return unmarshalNumber(s[start : end+1])
}

func unmarshalNumber(s string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}

// looseString reads a model-supplied scalar as a string. Null, empty and
// placeholder answers read as "".
func looseString(v any) string {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		switch strings.ToLower(s) {
		case "null", "none", "n/a", "unknown":
			return ""
		}
		return s
	case json.Number:
		return x.String()
	default:
		return ""
	}
}
