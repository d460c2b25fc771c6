package model

import (
	"encoding/json"
	"strings"
)

// StringSlice is a set of strings kept in insertion order. It always
// encodes as a JSON array, never as null.
type StringSlice []string

func (s StringSlice) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}

	return json.Marshal([]string(s))
}

// NormalizeEmails lowercases, trims and deduplicates addresses while
// keeping the first occurrence order. Empty entries are dropped.
func NormalizeEmails(in []string) StringSlice {
	out := make(StringSlice, 0, len(in))
	seen := make(map[string]struct{}, len(in))

	for _, e := range in {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}

		if _, ok := seen[e]; ok {
			continue
		}

		seen[e] = struct{}{}
		out = append(out, e)
	}

	return out
}
