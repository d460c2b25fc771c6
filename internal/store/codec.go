package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"pardeep1916P/storeit-api/internal/model"
)

func encode(rec model.Record) ([]byte, error) {
	if n, ok := rec.(model.Normalizer); ok {
		n.Normalize()
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", rec.Type(), err)
	}

	return b, nil
}

func decode(t model.RecordType, data []byte) (model.Record, error) {
	var rec model.Record

	switch t {
	case model.TypeFile:
		rec = &model.File{}
	case model.TypeUploadSession:
		rec = &model.UploadSession{}
	case model.TypeResetCode:
		rec = &model.ResetCode{}
	default:
		return nil, fmt.Errorf("unknown record type %q", t)
	}

	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", t, err)
	}

	if n, ok := rec.(model.Normalizer); ok {
		n.Normalize()
	}

	return rec, nil
}

// applyDelta merges delta into the encoded record and returns the new
// encoding. Key fields can't be changed through a delta.
func applyDelta(key model.Key, t model.RecordType, data []byte, delta Delta) ([]byte, model.Record, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", t, err)
	}

	for name, value := range delta {
		field, entry, nested := strings.Cut(name, ".")
		if field == "" || (nested && entry == "") {
			return nil, nil, fmt.Errorf("%q: %w", name, ErrInvalidDelta)
		}

		if !nested {
			fields[field] = value
			continue
		}

		m, ok := fields[field].(map[string]any)
		if !ok {
			if fields[field] != nil {
				return nil, nil, fmt.Errorf("%q is not a map: %w", field, ErrInvalidDelta)
			}
			m = map[string]any{}
		}

		if value == nil {
			delete(m, entry)
		} else {
			m[entry] = value
		}
		fields[field] = m
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return nil, nil, fmt.Errorf("encode delta: %w", err)
	}

	rec, err := decode(t, merged)
	if err != nil {
		return nil, nil, err
	}

	if rec.Key() != key {
		return nil, nil, fmt.Errorf("delta changes the record key: %w", ErrInvalidDelta)
	}

	out, err := encode(rec)
	if err != nil {
		return nil, nil, err
	}

	return out, rec, nil
}
