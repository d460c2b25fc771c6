package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"pardeep1916P/storeit-api/internal/model"
)

type memoryRow struct {
	t    model.RecordType
	data []byte
}

// Memory is a Store kept in process memory. Records are held encoded so
// callers never share pointers with the table.
type Memory struct {
	mu   sync.RWMutex
	rows map[model.Key]memoryRow
}

func NewMemory() *Memory {
	return &Memory{rows: make(map[model.Key]memoryRow)}
}

func (m *Memory) Get(_ context.Context, key model.Key) (model.Record, error) {
	m.mu.RLock()
	row, ok := m.rows[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	return decode(row.t, row.data)
}

func (m *Memory) Put(_ context.Context, rec model.Record) error {
	data, err := encode(rec)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.rows[rec.Key()] = memoryRow{t: rec.Type(), data: data}
	m.mu.Unlock()

	return nil
}

func (m *Memory) Delete(_ context.Context, key model.Key) error {
	m.mu.Lock()
	delete(m.rows, key)
	m.mu.Unlock()

	return nil
}

func (m *Memory) QueryByOwner(_ context.Context, ownerID string) ([]model.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]model.Key, 0)
	for k := range m.rows {
		if k.OwnerID == ownerID {
			keys = append(keys, k)
		}
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].RecordID < keys[j].RecordID })

	out := make([]model.Record, 0, len(keys))
	for _, k := range keys {
		rec, err := decode(m.rows[k].t, m.rows[k].data)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	return out, nil
}

func (m *Memory) ScanAll(_ context.Context, match func(model.Record) bool) ([]model.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Record, 0)
	for _, row := range m.rows {
		rec, err := decode(row.t, row.data)
		if err != nil {
			return nil, err
		}

		if match == nil || match(rec) {
			out = append(out, rec)
		}
	}

	return out, nil
}

func (m *Memory) Update(_ context.Context, key model.Key, delta Delta) (model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[key]
	if !ok {
		return nil, ErrNotFound
	}

	data, rec, err := applyDelta(key, row.t, row.data, delta)
	if err != nil {
		return nil, err
	}

	m.rows[key] = memoryRow{t: row.t, data: data}
	return rec, nil
}

func (m *Memory) SwapStatus(_ context.Context, key model.Key, from, to model.SessionStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[key]
	if !ok {
		return false, ErrNotFound
	}

	if row.t != model.TypeUploadSession {
		return false, fmt.Errorf("swap status on %s: %w", row.t, ErrTypeMismatch)
	}

	var s model.UploadSession
	if err := json.Unmarshal(row.data, &s); err != nil {
		return false, fmt.Errorf("decode %s: %w", row.t, err)
	}

	if s.Status != from {
		return false, nil
	}

	s.Status = to
	data, err := encode(&s)
	if err != nil {
		return false, err
	}

	m.rows[key] = memoryRow{t: row.t, data: data}
	return true, nil
}
