package blob

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"time"
)

type object struct {
	data        []byte
	contentType string
}

// Memory is a Store kept in process memory
type Memory struct {
	mu      sync.RWMutex
	objects map[string]object
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		objects: make(map[string]object),
		now:     time.Now,
	}
}

func (m *Memory) Put(_ context.Context, key string, data []byte, contentType string) error {
	b := make([]byte, len(data))
	copy(b, data)

	m.mu.Lock()
	m.objects[key] = object{data: b, contentType: contentType}
	m.mu.Unlock()

	return nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	o, ok := m.objects[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	b := make([]byte, len(o.data))
	copy(b, o.data)
	return b, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()

	return nil
}

func (m *Memory) Copy(_ context.Context, srcKey, dstKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.objects[srcKey]
	if !ok {
		return ErrNotFound
	}

	m.objects[dstKey] = o
	return nil
}

func (m *Memory) SignedURL(_ context.Context, key string, opts SignOptions) (string, error) {
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()

	if !ok {
		return "", ErrNotFound
	}

	q := url.Values{}
	q.Set("expires", strconv.FormatInt(m.now().Add(opts.Expiry).Unix(), 10))
	if opts.DownloadName != "" {
		q.Set("response-content-disposition", AttachmentDisposition(opts.DownloadName))
	}
	if opts.ContentType != "" {
		q.Set("response-content-type", opts.ContentType)
	}

	return "memory:///" + url.PathEscape(key) + "?" + q.Encode(), nil
}

// Keys lists stored object keys
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}

	return keys
}
