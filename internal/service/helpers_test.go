package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"pardeep1916P/storeit-api/internal/blob"
	"pardeep1916P/storeit-api/internal/identity"
	"pardeep1916P/storeit-api/internal/model"
	"pardeep1916P/storeit-api/internal/store"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var errInjected = errors.New("injected failure")

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// testEnv returns a fixed clock and sequential ids
func testEnv() env {
	var n atomic.Int64
	return env{
		now: func() time.Time { return testNow },
		newID: func() (string, error) {
			return fmt.Sprintf("id%03d", n.Add(1)), nil
		},
	}
}

// observeLogs routes the global logger to an observer for the test
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)

	return logs
}

// faultyBlobs fails selected calls of the wrapped store
type faultyBlobs struct {
	blob.Store
	failGet    func(key string) bool
	failDelete func(key string) bool
	gets       atomic.Int64
}

func (f *faultyBlobs) Get(ctx context.Context, key string) ([]byte, error) {
	f.gets.Add(1)
	if f.failGet != nil && f.failGet(key) {
		return nil, errInjected
	}
	return f.Store.Get(ctx, key)
}

func (f *faultyBlobs) Delete(ctx context.Context, key string) error {
	if f.failDelete != nil && f.failDelete(key) {
		return errInjected
	}
	return f.Store.Delete(ctx, key)
}

func isChunk(key string) bool {
	return strings.Contains(key, "/chunk_")
}

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) FindByEmail(ctx context.Context, email string) ([]identity.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.Account), args.Error(1)
}

func (m *MockDirectory) FindByID(ctx context.Context, id string) (*identity.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Account), args.Error(1)
}

func (m *MockDirectory) SetPassword(ctx context.Context, email, password string) error {
	return m.Called(ctx, email, password).Error(0)
}

type recordingMailer struct {
	to, subject, body string
	sent              int
}

func (r *recordingMailer) Send(to, subject, body string) error {
	r.to, r.subject, r.body = to, subject, body
	r.sent++
	return nil
}

// faultyStore fails Update on the wrapped store
type faultyStore struct {
	store.Store
	failUpdate bool
}

func (f *faultyStore) Update(ctx context.Context, key model.Key, delta store.Delta) (model.Record, error) {
	if f.failUpdate {
		return nil, errInjected
	}
	return f.Store.Update(ctx, key, delta)
}
