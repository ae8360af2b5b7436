package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore fails its probe and, optionally, operations after working
// for a while.
type failingStore struct {
	probeOK   bool
	failAfter int // ops before errors start; negative means never fail
	ops       int
}

func (s *failingStore) failing() bool {
	if s.failAfter < 0 {
		return false
	}
	s.ops++
	return s.ops > s.failAfter
}

func (s *failingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.failing() {
		return nil, false, errors.New("get failed")
	}
	return nil, false, nil
}

func (s *failingStore) Put(ctx context.Context, key string, value []byte) error {
	if s.failing() {
		return errors.New("put failed")
	}
	return nil
}

func (s *failingStore) Delete(ctx context.Context, key string) error {
	if s.failing() {
		return errors.New("delete failed")
	}
	return nil
}

func (s *failingStore) Probe(ctx context.Context) bool { return s.probeOK }

func TestFallbackUsesPrimaryWhenHealthy(t *testing.T) {
	primary := NewMemoryStore()
	secondary := NewMemoryStore()
	f := NewFallback(primary, secondary)
	ctx := context.Background()

	require.NoError(t, f.Put(ctx, "k", []byte("v")))

	assert.Equal(t, 1, primary.Len())
	assert.Equal(t, 0, secondary.Len())
	assert.True(t, f.Available())
}

func TestFallbackProbeSkipsDeadPrimary(t *testing.T) {
	secondary := NewMemoryStore()
	f := NewFallback(&failingStore{probeOK: false, failAfter: 0}, secondary)
	ctx := context.Background()

	require.NoError(t, f.Put(ctx, "k", []byte("v")))

	assert.Equal(t, 1, secondary.Len())
	assert.True(t, f.Available(), "secondary still counts as durable")
}

func TestFallbackMemoryOnlyWhenEverythingDead(t *testing.T) {
	f := NewFallback(
		&failingStore{probeOK: false, failAfter: 0},
		&failingStore{probeOK: false, failAfter: 0},
	)
	ctx := context.Background()

	require.NoError(t, f.Put(ctx, "k", []byte("v")))

	v, ok, err := f.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)
	assert.False(t, f.Available())
}

func TestFallbackDemotesMidSession(t *testing.T) {
	// Primary passes the probe, then starts erroring. The failed write
	// retries on the secondary without surfacing the error.
	primary := &failingStore{probeOK: true, failAfter: 0}
	secondary := NewMemoryStore()
	f := NewFallback(primary, secondary)
	ctx := context.Background()

	require.NoError(t, f.Put(ctx, "k", []byte("v")))

	assert.Equal(t, 1, secondary.Len())
	assert.True(t, f.Available())

	// Later operations stay on the demoted-to tier.
	require.NoError(t, f.Put(ctx, "k2", []byte("v2")))
	assert.Equal(t, 2, secondary.Len())
}

func TestFallbackReprobeRecoversPrimary(t *testing.T) {
	primary := &failingStore{probeOK: false, failAfter: -1}
	secondary := NewMemoryStore()
	f := NewFallback(primary, secondary)
	ctx := context.Background()

	require.NoError(t, f.Put(ctx, "k", []byte("v")))
	assert.Equal(t, 1, secondary.Len())

	// Primary comes back; selection is sticky until an explicit reprobe.
	primary.probeOK = true
	require.NoError(t, f.Put(ctx, "k2", []byte("v2")))
	assert.Equal(t, 2, secondary.Len())

	f.Reprobe()
	require.NoError(t, f.Put(ctx, "k3", []byte("v3")))
	assert.Equal(t, 2, secondary.Len(), "writes moved back to the primary")
}

func TestFallbackNilTiers(t *testing.T) {
	f := NewFallback(nil, nil)
	ctx := context.Background()

	require.NoError(t, f.Put(ctx, "k", []byte("v")))
	_, ok, err := f.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, f.Available())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	val := []byte("abc")
	require.NoError(t, m.Put(ctx, "k", val))
	val[0] = 'z'

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), got)
}
