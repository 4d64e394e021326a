package detect

import (
	"context"
	"errors"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecognizer struct {
	closed bool
}

func (s *stubRecognizer) Words(gocv.Mat) ([]Word, error) { return nil, nil }
func (s *stubRecognizer) Close() error                   { s.closed = true; return nil }

func stubFactory() (Recognizer, error) {
	return &stubRecognizer{}, nil
}

func TestNewPoolRejectsBadSize(t *testing.T) {
	_, err := NewPool(0, stubFactory)
	assert.Error(t, err)
}

func TestNewPoolClosesBuiltOnFactoryFailure(t *testing.T) {
	var built []*stubRecognizer
	calls := 0
	_, err := NewPool(3, func() (Recognizer, error) {
		calls++
		if calls == 3 {
			return nil, errors.New("no more models")
		}
		r := &stubRecognizer{}
		built = append(built, r)
		return r, nil
	})

	require.Error(t, err)
	require.Len(t, built, 2)
	for _, r := range built {
		assert.True(t, r.closed)
	}
}

func TestPoolWithReleasesOnError(t *testing.T) {
	p, err := NewPool(1, stubFactory)
	require.NoError(t, err)
	defer p.Close()

	boom := errors.New("recognition fault")
	err = p.With(context.Background(), func(Recognizer) error { return boom })
	assert.ErrorIs(t, err, boom)

	// The single instance must be back in the pool.
	err = p.With(context.Background(), func(Recognizer) error { return nil })
	assert.NoError(t, err)
}

func TestPoolAcquireBlocksUntilRelease(t *testing.T) {
	p, err := NewPool(1, stubFactory)
	require.NoError(t, err)
	defer p.Close()

	r, err := p.Acquire(context.Background())
	require.NoError(t, err)

	got := make(chan Recognizer, 1)
	go func() {
		r2, err := p.Acquire(context.Background())
		require.NoError(t, err)
		got <- r2
	}()

	select {
	case <-got:
		t.Fatal("acquire returned while the only recognizer was checked out")
	case <-time.After(20 * time.Millisecond):
	}

	p.Release(r)
	select {
	case r2 := <-got:
		p.Release(r2)
	case <-time.After(time.Second):
		t.Fatal("acquire did not observe the release")
	}
}

func TestPoolAcquireHonorsContext(t *testing.T) {
	p, err := NewPool(1, stubFactory)
	require.NoError(t, err)
	defer p.Close()

	r, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer p.Release(r)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPoolCloseClosesIdleRecognizers(t *testing.T) {
	var built []*stubRecognizer
	p, err := NewPool(2, func() (Recognizer, error) {
		r := &stubRecognizer{}
		built = append(built, r)
		return r, nil
	})
	require.NoError(t, err)

	require.NoError(t, p.Close())
	for _, r := range built {
		assert.True(t, r.closed)
	}
}
