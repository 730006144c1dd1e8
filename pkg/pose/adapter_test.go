package pose

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-posture/internal/log"
)

func testFrame() Frame {
	return Frame{Image: image.NewRGBA(image.Rect(0, 0, 64, 48)), CapturedAt: time.Unix(1700000000, 0)}
}

func TestAdapter_DetectBeforeLoad(t *testing.T) {
	a := NewAdapter(NewMock(nil), log.Discard())

	_, err := a.Detect(context.Background(), testFrame())
	require.ErrorIs(t, err, ErrModelNotReady)
	require.False(t, a.IsModelReady())
}

func TestAdapter_LoadIsIdempotent(t *testing.T) {
	m := NewMock(nil)
	a := NewAdapter(m, log.Discard())

	require.NoError(t, a.LoadModel(context.Background()))
	require.NoError(t, a.LoadModel(context.Background()))
	require.True(t, a.IsModelReady())
	require.Equal(t, 1, m.LoadCalls())
}

func TestAdapter_ConcurrentLoadSharesOneAttempt(t *testing.T) {
	release := make(chan struct{})
	m := NewMock(nil)
	m.LoadFunc = func(ctx context.Context) error {
		<-release
		return nil
	}
	a := NewAdapter(m, log.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = a.LoadModel(context.Background())
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.True(t, a.IsModelReady())
	require.Equal(t, 1, m.LoadCalls())
}

func TestAdapter_LoadFailureIsRetryable(t *testing.T) {
	attempts := 0
	m := NewMock(nil)
	m.LoadFunc = func(ctx context.Context) error {
		attempts++
		if attempts == 1 {
			return errors.New("network unreachable")
		}
		return nil
	}
	a := NewAdapter(m, log.Discard())

	err := a.LoadModel(context.Background())
	require.Error(t, err)
	require.True(t, IsModelLoadError(err))
	require.False(t, a.IsModelReady())

	require.NoError(t, a.LoadModel(context.Background()))
	require.True(t, a.IsModelReady())
}

func TestAdapter_DetectWrapsInferenceErrors(t *testing.T) {
	m := NewMock(nil)
	m.InferFunc = func(ctx context.Context, frame Frame) (*LandmarkSet, error) {
		return nil, errors.New("malformed tensor")
	}
	a := NewAdapter(m, log.Discard())
	require.NoError(t, a.LoadModel(context.Background()))

	_, err := a.Detect(context.Background(), testFrame())
	require.True(t, IsInferenceError(err))
}

func TestAdapter_DetectRejectsEmptyFrame(t *testing.T) {
	a := NewAdapter(NewMock(nil), log.Discard())
	require.NoError(t, a.LoadModel(context.Background()))

	_, err := a.Detect(context.Background(), Frame{})
	require.True(t, IsInferenceError(err))
	require.ErrorIs(t, err, ErrEmptyFrame)
}

func TestAdapter_DetectFillsFrameMetadata(t *testing.T) {
	a := NewAdapter(NewMock(&LandmarkSet{Keypoints: []Keypoint{{Name: Nose, Confidence: 1}}}), log.Discard())
	require.NoError(t, a.LoadModel(context.Background()))

	frame := testFrame()
	set, err := a.Detect(context.Background(), frame)
	require.NoError(t, err)
	require.Equal(t, frame.CapturedAt, set.Timestamp)
	require.Equal(t, 64, set.Width)
	require.Equal(t, 48, set.Height)
}

func TestAdapter_CloseClearsReadiness(t *testing.T) {
	a := NewAdapter(NewMock(nil), log.Discard())
	require.NoError(t, a.LoadModel(context.Background()))
	require.NoError(t, a.Close())
	require.False(t, a.IsModelReady())
	require.NoError(t, a.Close())
}
