package audio_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/guidoenr/spectraviz/internal/audio"
	"github.com/guidoenr/spectraviz/internal/audio/audiotest"
	"github.com/guidoenr/spectraviz/internal/decode"
	"github.com/guidoenr/spectraviz/internal/decode/decodetest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newEngine(t *testing.T, rate float64, autoplay bool) (*audio.Engine, *audiotest.Output) {
	t.Helper()
	out := audiotest.NewOutput(rate, 2)
	e, err := audio.NewEngine(audio.Config{Output: out, Autoplay: autoplay})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e, out
}

func TestSnapshotBeforeLoadIsZero(t *testing.T) {
	e, _ := newEngine(t, 44100, true)

	snap := e.GetFrequencyData()
	assert.Zero(t, snap.Low)
	assert.Zero(t, snap.Mid)
	assert.Zero(t, snap.High)
	require.Len(t, snap.Bins, e.BinCount())
	assert.Equal(t, 1024, e.BinCount())
	for _, v := range snap.Bins {
		require.Zero(t, v)
	}
}

func TestTransportWithoutSourceIsNoop(t *testing.T) {
	e, out := newEngine(t, 8000, true)

	var events []string
	for _, name := range []string{audio.EventPlay, audio.EventPause} {
		name := name
		off := e.Element().On(name, func() { events = append(events, name) })
		defer off()
	}

	e.Play()
	e.Pause()
	e.Stop()
	e.SetCurrentTime(10)
	out.Pull(128)

	assert.False(t, e.Loaded())
	assert.False(t, e.Playing())
	assert.Zero(t, e.CurrentTime())
	assert.Zero(t, e.Duration())
	assert.Empty(t, events)
}

func TestLoadKeepsSingleSource(t *testing.T) {
	e, _ := newEngine(t, 8000, true)
	ctx := context.Background()

	const loads = 5
	for i := 0; i < loads; i++ {
		require.NoError(t, e.LoadAudioFile(ctx, decodetest.Silence(8000, 0.5)))
		assert.Equal(t, 1, e.ActiveSources())
	}
	assert.Equal(t, loads, e.ConnectedSources())
	assert.Equal(t, loads-1, e.DisconnectedSources())
	assert.True(t, e.Playing())
	assert.Zero(t, e.CurrentTime())
}

func TestSilentFileKeepsBinsZero(t *testing.T) {
	e, out := newEngine(t, 1000, true)
	require.NoError(t, e.LoadAudioFile(context.Background(), decodetest.Silence(1000, 3)))

	for frame := 0; frame < 10; frame++ {
		out.Pull(50)
		snap := e.GetFrequencyData()
		assert.InDelta(t, 0, snap.Low, 1e-9)
		assert.InDelta(t, 0, snap.Mid, 1e-9)
		assert.InDelta(t, 0, snap.High, 1e-9)
		require.Len(t, snap.Bins, e.BinCount())
	}
	assert.InDelta(t, 0.5, e.CurrentTime(), 1e-9)
}

func TestSineReachesAnalyser(t *testing.T) {
	e, out := newEngine(t, 8000, true)
	require.NoError(t, e.LoadAudioFile(context.Background(), decodetest.Sine(8000, 2, 100, 0.8)))

	out.Pull(4096)
	snap := e.GetFrequencyData()
	assert.Greater(t, snap.Low, 0.0)
}

func TestSetCurrentTimeClamps(t *testing.T) {
	e, _ := newEngine(t, 1000, true)
	require.NoError(t, e.LoadAudioFile(context.Background(), decodetest.Silence(1000, 120)))
	require.InDelta(t, 120, e.Duration(), 1e-9)

	e.SetCurrentTime(-5)
	assert.Zero(t, e.CurrentTime())

	e.SetCurrentTime(500)
	assert.InDelta(t, 120, e.CurrentTime(), 1e-9)

	e.SetCurrentTime(42.5)
	assert.InDelta(t, 42.5, e.CurrentTime(), 1e-9)
}

func TestDecodeFailureLeavesStateUntouched(t *testing.T) {
	e, _ := newEngine(t, 1000, true)
	require.NoError(t, e.LoadAudioFile(context.Background(), decodetest.Silence(1000, 10)))
	e.SetCurrentTime(4)

	err := e.LoadAudioFile(context.Background(), []byte("not audio at all"))
	var decErr *decode.DecodeError
	require.True(t, errors.As(err, &decErr))

	assert.True(t, e.Playing())
	assert.InDelta(t, 10, e.Duration(), 1e-9)
	assert.InDelta(t, 4, e.CurrentTime(), 1e-9)
	assert.Equal(t, 1, e.ConnectedSources())
	assert.Zero(t, e.DisconnectedSources())
}

func TestDecodeFailureOnEmptyEngine(t *testing.T) {
	e, _ := newEngine(t, 1000, true)
	require.Error(t, e.LoadAudioFile(context.Background(), nil))
	assert.False(t, e.Loaded())
	assert.Zero(t, e.ActiveSources())
}

func TestEndedPausesAndRewinds(t *testing.T) {
	e, out := newEngine(t, 1000, true)
	ended := make(chan struct{}, 1)
	off := e.Element().On(audio.EventEnded, func() { ended <- struct{}{} })
	defer off()

	require.NoError(t, e.LoadAudioFile(context.Background(), decodetest.Silence(1000, 0.1)))
	out.Pull(256)

	select {
	case <-ended:
	case <-time.After(2 * time.Second):
		t.Fatal("ended event not delivered")
	}
	assert.False(t, e.Playing())
	assert.Zero(t, e.CurrentTime())
}

func TestPlayAtEndRestarts(t *testing.T) {
	e, _ := newEngine(t, 1000, true)
	require.NoError(t, e.LoadAudioFile(context.Background(), decodetest.Silence(1000, 2)))

	e.Pause()
	e.SetCurrentTime(2)
	e.Play()
	assert.True(t, e.Playing())
	assert.Zero(t, e.CurrentTime())
}

func TestStopRewinds(t *testing.T) {
	e, out := newEngine(t, 1000, true)
	require.NoError(t, e.LoadAudioFile(context.Background(), decodetest.Silence(1000, 2)))
	out.Pull(500)
	require.InDelta(t, 0.5, e.CurrentTime(), 1e-9)

	e.Stop()
	assert.False(t, e.Playing())
	assert.Zero(t, e.CurrentTime())
}

func TestTransportEvents(t *testing.T) {
	e, _ := newEngine(t, 1000, true)
	var got []string
	for _, name := range []string{audio.EventLoadedMetadata, audio.EventPlay, audio.EventPause} {
		name := name
		off := e.Element().On(name, func() { got = append(got, name) })
		defer off()
	}

	require.NoError(t, e.LoadAudioFile(context.Background(), decodetest.Silence(1000, 1)))
	e.Pause()
	e.Pause()
	e.Play()

	assert.Equal(t, []string{"loadedmetadata", "play", "pause", "play"}, got)
	assert.False(t, e.Element().Paused())
	assert.InDelta(t, 1, e.Element().Duration(), 1e-9)
}

func TestSuspendedGraphHoldsPlayhead(t *testing.T) {
	e, out := newEngine(t, 1000, false)
	require.Equal(t, audio.Suspended, e.State())
	require.NoError(t, e.LoadAudioFile(context.Background(), decodetest.Silence(1000, 2)))

	out.Pull(500)
	assert.Zero(t, e.CurrentTime())

	e.Unlock()
	e.Unlock()
	assert.Equal(t, audio.Running, e.State())

	out.Pull(500)
	assert.InDelta(t, 0.5, e.CurrentTime(), 1e-9)
}

func TestCancelledLoadWiresNothing(t *testing.T) {
	e, _ := newEngine(t, 1000, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.LoadAudioFile(ctx, decodetest.Silence(1000, 1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, e.Loaded())
}

func TestCloseIsIdempotent(t *testing.T) {
	out := audiotest.NewOutput(1000, 1)
	e, err := audio.NewEngine(audio.Config{Output: out})
	require.NoError(t, err)

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.True(t, out.Closed())
	assert.Equal(t, audio.Closed, e.State())
	assert.ErrorIs(t, e.LoadAudioFile(context.Background(), decodetest.Silence(1000, 1)), audio.ErrEngineClosed)
}

// gatedDecoder blocks until release is closed, then returns a buffer of the
// given length.
type gatedDecoder struct {
	started chan struct{}
	release chan struct{}
}

func (g gatedDecoder) Decode(data []byte) (*decode.Buffer, error) {
	if data[0] == 'A' {
		close(g.started)
		<-g.release
		return &decode.Buffer{SampleRate: 1000, Channels: 1, Samples: make([]float32, 1000)}, nil
	}
	return &decode.Buffer{SampleRate: 1000, Channels: 1, Samples: make([]float32, 2000)}, nil
}

func TestStaleLoadIsSuperseded(t *testing.T) {
	gate := gatedDecoder{started: make(chan struct{}), release: make(chan struct{})}
	reg := decode.NewRegistry()
	reg.Register("test", gate, func([]byte) bool { return true })

	out := audiotest.NewOutput(1000, 1)
	e, err := audio.NewEngine(audio.Config{Output: out, Decoders: reg, Autoplay: true})
	require.NoError(t, err)
	defer e.Close()

	errA := make(chan error, 1)
	go func() { errA <- e.LoadAudioFile(context.Background(), []byte("A")) }()
	<-gate.started

	require.NoError(t, e.LoadAudioFile(context.Background(), []byte("B")))
	close(gate.release)

	assert.ErrorIs(t, <-errA, audio.ErrSuperseded)
	assert.InDelta(t, 2, e.Duration(), 1e-9)
	assert.Equal(t, 1, e.ActiveSources())
	assert.Equal(t, 1, e.ConnectedSources())
}

func TestConcurrentLoadsNeverDoubleWire(t *testing.T) {
	e, out := newEngine(t, 1000, true)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := e.LoadAudioFile(context.Background(), decodetest.Silence(1000, 0.5))
			if err != nil && !errors.Is(err, audio.ErrSuperseded) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	for i := 0; i < 20; i++ {
		out.Pull(10)
		assert.LessOrEqual(t, e.ActiveSources(), 1)
	}
	wg.Wait()

	assert.Equal(t, 1, e.ActiveSources())
	assert.Equal(t, e.ConnectedSources()-1, e.DisconnectedSources())
}
