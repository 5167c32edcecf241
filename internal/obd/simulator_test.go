package obd

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingListener struct {
	mu     sync.Mutex
	logs   []string
	states []State
	data   []Reading
}

func (l *recordingListener) OnLog(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, line)
}

func (l *recordingListener) OnState(state State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, state)
}

func (l *recordingListener) OnData(r Reading) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data = append(l.data, r)
}

func (l *recordingListener) dataCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.data)
}

func fastTiming() Timing {
	steps := make([]Step, len(DefaultSequence))
	for i, s := range DefaultSequence {
		steps[i] = Step{Message: s.Message, At: s.At / 500}
	}
	return Timing{Sequence: steps, ConnectDelay: DefaultConnectDelay / 500, Interval: 2 * time.Millisecond}
}

func TestDefaultSequence(t *testing.T) {
	require.Len(t, DefaultSequence, 13)
	assert.Equal(t, "ObdManager: Initializing BluetoothAdapter...", DefaultSequence[0].Message)
	assert.Equal(t, "ObdManager: Ready.", DefaultSequence[12].Message)
	for i := 1; i < len(DefaultSequence); i++ {
		assert.Greater(t, DefaultSequence[i].At, DefaultSequence[i-1].At)
	}
	assert.Greater(t, DefaultConnectDelay, DefaultSequence[12].At)
}

func TestConnectPlaysSequenceAndStreams(t *testing.T) {
	l := &recordingListener{}
	s := NewSimulator(fastTiming(), l, zap.NewNop())

	require.NoError(t, s.Connect(context.Background()))
	assert.ErrorIs(t, s.Connect(context.Background()), ErrActive)

	require.Eventually(t, func() bool { return l.dataCount() >= 3 }, 2*time.Second, 5*time.Millisecond)

	st := s.Status()
	assert.Equal(t, StateConnected, st.State)
	assert.Len(t, st.Logs, len(DefaultSequence))
	require.NotNil(t, st.Data)

	assert.True(t, s.Disconnect())
	assert.False(t, s.Active())
	assert.False(t, s.Disconnect())

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Equal(t, []State{StateConnecting, StateConnected, StateIdle}, l.states)
	for i, step := range DefaultSequence {
		assert.Equal(t, step.Message, l.logs[i])
	}
	for _, r := range l.data {
		assert.GreaterOrEqual(t, r.RPM, 600)
		assert.Less(t, r.RPM, 750)
		assert.Zero(t, r.Speed)
		assert.GreaterOrEqual(t, r.Temp, 85)
		assert.Less(t, r.Temp, 90)
		assert.GreaterOrEqual(t, r.Voltage, 13.8)
		assert.LessOrEqual(t, r.Voltage, 14.2)
	}
}

func TestDisconnectDuringHandshake(t *testing.T) {
	l := &recordingListener{}
	s := NewSimulator(DefaultTiming(), l, zap.NewNop())

	require.NoError(t, s.Connect(context.Background()))
	assert.True(t, s.Active())
	assert.True(t, s.Disconnect())

	st := s.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Nil(t, st.Data)

	l.mu.Lock()
	assert.Equal(t, []State{StateConnecting, StateIdle}, l.states)
	l.mu.Unlock()

	// 断开后可重新连接
	require.NoError(t, s.Connect(context.Background()))
	s.Disconnect()
}

func TestParentCancelStopsSimulation(t *testing.T) {
	s := NewSimulator(fastTiming(), nil, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Connect(ctx))
	cancel()

	require.Eventually(t, func() bool { return !s.Active() }, time.Second, 5*time.Millisecond)
	assert.False(t, s.Disconnect())
}

func TestSampleRanges(t *testing.T) {
	for i := 0; i < 200; i++ {
		r := sample()
		assert.True(t, r.RPM >= 600 && r.RPM < 750)
		assert.True(t, r.Temp >= 85 && r.Temp < 90)
		assert.True(t, r.Voltage >= 13.8 && r.Voltage <= 14.2)
	}
}
