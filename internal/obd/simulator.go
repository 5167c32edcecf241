// Package obd 模拟蓝牙 OBD-II 连接过程与数据流，不访问真实设备
package obd

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State 连接状态
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateConnected  State = "connected"
)

// ErrActive 已有连接进行中
var ErrActive = errors.New("obd connection already active")

// Step 定时输出的日志行
type Step struct {
	Message string
	At      time.Duration
}

// DefaultSequence 连接握手日志
var DefaultSequence = []Step{
	{"ObdManager: Initializing BluetoothAdapter...", 500 * time.Millisecond},
	{"ObdManager: Scanning for paired devices...", 1000 * time.Millisecond},
	{"ObdManager: Device found: OBDII [00:11:22:33:44:55]", 2000 * time.Millisecond},
	{"ObdManager: Creating RFCOMM Socket...", 2500 * time.Millisecond},
	{"ObdManager: Socket connected.", 3000 * time.Millisecond},
	{"TX: ATZ", 3500 * time.Millisecond},
	{"RX: ELM327 v1.5", 4000 * time.Millisecond},
	{"TX: ATE0", 4500 * time.Millisecond},
	{"RX: OK", 4800 * time.Millisecond},
	{"TX: 0100", 5200 * time.Millisecond},
	{"RX: 41 00 BE 1F B8 10", 5600 * time.Millisecond},
	{"ObdManager: Protocol ISO 15765-4 CAN (11/500) Detected", 6000 * time.Millisecond},
	{"ObdManager: Ready.", 6500 * time.Millisecond},
}

// 默认时序
const (
	DefaultConnectDelay   = 7 * time.Second
	DefaultStreamInterval = time.Second
)

// Reading 实时数据
type Reading struct {
	RPM     int     `json:"rpm"`
	Speed   int     `json:"speed"`
	Temp    int     `json:"temp"`
	Voltage float64 `json:"voltage"`
}

// Status 当前连接状态
type Status struct {
	State State    `json:"state"`
	Logs  []string `json:"logs"`
	Data  *Reading `json:"data,omitempty"`
}

// Listener 接收模拟事件，回调在模拟协程中执行
type Listener interface {
	OnLog(line string)
	OnState(state State)
	OnData(r Reading)
}

// Timing 模拟时序
type Timing struct {
	Sequence     []Step
	ConnectDelay time.Duration
	Interval     time.Duration
}

// DefaultTiming 默认时序
func DefaultTiming() Timing {
	return Timing{Sequence: DefaultSequence, ConnectDelay: DefaultConnectDelay, Interval: DefaultStreamInterval}
}

// Simulator OBD 连接模拟器，同一时间只有一个连接
type Simulator struct {
	mu       sync.Mutex
	state    State
	logs     []string
	last     *Reading
	cancel   context.CancelFunc
	done     chan struct{}
	timing   Timing
	listener Listener
	logger   *zap.Logger
}

// NewSimulator 创建模拟器
func NewSimulator(timing Timing, listener Listener, logger *zap.Logger) *Simulator {
	return &Simulator{
		state:    StateIdle,
		timing:   timing,
		listener: listener,
		logger:   logger,
	}
}

// Status 获取状态快照
func (s *Simulator) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{State: s.state, Logs: append([]string{}, s.logs...)}
	if s.last != nil {
		r := *s.last
		st.Data = &r
	}
	return st
}

// Active 是否正在连接或已连接
func (s *Simulator) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != StateIdle
}

// Connect 开始连接，parent 取消时模拟随之结束
func (s *Simulator) Connect(parent context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrActive
	}
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	s.state = StateConnecting
	s.logs = nil
	s.last = nil
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	s.logger.Info("OBD simulation started")
	s.notifyState(StateConnecting)

	go s.run(ctx, done)
	return nil
}

// Disconnect 取消连接并等待模拟协程退出，返回此前是否有连接
func (s *Simulator) Disconnect() bool {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	<-done
	return true
}

func (s *Simulator) run(ctx context.Context, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		s.state = StateIdle
		s.cancel = nil
		s.done = nil
		s.mu.Unlock()

		s.notifyState(StateIdle)
		s.logger.Info("OBD simulation stopped")
		close(done)
	}()

	start := time.Now()
	for _, step := range s.timing.Sequence {
		if !sleepUntil(ctx, start, step.At) {
			return
		}
		s.mu.Lock()
		s.logs = append(s.logs, step.Message)
		s.mu.Unlock()
		if s.listener != nil {
			s.listener.OnLog(step.Message)
		}
	}

	if !sleepUntil(ctx, start, s.timing.ConnectDelay) {
		return
	}
	s.mu.Lock()
	s.state = StateConnected
	s.mu.Unlock()
	s.notifyState(StateConnected)

	ticker := time.NewTicker(s.timing.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r := sample()
			s.mu.Lock()
			s.last = &r
			s.mu.Unlock()
			if s.listener != nil {
				s.listener.OnData(r)
			}
		}
	}
}

func (s *Simulator) notifyState(state State) {
	if s.listener != nil {
		s.listener.OnState(state)
	}
}

// sleepUntil 等待到 start+at，期间被取消返回 false
func sleepUntil(ctx context.Context, start time.Time, at time.Duration) bool {
	wait := time.Until(start.Add(at))
	if wait <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// sample 生成怠速状态的数据
func sample() Reading {
	return Reading{
		RPM:     600 + rand.IntN(150),
		Speed:   0,
		Temp:    85 + rand.IntN(5),
		Voltage: math.Round((13.8+rand.Float64()*0.4)*10) / 10,
	}
}
