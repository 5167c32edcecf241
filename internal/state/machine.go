package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"github.com/langchou/smartmechanic/internal/models"
)

// Mode 界面模式
type Mode string

// 模式常量
const (
	ModeSplash      Mode = "SPLASH"
	ModeHome        Mode = "HOME"
	ModeDecoder     Mode = "DECODER"
	ModeSensors     Mode = "SENSORS"
	ModeMaintenance Mode = "MAINTENANCE"
	ModeChat        Mode = "CHAT"
	ModeAuth        Mode = "AUTH"
	ModeOBD         Mode = "OBD"
)

// AppModes 进入应用后可导航的模式
var AppModes = []Mode{ModeHome, ModeDecoder, ModeSensors, ModeMaintenance, ModeChat, ModeAuth, ModeOBD}

// 事件常量
const (
	EventFinishIntro = "finish_intro"
	EventLogin       = "login"
	EventLogout      = "logout"
)

// 错误定义
var (
	ErrUnknownMode       = errors.New("unknown mode")
	ErrInvalidTransition = errors.New("transition not allowed")
	ErrUnknownModel      = errors.New("model does not belong to brand")
	ErrBrandRequired     = errors.New("select a brand first")
)

// ParseMode 解析模式名（不区分大小写）
func ParseMode(s string) (Mode, bool) {
	m := Mode(strings.ToUpper(strings.TrimSpace(s)))
	for _, mode := range AppModes {
		if mode == m {
			return m, true
		}
	}
	return "", false
}

// navigateEvent 导航到指定模式的事件名
func navigateEvent(to Mode) string {
	return "go_" + strings.ToLower(string(to))
}

// Snapshot 导航状态快照
type Snapshot struct {
	Mode       Mode              `json:"mode"`
	Since      time.Time         `json:"since"`
	SearchSeed string            `json:"search_seed,omitempty"`
	Brand      models.TruckBrand `json:"brand,omitempty"`
	Model      string            `json:"model,omitempty"`
}

// Navigator 会话导航状态机
type Navigator struct {
	mu         sync.RWMutex
	fsm        *fsm.FSM
	since      time.Time
	searchSeed string
	brand      models.TruckBrand
	model      string
	pending    []transition
	onChange   func(from, to Mode)
}

type transition struct {
	from, to Mode
}

// NewNavigator 创建导航状态机，初始为启动画面
func NewNavigator(onChange func(from, to Mode)) *Navigator {
	n := &Navigator{
		since:    time.Now(),
		onChange: onChange,
	}

	appStates := make([]string, 0, len(AppModes))
	for _, m := range AppModes {
		appStates = append(appStates, string(m))
	}

	events := fsm.Events{
		{Name: EventFinishIntro, Src: []string{string(ModeSplash)}, Dst: string(ModeHome)},
		{Name: EventLogin, Src: []string{string(ModeAuth)}, Dst: string(ModeHome)},
		{Name: EventLogout, Src: append([]string{string(ModeSplash)}, appStates...), Dst: string(ModeAuth)},
	}
	// 应用内任意模式之间可直接导航
	for _, m := range AppModes {
		events = append(events, fsm.EventDesc{Name: navigateEvent(m), Src: appStates, Dst: string(m)})
	}

	n.fsm = fsm.NewFSM(
		string(ModeSplash),
		events,
		fsm.Callbacks{
			"after_event": func(_ context.Context, e *fsm.Event) {
				if e.Src != e.Dst {
					n.pending = append(n.pending, transition{from: Mode(e.Src), to: Mode(e.Dst)})
				}
			},
		},
	)
	return n
}

// Mode 当前模式
func (n *Navigator) Mode() Mode {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return Mode(n.fsm.Current())
}

// Snapshot 获取导航状态副本
func (n *Navigator) Snapshot() Snapshot {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return Snapshot{
		Mode:       Mode(n.fsm.Current()),
		Since:      n.since,
		SearchSeed: n.searchSeed,
		Brand:      n.brand,
		Model:      n.model,
	}
}

// trigger 触发事件，需持有写锁
// 同状态转换视为无操作，返回是否发生切换
func (n *Navigator) trigger(event string) (bool, error) {
	if err := n.fsm.Event(context.Background(), event); err != nil {
		var noTransition fsm.NoTransitionError
		if errors.As(err, &noTransition) {
			return false, nil
		}
		var invalid fsm.InvalidEventError
		if errors.As(err, &invalid) {
			return false, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, n.fsm.Current())
		}
		return false, fmt.Errorf("trigger event %s: %w", event, err)
	}
	n.since = time.Now()
	return true, nil
}

// flush 在释放锁后通知模式变化
func (n *Navigator) flush() {
	n.mu.Lock()
	pending := n.pending
	n.pending = nil
	n.mu.Unlock()

	if n.onChange == nil {
		return
	}
	for _, t := range pending {
		n.onChange(t.from, t.to)
	}
}

// FinishIntro 启动画面结束，进入首页
func (n *Navigator) FinishIntro() error {
	n.mu.Lock()
	_, err := n.trigger(EventFinishIntro)
	n.mu.Unlock()
	n.flush()
	return err
}

// Navigate 菜单导航，从其它页面进入传感器页面时清空搜索词
func (n *Navigator) Navigate(to Mode) (bool, error) {
	if _, ok := ParseMode(string(to)); !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownMode, to)
	}

	n.mu.Lock()
	changed, err := n.trigger(navigateEvent(to))
	if err == nil && changed && to == ModeSensors {
		n.searchSeed = ""
	}
	n.mu.Unlock()
	n.flush()
	return changed, err
}

// Login 登录成功后从登录页返回首页，其它模式下不变
func (n *Navigator) Login() error {
	n.mu.Lock()
	var err error
	if Mode(n.fsm.Current()) == ModeAuth {
		_, err = n.trigger(EventLogin)
	}
	n.mu.Unlock()
	n.flush()
	return err
}

// Logout 退出登录，强制进入登录页
func (n *Navigator) Logout() error {
	n.mu.Lock()
	_, err := n.trigger(EventLogout)
	n.mu.Unlock()
	n.flush()
	return err
}

// Search 按全局搜索规则路由
func (n *Navigator) Search(term string) (Route, bool, error) {
	route, ok := ClassifySearch(term)
	if !ok {
		return Route{}, false, nil
	}

	n.mu.Lock()
	_, err := n.trigger(navigateEvent(route.Mode))
	if err == nil && route.Mode == ModeSensors {
		n.searchSeed = route.Term
	}
	n.mu.Unlock()
	n.flush()
	if err != nil {
		return Route{}, false, err
	}
	return route, true, nil
}

// SelectBrand 选择品牌，同时清空车型
func (n *Navigator) SelectBrand(brand models.TruckBrand) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.brand = brand
	n.model = ""
}

// SelectModel 选择车型，空字符串表示清除
func (n *Navigator) SelectModel(model string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if model == "" {
		n.model = ""
		return nil
	}
	if n.brand == "" {
		return ErrBrandRequired
	}
	if !n.brand.HasModel(model) {
		return fmt.Errorf("%w: %s %s", ErrUnknownModel, n.brand, model)
	}
	n.model = model
	return nil
}

// Vehicle 诊断请求使用的品牌与车型，未选择品牌时使用默认品牌
func (n *Navigator) Vehicle() (models.TruckBrand, string) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.brand == "" {
		return models.DefaultBrand, n.model
	}
	return n.brand, n.model
}
