package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/langchou/smartmechanic/internal/auth"
	"github.com/langchou/smartmechanic/internal/knowledge"
	"github.com/langchou/smartmechanic/internal/ledger"
	"github.com/langchou/smartmechanic/internal/maintenance"
	"github.com/langchou/smartmechanic/internal/metrics"
	"github.com/langchou/smartmechanic/internal/models"
	"github.com/langchou/smartmechanic/internal/obd"
	"github.com/langchou/smartmechanic/internal/state"
	"github.com/langchou/smartmechanic/internal/storage"
	"github.com/langchou/smartmechanic/pkg/ws"
)

// Action 需要防重复提交的用户操作
type Action string

const (
	ActionFaultDiagnosis Action = "fault_diagnosis"
	ActionImageDiagnosis Action = "image_diagnosis"
	ActionChat           Action = "chat"
)

var actions = []Action{ActionFaultDiagnosis, ActionImageDiagnosis, ActionChat}

// 错误定义
var (
	ErrBusy          = errors.New("a request for this action is already in flight")
	ErrAIUnavailable = errors.New("diagnosis service is not configured")
	ErrEmptyMessage  = errors.New("message is empty")
	ErrUnknownBrand  = errors.New("unknown truck brand")
	ErrUnknownLang   = errors.New("unsupported language")
)

// Diagnoser AI 诊断接口，*gemini.Client 实现该接口
type Diagnoser interface {
	AnalyzeFaultCode(ctx context.Context, data models.FaultCodeData, brand models.TruckBrand, model string, lang models.Language) (*models.DiagnosisResult, error)
	AnalyzeImageFault(ctx context.Context, base64Image string, brand models.TruckBrand, model string, lang models.Language) (*models.DiagnosisResult, error)
	SendChatMessage(ctx context.Context, history []models.ChatMessage, message string, brand models.TruckBrand, model string, lang models.Language) (string, error)
}

// Broadcaster 事件推送接口，*ws.Hub 实现该接口
type Broadcaster interface {
	BroadcastMessage(msgType string, data interface{})
}

// Options 会话服务配置
type Options struct {
	GiftRefreshInterval time.Duration
	BcryptCost          int
	OBDTiming           obd.Timing
}

// Snapshot 会话状态快照
type Snapshot struct {
	Navigation    state.Snapshot          `json:"navigation"`
	User          *models.User            `json:"user"`
	Language      models.Language         `json:"language"`
	SpeechLocale  string                  `json:"speech_locale"`
	RTL           bool                    `json:"rtl"`
	CookieConsent bool                    `json:"cookie_consent"`
	Diagnosis     *models.DiagnosisReport `json:"diagnosis,omitempty"`
	DecoderQuery  string                  `json:"decoder_query,omitempty"`
	Gift          ledger.GiftStatus       `json:"gift"`
	OBD           obd.Status              `json:"obd"`
	Busy          []Action                `json:"busy,omitempty"`
}

// SessionService 单设备会话服务
type SessionService struct {
	logger      *zap.Logger
	store       *storage.Store
	ai          Diagnoser
	broadcaster Broadcaster
	metrics     *metrics.Metrics
	opts        Options

	nav         *state.Navigator
	matcher     *knowledge.Matcher
	ledger      *ledger.Ledger
	maintenance *maintenance.Log
	verifier    auth.Verifier
	obd         *obd.Simulator

	guards map[Action]*semaphore.Weighted
	busy   map[Action]bool

	mu            sync.RWMutex
	user          *models.User
	lang          models.Language
	cookieConsent bool
	diagnosis     *models.DiagnosisReport
	decoderQuery  string
	chat          []models.ChatMessage

	runCtx  context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewSessionService 创建会话服务，ai 为 nil 时诊断与对话不可用
func NewSessionService(
	logger *zap.Logger,
	store *storage.Store,
	ai Diagnoser,
	broadcaster Broadcaster,
	m *metrics.Metrics,
	opts Options,
) *SessionService {
	if opts.GiftRefreshInterval <= 0 {
		opts.GiftRefreshInterval = time.Minute
	}
	if opts.OBDTiming.Interval <= 0 {
		opts.OBDTiming = obd.DefaultTiming()
	}

	svc := &SessionService{
		logger:      logger,
		store:       store,
		ai:          ai,
		broadcaster: broadcaster,
		metrics:     m,
		opts:        opts,
		matcher:     knowledge.NewMatcher(nil),
		maintenance: maintenance.NewLog(store, logger.Named("maintenance")),
		verifier:    auth.NewLocalVerifier(store, opts.BcryptCost, logger.Named("auth")),
		guards:      make(map[Action]*semaphore.Weighted, len(actions)),
		busy:        make(map[Action]bool, len(actions)),
		lang:        models.DefaultLanguage,
		runCtx:      context.Background(),
	}
	for _, a := range actions {
		svc.guards[a] = semaphore.NewWeighted(1)
	}

	var ledgerOpts []ledger.Option
	if m != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithAwardHook(func(r ledger.Reason, amount int) {
			m.ObservePoints(string(r), amount)
		}))
	}
	svc.ledger = ledger.New(store, logger.Named("ledger"), ledgerOpts...)
	svc.nav = state.NewNavigator(svc.onModeChange)
	svc.obd = obd.NewSimulator(opts.OBDTiming, obdListener{svc}, logger.Named("obd"))
	svc.resetChat()

	return svc
}

// Start 加载持久化状态并启动后台任务
func (s *SessionService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("load session: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.runCtx = runCtx
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.giftLoop(runCtx)

	s.logger.Info("Session service started", zap.Duration("gift_refresh", s.opts.GiftRefreshInterval))
	return nil
}

// Stop 停止后台任务与 OBD 模拟
func (s *SessionService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	s.obd.Disconnect()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.logger.Info("Session service stopped")
}

// load 从存储恢复用户、语言与 Cookie 同意状态
func (s *SessionService) load(ctx context.Context) error {
	user, err := s.store.User(ctx)
	if err != nil {
		return err
	}
	lang, err := s.store.Language(ctx)
	if err != nil {
		return err
	}
	consent, err := s.store.CookieConsent(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.user = user
	s.lang = lang
	s.cookieConsent = consent
	s.mu.Unlock()

	s.logger.Info("Session restored",
		zap.Bool("signed_in", user != nil),
		zap.String("language", string(lang)),
	)
	return nil
}

// giftLoop 定时推送每日礼物状态
func (s *SessionService) giftLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.GiftRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status, err := s.ledger.GiftStatus(ctx)
			if err != nil {
				s.logger.Warn("Failed to refresh gift status", zap.Error(err))
				continue
			}
			s.publish(ws.MsgTypeGiftStatus, status)
		}
	}
}

func (s *SessionService) publish(msgType string, data interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMessage(msgType, data)
	}
}

// Snapshot 获取会话快照
func (s *SessionService) Snapshot(ctx context.Context) Snapshot {
	gift, err := s.ledger.GiftStatus(ctx)
	if err != nil {
		s.logger.Warn("Failed to load gift status", zap.Error(err))
	}

	s.mu.RLock()
	snap := Snapshot{
		Navigation:     s.nav.Snapshot(),
		User:           copyUser(s.user),
		Language:       s.lang,
		SpeechLocale:   s.lang.SpeechLocale(),
		RTL:            s.lang.RTL(),
		CookieConsent:  s.cookieConsent,
		Diagnosis:      s.diagnosis,
		DecoderQuery:   s.decoderQuery,
		Gift:           gift,
	}
	for _, a := range actions {
		if s.busy[a] {
			snap.Busy = append(snap.Busy, a)
		}
	}
	s.mu.RUnlock()

	snap.OBD = s.obd.Status()
	return snap
}

// InitData WebSocket 新连接的初始数据
func (s *SessionService) InitData() interface{} {
	return s.Snapshot(context.Background())
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// User 当前用户
func (s *SessionService) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.user)
}

// setUser 更新内存中的用户并推送
func (s *SessionService) setUser(u *models.User) {
	s.mu.Lock()
	s.user = copyUser(u)
	s.mu.Unlock()
	s.publish(ws.MsgTypeUserUpdated, u)
}

// acquire 获取操作的执行权，同一操作进行中时返回 ErrBusy
func (s *SessionService) acquire(a Action) (func(), error) {
	if !s.guards[a].TryAcquire(1) {
		return nil, ErrBusy
	}
	s.mu.Lock()
	s.busy[a] = true
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		s.busy[a] = false
		s.mu.Unlock()
		s.guards[a].Release(1)
	}, nil
}

// observe 记录 AI 请求结果
func (s *SessionService) observe(a Action, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.metrics.DiagnosisRequests.WithLabelValues(string(a), outcome).Inc()
	s.metrics.DiagnosisDuration.WithLabelValues(string(a)).Observe(time.Since(start).Seconds())
}

// onModeChange 导航切换回调
func (s *SessionService) onModeChange(from, to state.Mode) {
	if from == state.ModeOBD && s.obd.Disconnect() {
		s.logger.Info("OBD simulation cancelled on navigation", zap.String("to", string(to)))
	}
	if to == state.ModeChat {
		s.resetChat()
	}
	if from == state.ModeDecoder {
		s.mu.Lock()
		s.decoderQuery = ""
		s.mu.Unlock()
	}

	s.logger.Debug("Mode changed", zap.String("from", string(from)), zap.String("to", string(to)))
	s.publish(ws.MsgTypeModeChanged, modeChange{From: from, To: to})
}

// modeChange 模式切换事件
type modeChange struct {
	From state.Mode `json:"from"`
	To   state.Mode `json:"to"`
}

// FinishIntro 启动画面结束
func (s *SessionService) FinishIntro() error {
	return s.nav.FinishIntro()
}

// Navigate 菜单导航
func (s *SessionService) Navigate(mode state.Mode) (state.Snapshot, error) {
	if _, err := s.nav.Navigate(mode); err != nil {
		return state.Snapshot{}, err
	}
	return s.nav.Snapshot(), nil
}

// Search 全局搜索，路由到解码页时记录搜索词
func (s *SessionService) Search(term string) (state.Route, bool, error) {
	route, ok, err := s.nav.Search(term)
	if err != nil || !ok {
		return route, ok, err
	}
	if route.Mode == state.ModeDecoder {
		s.mu.Lock()
		s.decoderQuery = route.Term
		s.mu.Unlock()
	}
	return route, true, nil
}

// Voice 执行语音指令
func (s *SessionService) Voice(transcript string) (state.VoiceAction, bool, error) {
	action, ok := state.MatchVoiceCommand(transcript)
	if !ok {
		return action, false, nil
	}
	if action.Mode != "" {
		_, err := s.nav.Navigate(action.Mode)
		return action, err == nil, err
	}
	_, ok, err := s.Search(action.Search)
	return action, ok, err
}

// SelectBrand 选择品牌，空字符串表示清除
func (s *SessionService) SelectBrand(name string) (state.Snapshot, error) {
	if name == "" {
		s.nav.SelectBrand("")
		return s.nav.Snapshot(), nil
	}
	brand, ok := models.ParseBrand(name)
	if !ok {
		return state.Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownBrand, name)
	}
	s.nav.SelectBrand(brand)
	return s.nav.Snapshot(), nil
}

// SelectModel 选择车型
func (s *SessionService) SelectModel(model string) (state.Snapshot, error) {
	if err := s.nav.SelectModel(model); err != nil {
		return state.Snapshot{}, err
	}
	return s.nav.Snapshot(), nil
}

// SetLanguage 切换界面语言并持久化
func (s *SessionService) SetLanguage(ctx context.Context, code string) (models.Language, error) {
	lang, ok := models.ParseLanguage(code)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLang, code)
	}
	if err := s.store.SetLanguage(ctx, lang); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.lang = lang
	s.mu.Unlock()
	return lang, nil
}

// Language 当前语言
func (s *SessionService) Language() models.Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lang
}

// AcceptCookies 记录 Cookie 同意
func (s *SessionService) AcceptCookies(ctx context.Context) error {
	if err := s.store.SetCookieConsent(ctx, true); err != nil {
		return err
	}
	s.mu.Lock()
	s.cookieConsent = true
	s.mu.Unlock()
	return nil
}
