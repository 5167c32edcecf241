package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/langchou/smartmechanic/internal/models"
	"github.com/langchou/smartmechanic/pkg/ws"
)

// fallbackReply 模型返回空文本时的回复
const fallbackReply = "Error processing request."

func newChatMessage(role models.ChatRole, text string) models.ChatMessage {
	return models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}

func welcomeText(brand models.TruckBrand, model string) string {
	vehicle := strings.TrimSpace(fmt.Sprintf("%s %s", brand, model))
	return fmt.Sprintf("System Online. 🟢\nConnected to %s Database.\nHow can I assist you with diagnostics today?", vehicle)
}

// resetChat 以欢迎消息重置对话
func (s *SessionService) resetChat() {
	brand, model := s.nav.Vehicle()
	welcome := newChatMessage(models.RoleModel, welcomeText(brand, model))

	s.mu.Lock()
	s.chat = []models.ChatMessage{welcome}
	s.mu.Unlock()
}

// Chat 当前对话记录
func (s *SessionService) Chat() []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ChatMessage(nil), s.chat...)
}

// SendChat 发送对话消息
// 用户消息先写入记录，回复仅在成功时追加
func (s *SessionService) SendChat(ctx context.Context, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if s.ai == nil {
		return nil, ErrAIUnavailable
	}

	release, err := s.acquire(ActionChat)
	if err != nil {
		return nil, err
	}
	defer release()

	userMsg := newChatMessage(models.RoleUser, text)
	s.mu.Lock()
	history := append([]models.ChatMessage(nil), s.chat...)
	s.chat = append(s.chat, userMsg)
	s.mu.Unlock()
	s.publish(ws.MsgTypeChatMessage, userMsg)

	brand, model := s.nav.Vehicle()
	lang := s.Language()

	start := time.Now()
	reply, err := s.ai.SendChatMessage(ctx, history, text, brand, model, lang)
	s.observe(ActionChat, start, err)
	if err != nil {
		s.logger.Error("Chat request failed", zap.String("brand", string(brand)), zap.Error(err))
		return nil, err
	}
	if strings.TrimSpace(reply) == "" {
		reply = fallbackReply
	}

	modelMsg := newChatMessage(models.RoleModel, reply)
	s.mu.Lock()
	s.chat = append(s.chat, modelMsg)
	s.mu.Unlock()
	s.publish(ws.MsgTypeChatMessage, modelMsg)

	return &modelMsg, nil
}
