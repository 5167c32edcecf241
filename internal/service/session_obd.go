package service

import (
	"github.com/langchou/smartmechanic/internal/obd"
	"github.com/langchou/smartmechanic/pkg/ws"
)

// obdListener 将模拟事件转发到推送通道
type obdListener struct {
	svc *SessionService
}

func (l obdListener) OnLog(line string) {
	l.svc.publish(ws.MsgTypeOBDLog, line)
}

func (l obdListener) OnState(state obd.State) {
	l.svc.publish(ws.MsgTypeOBDState, state)
}

func (l obdListener) OnData(r obd.Reading) {
	l.svc.publish(ws.MsgTypeOBDData, r)
}

// ConnectOBD 开始模拟连接，随服务停止而结束
func (s *SessionService) ConnectOBD() error {
	s.mu.RLock()
	ctx := s.runCtx
	s.mu.RUnlock()
	return s.obd.Connect(ctx)
}

// DisconnectOBD 断开模拟连接
func (s *SessionService) DisconnectOBD() bool {
	return s.obd.Disconnect()
}

// OBDStatus 模拟连接状态
func (s *SessionService) OBDStatus() obd.Status {
	return s.obd.Status()
}
