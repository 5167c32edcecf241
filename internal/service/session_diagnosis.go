package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/smartmechanic/internal/faultcode"
	"github.com/langchou/smartmechanic/internal/ledger"
	"github.com/langchou/smartmechanic/internal/models"
	"github.com/langchou/smartmechanic/pkg/ws"
)

// DiagnosisOutcome 诊断结果与诊断后的用户
type DiagnosisOutcome struct {
	Report *models.DiagnosisReport `json:"report"`
	User   *models.User            `json:"user,omitempty"`
}

// DiagnoseFaultCode 提交故障码诊断
// 成功后保存报告并奖励积分，失败时不改变已有状态以外的任何数据
func (s *SessionService) DiagnoseFaultCode(ctx context.Context, in faultcode.Input) (*DiagnosisOutcome, error) {
	data, err := faultcode.Normalize(in)
	if err != nil {
		return nil, err
	}
	if s.ai == nil {
		return nil, ErrAIUnavailable
	}

	release, err := s.acquire(ActionFaultDiagnosis)
	if err != nil {
		return nil, err
	}
	defer release()

	s.clearDiagnosis()
	brand, model := s.nav.Vehicle()
	lang := s.Language()

	start := time.Now()
	result, err := s.ai.AnalyzeFaultCode(ctx, data, brand, model, lang)
	s.observe(ActionFaultDiagnosis, start, err)
	if err != nil {
		s.logger.Error("Fault code diagnosis failed",
			zap.String("code", data.Code()),
			zap.String("brand", string(brand)),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Fault code diagnosed",
		zap.String("code", data.Code()),
		zap.String("brand", string(brand)),
		zap.String("model", model),
		zap.String("severity", string(result.Severity)),
	)
	return s.completeDiagnosis(ctx, result, ledger.ReasonFaultDiagnosis, ledger.PointsFaultDiagnosis), nil
}

// DiagnoseImage 提交仪表盘或故障灯图片诊断
func (s *SessionService) DiagnoseImage(ctx context.Context, base64Image string) (*DiagnosisOutcome, error) {
	if s.ai == nil {
		return nil, ErrAIUnavailable
	}

	release, err := s.acquire(ActionImageDiagnosis)
	if err != nil {
		return nil, err
	}
	defer release()

	s.clearDiagnosis()
	brand, model := s.nav.Vehicle()
	lang := s.Language()

	start := time.Now()
	result, err := s.ai.AnalyzeImageFault(ctx, base64Image, brand, model, lang)
	s.observe(ActionImageDiagnosis, start, err)
	if err != nil {
		s.logger.Error("Image diagnosis failed", zap.String("brand", string(brand)), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Image diagnosed",
		zap.String("brand", string(brand)),
		zap.String("severity", string(result.Severity)),
	)
	return s.completeDiagnosis(ctx, result, ledger.ReasonImageDiagnosis, ledger.PointsImageDiagnosis), nil
}

// completeDiagnosis 匹配本地资料、保存报告并奖励积分
func (s *SessionService) completeDiagnosis(ctx context.Context, result *models.DiagnosisResult, reason ledger.Reason, points int) *DiagnosisOutcome {
	report := s.matcher.Enrich(result)

	s.mu.Lock()
	s.diagnosis = report
	s.mu.Unlock()
	s.publish(ws.MsgTypeDiagnosis, report)

	out := &DiagnosisOutcome{Report: report}

	// 未登录时不奖励
	user, err := s.ledger.Award(ctx, reason, points)
	switch {
	case err == nil:
		s.setUser(user)
		out.User = copyUser(user)
	case errors.Is(err, ledger.ErrNoUser):
	default:
		s.logger.Warn("Failed to award diagnosis points", zap.String("reason", string(reason)), zap.Error(err))
	}
	return out
}

func (s *SessionService) clearDiagnosis() {
	s.mu.Lock()
	s.diagnosis = nil
	s.mu.Unlock()
}

// Diagnosis 当前诊断报告
func (s *SessionService) Diagnosis() *models.DiagnosisReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.diagnosis
}

// DecoderQuery 搜索带入解码页的搜索词
func (s *SessionService) DecoderQuery() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.decoderQuery
}
