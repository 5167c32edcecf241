package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/langchou/smartmechanic/internal/models"
)

// DefaultModel 默认模型
const DefaultModel = "gemini-3-pro-preview"

// 错误定义
var (
	ErrEmptyResponse   = errors.New("empty model response")
	ErrSchemaViolation = errors.New("model response violates diagnosis schema")
	ErrInvalidImage    = errors.New("invalid base64 image")
)

// Generator 模型调用接口，*genai.Models 实现该接口
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client Gemini 诊断客户端
// 每次调用都是一次独立的远程请求，不重试、不缓存
type Client struct {
	gen    Generator
	model  string
	logger *zap.Logger
}

// NewClient 使用 API Key 创建客户端
func NewClient(ctx context.Context, apiKey, model string, logger *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return NewClientWithGenerator(gc.Models, model, logger), nil
}

// NewClientWithGenerator 使用自定义 Generator 创建客户端
func NewClientWithGenerator(gen Generator, model string, logger *zap.Logger) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{gen: gen, model: model, logger: logger}
}

// Model 当前使用的模型名
func (c *Client) Model() string {
	return c.model
}

// structuredConfig 结构化输出配置
func structuredConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    DiagnosisSchema(),
	}
}

// AnalyzeFaultCode 根据结构化故障码获取诊断
func (c *Client) AnalyzeFaultCode(ctx context.Context, data models.FaultCodeData, brand models.TruckBrand, model string, lang models.Language) (*models.DiagnosisResult, error) {
	prompt := BuildFaultPrompt(data, brand, model, lang)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	c.logger.Debug("Requesting fault code diagnosis",
		zap.String("code", data.Code()),
		zap.String("brand", string(brand)),
		zap.String("model", model),
	)

	resp, err := c.gen.GenerateContent(ctx, c.model, contents, structuredConfig())
	if err != nil {
		return nil, fmt.Errorf("generate fault diagnosis: %w", err)
	}
	return ParseDiagnosis(resp.Text())
}

// AnalyzeImageFault 根据拍摄的图片获取诊断
func (c *Client) AnalyzeImageFault(ctx context.Context, base64Image string, brand models.TruckBrand, model string, lang models.Language) (*models.DiagnosisResult, error) {
	image, err := decodeImage(base64Image)
	if err != nil {
		return nil, err
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(image, ImageMIMEType),
		genai.NewPartFromText(BuildImagePrompt(brand, model, lang)),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	c.logger.Debug("Requesting image diagnosis", zap.Int("image_bytes", len(image)), zap.String("brand", string(brand)))

	resp, err := c.gen.GenerateContent(ctx, c.model, contents, structuredConfig())
	if err != nil {
		return nil, fmt.Errorf("generate image diagnosis: %w", err)
	}
	return ParseDiagnosis(resp.Text())
}

// SendChatMessage 发送对话消息，history 为已有对话（按时间顺序）
func (c *Client) SendChatMessage(ctx context.Context, history []models.ChatMessage, message string, brand models.TruckBrand, model string, lang models.Language) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		var role genai.Role = genai.RoleModel
		if m.Role == models.RoleUser {
			role = genai.RoleUser
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(chatInstruction(brand, model, lang), genai.RoleUser),
	}

	resp, err := c.gen.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate chat reply: %w", err)
	}
	return resp.Text(), nil
}

// decodeImage 解码 base64 图片，兼容 data URL 前缀
func decodeImage(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	if s == "" {
		return nil, ErrInvalidImage
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return data, nil
}

// ParseDiagnosis 解析模型返回的 JSON 并校验必填字段
func ParseDiagnosis(text string) (*models.DiagnosisResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("decode diagnosis: %w", err)
	}
	for _, field := range requiredFields {
		v, ok := raw[field]
		if !ok || string(v) == "null" {
			return nil, fmt.Errorf("%w: missing %s", ErrSchemaViolation, field)
		}
	}

	var result models.DiagnosisResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	result.Severity = models.Severity(strings.ToLower(string(result.Severity)))
	if !result.Severity.Valid() {
		return nil, fmt.Errorf("%w: severity %q", ErrSchemaViolation, result.Severity)
	}
	return &result, nil
}
