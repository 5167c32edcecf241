package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/langchou/smartmechanic/internal/models"
)

const validDiagnosis = `{
  "system": "Engine ECU",
  "description": "Oil pressure sensor voltage above normal",
  "symptoms": ["Warning lamp"],
  "causes": ["Open circuit"],
  "solutions": ["Check connector"],
  "severity": "high",
  "partName": "Oil pressure sensor"
}`

type fakeGenerator struct {
	calls    int
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	text     string
	err      error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.contents = contents
	f.config = config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: f.text}}},
		}},
	}, nil
}

func newTestClient(gen *fakeGenerator) *Client {
	return NewClientWithGenerator(gen, "", zap.NewNop())
}

func TestAnalyzeFaultCode(t *testing.T) {
	gen := &fakeGenerator{text: validDiagnosis}
	c := newTestClient(gen)

	data := models.FaultCodeData{MID: "128", PID: "131", FMI: "05"}
	result, err := c.AnalyzeFaultCode(context.Background(), data, models.BrandRenault, "Magnum", models.LangEnglish)
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, DefaultModel, gen.model)
	require.Len(t, gen.contents, 1)
	prompt := gen.contents[0].Parts[0].Text
	assert.Contains(t, prompt, "MID 128 PID 131 FMI 05")
	assert.Contains(t, prompt, "Renault Magnum")
	assert.Contains(t, prompt, "Language: en")

	assert.Equal(t, "application/json", gen.config.ResponseMIMEType)
	require.NotNil(t, gen.config.ResponseSchema)
	assert.ElementsMatch(t, requiredFields, gen.config.ResponseSchema.Required)

	assert.Equal(t, models.SeverityHigh, result.Severity)
	assert.Equal(t, "Oil pressure sensor", result.PartName)
	assert.Equal(t, []string{"Check connector"}, result.Solutions)
}

func TestAnalyzeFaultCodeUpstreamError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	c := newTestClient(gen)

	_, err := c.AnalyzeFaultCode(context.Background(), models.FaultCodeData{MID: "128", SID: "21", FMI: "3"}, models.BrandVolvo, "", models.LangFrench)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, 1, gen.calls)
}

func TestAnalyzeImageFault(t *testing.T) {
	gen := &fakeGenerator{text: validDiagnosis}
	c := newTestClient(gen)

	raw := []byte{0xff, 0xd8, 0xff, 0xe0}
	encoded := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(raw)

	_, err := c.AnalyzeImageFault(context.Background(), encoded, models.BrandDAF, "XF", models.LangArabic)
	require.NoError(t, err)

	require.Len(t, gen.contents, 1)
	parts := gen.contents[0].Parts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].InlineData)
	assert.Equal(t, raw, parts[0].InlineData.Data)
	assert.Equal(t, ImageMIMEType, parts[0].InlineData.MIMEType)
	assert.Contains(t, parts[1].Text, "DAF XF")
}

func TestAnalyzeImageFaultInvalidBase64(t *testing.T) {
	gen := &fakeGenerator{text: validDiagnosis}
	c := newTestClient(gen)

	for _, in := range []string{"", "data:image/jpeg;base64,", "not base64!!"} {
		_, err := c.AnalyzeImageFault(context.Background(), in, models.BrandRenault, "", models.LangEnglish)
		assert.ErrorIs(t, err, ErrInvalidImage, "input %q", in)
	}
	assert.Zero(t, gen.calls)
}

func TestSendChatMessage(t *testing.T) {
	gen := &fakeGenerator{text: "Check the fuse F12."}
	c := newTestClient(gen)

	history := []models.ChatMessage{
		{Role: models.RoleModel, Text: "Hello, how can I help?"},
		{Role: models.RoleUser, Text: "My truck will not start"},
	}
	reply, err := c.SendChatMessage(context.Background(), history, "What about the fuses?", models.BrandScania, "R-Series", models.LangEnglish)
	require.NoError(t, err)
	assert.Equal(t, "Check the fuse F12.", reply)

	require.Len(t, gen.contents, 3)
	assert.Equal(t, string(genai.RoleModel), gen.contents[0].Role)
	assert.Equal(t, string(genai.RoleUser), gen.contents[1].Role)
	assert.Equal(t, "What about the fuses?", gen.contents[2].Parts[0].Text)
	assert.Contains(t, gen.config.SystemInstruction.Parts[0].Text, "ACTIVE VEHICLE: Scania R-Series")
	assert.Empty(t, gen.config.ResponseMIMEType)
}

func TestParseDiagnosis(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{name: "empty", text: "  ", wantErr: ErrEmptyResponse},
		{name: "missing part name", text: `{"system":"a","description":"b","symptoms":[],"causes":[],"solutions":[],"severity":"low"}`, wantErr: ErrSchemaViolation},
		{name: "null field", text: `{"system":null,"description":"b","symptoms":[],"causes":[],"solutions":[],"severity":"low","partName":"p"}`, wantErr: ErrSchemaViolation},
		{name: "bad severity", text: `{"system":"a","description":"b","symptoms":[],"causes":[],"solutions":[],"severity":"critical","partName":"p"}`, wantErr: ErrSchemaViolation},
		{name: "wrong type", text: `{"system":"a","description":"b","symptoms":"x","causes":[],"solutions":[],"severity":"low","partName":"p"}`, wantErr: ErrSchemaViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDiagnosis(tt.text)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("not json", func(t *testing.T) {
		_, err := ParseDiagnosis("sorry, I cannot help")
		require.Error(t, err)
	})

	t.Run("severity case folded", func(t *testing.T) {
		r, err := ParseDiagnosis(`{"system":"a","description":"b","symptoms":[],"causes":[],"solutions":[],"severity":"Medium","partName":"p"}`)
		require.NoError(t, err)
		assert.Equal(t, models.SeverityMedium, r.Severity)
	})
}
