package gemini

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/langchou/smartmechanic/internal/models"
)

// SystemInstruction 固定的领域说明
const SystemInstruction = `
  VEHICLE SPECIALIZATION: Renault Trucks 440 DXi.
  CORE OBJECTIVE: Diagnostic analysis using Renault Technical Manual 70 627 standards.

  DIAGNOSTIC GUIDELINES:
  - Precisely distinguish between RENAULT (DXi Series) and VOLVO (FH/FM) logic.
  - Identify the exact SENSOR location (e.g., Engine left side, behind turbo, on chassis rail).
  - Provide specific WIRE CODES/COLORS if applicable (Renault standard).
  - Include "WIPE/RESET" instructions using either the dashboard menu (DASH) or a diagnostic tool (V-MAC / NG3).

  SYSTEM MAPPINGS FOR 440 DXi:
  - MID 128: Engine ECU (V-MAC).
  - MID 136: EBS (Brakes).
  - MID 144: VECU (Vehicle Control).
  - MID 185: APM (Air Production).
  - MID 150: ECS (Suspension).
`

// ImageMIMEType 拍照识别上传的图片格式
const ImageMIMEType = "image/jpeg"

// requiredFields 诊断结果必填字段
var requiredFields = []string{"system", "description", "symptoms", "causes", "solutions", "severity", "partName"}

// vehicle 品牌与车型
func vehicle(brand models.TruckBrand, model string) string {
	return strings.TrimSpace(string(brand) + " " + model)
}

// BuildFaultPrompt 生成故障码诊断提示词
func BuildFaultPrompt(data models.FaultCodeData, brand models.TruckBrand, model string, lang models.Language) string {
	return fmt.Sprintf("DIAGNOSE: %s. CODE: %s.\n"+
		"Identify the specific faulty sensor and provide its physical location. "+
		"Use Manual 70 627 protocols for Renault. Language: %s.",
		vehicle(brand, model), data.Code(), lang)
}

// BuildImagePrompt 生成图片诊断提示词
func BuildImagePrompt(brand models.TruckBrand, model string, lang models.Language) string {
	return fmt.Sprintf("Identify the truck make (selected: %s, Renault 440DXI preferred) and the specific faulty component from this image. "+
		"Provide diagnosis, exact location, and Renault 70 627 protocol in %s.",
		vehicle(brand, model), lang)
}

// chatInstruction 对话使用的系统说明，附带当前车辆与语言
func chatInstruction(brand models.TruckBrand, model string, lang models.Language) string {
	return fmt.Sprintf("%s\n  ACTIVE VEHICLE: %s.\n  RESPONSE LANGUAGE: %s.\n", SystemInstruction, vehicle(brand, model), lang)
}

func stringArray() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
}

// DiagnosisSchema 诊断结果输出 schema
func DiagnosisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"system":      {Type: genai.TypeString},
			"description": {Type: genai.TypeString},
			"symptoms":    stringArray(),
			"causes":      stringArray(),
			"solutions":   stringArray(),
			"severity": {
				Type:        genai.TypeString,
				Description: "low, medium, or high",
				Enum:        []string{string(models.SeverityLow), string(models.SeverityMedium), string(models.SeverityHigh)},
			},
			"partName":      {Type: genai.TypeString, Description: "Specific technical name for the identified part"},
			"removalSteps":  stringArray(),
			"assemblySteps": stringArray(),
			"repairNotes":   {Type: genai.TypeString},
			"toolsRequired": stringArray(),
			"wiringCheck": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"color":    {Type: genai.TypeString},
						"function": {Type: genai.TypeString},
						"code":     {Type: genai.TypeString},
					},
					Required: []string{"color", "function"},
				},
			},
		},
		Required: requiredFields,
	}
}
