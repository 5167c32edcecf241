package knowledge

import (
	"strings"

	"github.com/langchou/smartmechanic/internal/models"
)

// Matcher 按顺序匹配技术资料
type Matcher struct {
	parts []models.TechnicalPart
}

// NewMatcher 创建匹配器，parts 为空时使用内置资料
func NewMatcher(parts []models.TechnicalPart) *Matcher {
	if parts == nil {
		parts = Parts
	}
	return &Matcher{parts: parts}
}

// Matches 判断诊断描述或部件名是否命中该资料
func Matches(part models.TechnicalPart, description, partName string) bool {
	desc := strings.ToUpper(description)
	name := strings.ToUpper(partName)
	id := strings.ToUpper(part.ID)

	if strings.Contains(desc, id) {
		return true
	}
	if strings.Contains(name, strings.ReplaceAll(id, "_", " ")) {
		return true
	}
	for _, code := range part.CodeMatch {
		code = strings.ToUpper(code)
		if strings.Contains(desc, code) || strings.Contains(name, code) {
			return true
		}
	}
	return false
}

// Match 返回第一个命中的资料
func (m *Matcher) Match(result *models.DiagnosisResult) *models.TechnicalPart {
	if result == nil {
		return nil
	}
	for i := range m.parts {
		if Matches(m.parts[i], result.Description, result.PartName) {
			part := m.parts[i]
			return &part
		}
	}
	return nil
}

// Enrich 生成展示用报告
// 命中本地资料时，位置、规格、拆装步骤与维修说明以本地为准
func (m *Matcher) Enrich(result *models.DiagnosisResult) *models.DiagnosisReport {
	if result == nil {
		return nil
	}

	report := &models.DiagnosisReport{
		Result:        result,
		Source:        models.SourceAI,
		RemovalSteps:  nonNil(result.RemovalSteps),
		AssemblySteps: nonNil(result.AssemblySteps),
		RepairNotes:   result.RepairNotes,
	}

	part := m.Match(result)
	if part == nil {
		return report
	}

	report.Part = part
	report.Source = models.SourceLocal
	report.Location = part.Location
	report.Specs = part.Specs
	report.RemovalSteps = part.Removal
	report.AssemblySteps = part.Assembly
	report.RepairNotes = part.RepairNotes
	return report
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
