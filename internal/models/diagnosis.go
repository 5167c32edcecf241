package models

import "fmt"

// FaultCodeData 结构化故障码
// MID 与 FMI 必填，PID 与 SID 二选一
type FaultCodeData struct {
	MID string `json:"mid"`
	PID string `json:"pid,omitempty"`
	SID string `json:"sid,omitempty"`
	FMI string `json:"fmi"`
}

// Code 返回规范化的故障码文本，例如 "MID 128 PID 131 FMI 05"
func (d FaultCodeData) Code() string {
	if d.PID != "" {
		return fmt.Sprintf("MID %s PID %s FMI %s", d.MID, d.PID, d.FMI)
	}
	return fmt.Sprintf("MID %s SID %s FMI %s", d.MID, d.SID, d.FMI)
}

// Severity 故障严重程度
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Valid 检查严重程度是否在枚举范围内
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// WiringInfo 线束检查信息
type WiringInfo struct {
	Color    string `json:"color"`
	Function string `json:"function"`
	Code     string `json:"code,omitempty"`
}

// DiagnosisResult AI 诊断结果
// 字段名与模型输出 schema 保持一致，不做持久化
type DiagnosisResult struct {
	System        string       `json:"system"`
	Description   string       `json:"description"`
	Symptoms      []string     `json:"symptoms"`
	Causes        []string     `json:"causes"`
	Solutions     []string     `json:"solutions"`
	Severity      Severity     `json:"severity"`
	PartName      string       `json:"partName,omitempty"`
	WiringCheck   []WiringInfo `json:"wiringCheck,omitempty"`
	RemovalSteps  []string     `json:"removalSteps,omitempty"`
	AssemblySteps []string     `json:"assemblySteps,omitempty"`
	ToolsRequired []string     `json:"toolsRequired,omitempty"`
	RepairNotes   string       `json:"repairNotes,omitempty"`
}

// 诊断信息来源
const (
	SourceLocal = "local"
	SourceAI    = "ai"
)

// DiagnosisReport 展示用诊断报告（AI 结果 + 本地技术资料）
type DiagnosisReport struct {
	Result        *DiagnosisResult `json:"result"`
	Part          *TechnicalPart   `json:"part,omitempty"`
	Source        string           `json:"source"`
	Location      string           `json:"location,omitempty"`
	Specs         string           `json:"specs,omitempty"`
	RemovalSteps  []string         `json:"removal_steps"`
	AssemblySteps []string         `json:"assembly_steps"`
	RepairNotes   string           `json:"repair_notes,omitempty"`
}

// TechnicalPart 本地技术资料（静态数据，只读）
type TechnicalPart struct {
	ID          string   `json:"id"`
	CodeMatch   []string `json:"code_match"`
	Name        string   `json:"name"`
	OEMRefs     []string `json:"oem_refs"`
	Location    string   `json:"location"`
	ImageURL    string   `json:"image_url"`
	DocumentRef string   `json:"document_ref"`
	Specs       string   `json:"specs"`
	Removal     []string `json:"removal"`
	Assembly    []string `json:"assembly"`
	RepairNotes string   `json:"repair_notes"`
}
