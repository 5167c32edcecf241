// Package faultcode 校验并规范化 MID/PID/SID/FMI 故障码输入
package faultcode

import (
	"errors"
	"regexp"
	"strings"

	"github.com/langchou/smartmechanic/internal/models"
)

// AddressMode 参数寻址方式
type AddressMode string

const (
	ModePID AddressMode = "pid"
	ModeSID AddressMode = "sid"
)

// 校验错误
var (
	ErrMissingMID   = errors.New("module id (MID) is required")
	ErrMissingValue = errors.New("parameter or subsystem id (PID/SID) is required")
	ErrMissingFMI   = errors.New("failure mode id (FMI) is required")
	ErrInvalidMode  = errors.New("address mode must be pid or sid")
	ErrNoCode       = errors.New("no fault code found in text")
)

// Input 表单原始输入
type Input struct {
	MID   string      `json:"mid"`
	Value string      `json:"value"` // PID 或 SID 的值，由 Mode 决定
	Mode  AddressMode `json:"mode"`
	FMI   string      `json:"fmi"`
}

// Normalize 校验输入并生成故障码
// 只检查是否为空，不做数值范围校验，由诊断模型自行解释
func Normalize(in Input) (models.FaultCodeData, error) {
	mid := strings.TrimSpace(in.MID)
	value := strings.TrimSpace(in.Value)
	fmi := strings.TrimSpace(in.FMI)

	switch {
	case mid == "":
		return models.FaultCodeData{}, ErrMissingMID
	case value == "":
		return models.FaultCodeData{}, ErrMissingValue
	case fmi == "":
		return models.FaultCodeData{}, ErrMissingFMI
	}

	data := models.FaultCodeData{MID: mid, FMI: fmi}
	switch in.Mode {
	case ModePID, "":
		data.PID = value
	case ModeSID:
		data.SID = value
	default:
		return models.FaultCodeData{}, ErrInvalidMode
	}
	return data, nil
}

// IsValidationError 是否为输入校验错误
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingMID) ||
		errors.Is(err, ErrMissingValue) ||
		errors.Is(err, ErrMissingFMI) ||
		errors.Is(err, ErrInvalidMode)
}

var codePattern = regexp.MustCompile(`(?i)MID\s*[:#]?\s*(\w+)\W+(PID|SID)\s*[:#]?\s*(\w+)\W+FMI\s*[:#]?\s*(\w+)`)

// Parse 从自由文本中提取故障码，例如 "mid 128 pid 131 fmi 05"
func Parse(text string) (models.FaultCodeData, error) {
	m := codePattern.FindStringSubmatch(text)
	if m == nil {
		return models.FaultCodeData{}, ErrNoCode
	}
	mode := ModePID
	if strings.EqualFold(m[2], "SID") {
		mode = ModeSID
	}
	return Normalize(Input{MID: m[1], Value: m[3], Mode: mode, FMI: m[4]})
}
