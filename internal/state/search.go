package state

import (
	"regexp"
	"strings"
	"unicode"
)

// Route 全局搜索的路由结果
type Route struct {
	Mode Mode   `json:"mode"`
	Term string `json:"term"`
}

// ClassifySearch 按搜索词内容决定目标页面
// 含数字且包含 PID/SID 进入传感器页面，其余含数字的进入解码页面，否则进入传感器页面
func ClassifySearch(term string) (Route, bool) {
	term = strings.TrimSpace(term)
	if term == "" {
		return Route{}, false
	}

	if strings.IndexFunc(term, unicode.IsDigit) >= 0 {
		upper := strings.ToUpper(term)
		if strings.Contains(upper, "PID") || strings.Contains(upper, "SID") {
			return Route{Mode: ModeSensors, Term: term}, true
		}
		return Route{Mode: ModeDecoder, Term: term}, true
	}
	return Route{Mode: ModeSensors, Term: term}, true
}

// VoiceAction 语音指令解析结果，只会设置 Mode 或 Search 之一
type VoiceAction struct {
	Mode   Mode   `json:"mode,omitempty"`
	Search string `json:"search,omitempty"`
}

// voiceKeywords 各模式的关键词，按优先级排列
var voiceKeywords = []struct {
	mode     Mode
	keywords []string
}{
	{ModeHome, []string{"home", "الرئيسية", "accueil", "عودة"}},
	{ModeDecoder, []string{"decoder", "diagnostic", "scan", "فحص", "كود", "تشخيص"}},
	{ModeSensors, []string{"sensor", "gallery", "حساس", "capteur"}},
	{ModeMaintenance, []string{"maintenance", "log", "صيانة", "سجل", "entretien"}},
	{ModeChat, []string{"assistant", "chat", "مساعد", "شات"}},
}

var searchPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)search (for )?(.+)`),
	regexp.MustCompile(`(?i)find (.+)`),
	regexp.MustCompile(`بحث (عن )?(.+)`),
	regexp.MustCompile(`(?i)chercher (.+)`),
	regexp.MustCompile(`(?i)trouver (.+)`),
}

var punctuation = strings.NewReplacer("?", "", ".", "", ",", "", "!", "")

// MatchVoiceCommand 将语音识别文本映射为导航或搜索动作
func MatchVoiceCommand(transcript string) (VoiceAction, bool) {
	text := strings.ToLower(strings.TrimSpace(transcript))
	if text == "" {
		return VoiceAction{}, false
	}

	for _, entry := range voiceKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return VoiceAction{Mode: entry.mode}, true
			}
		}
	}

	for _, p := range searchPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		term := strings.TrimSpace(punctuation.Replace(m[len(m)-1]))
		if term == "" {
			continue
		}
		return VoiceAction{Search: term}, true
	}
	return VoiceAction{}, false
}
