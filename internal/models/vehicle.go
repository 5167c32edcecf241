package models

import "strings"

// TruckBrand 卡车品牌
type TruckBrand string

const (
	BrandRenault TruckBrand = "Renault"
	BrandVolvo   TruckBrand = "Volvo"
	BrandScania  TruckBrand = "Scania"
	BrandMAN     TruckBrand = "MAN"
	BrandDAF     TruckBrand = "DAF"
	BrandIveco   TruckBrand = "Iveco"
	BrandFord    TruckBrand = "Ford"
)

// DefaultBrand 未选择品牌时诊断请求使用的品牌
const DefaultBrand = BrandRenault

// Brands 品牌展示顺序
var Brands = []TruckBrand{BrandRenault, BrandVolvo, BrandScania, BrandMAN, BrandDAF, BrandIveco, BrandFord}

// TruckModels 各品牌车型目录
var TruckModels = map[TruckBrand][]string{
	BrandRenault: {"Magnum", "Premium", "Kerax", "Midlum", "T Series", "C Series", "K Series", "D Series", "E-Tech"},
	BrandVolvo:   {"FH", "FM", "FMX", "FL", "VNL", "VNR", "VNX"},
	BrandScania:  {"3-Series", "4-Series", "P-Series", "G-Series", "R-Series", "S-Series", "XT-Range"},
	BrandMAN:     {"TGX", "TGS", "TGM", "TGL", "eTGM"},
	BrandDAF:     {"XF", "XG", "XG+", "CF", "XD", "LF"},
	BrandIveco:   {"Stralis / S-Way", "Eurocargo", "Trakker", "Daily", "eDaily"},
	BrandFord:    {"F-MAX", "Cargo"},
}

// ParseBrand 解析品牌名称（不区分大小写）
func ParseBrand(s string) (TruckBrand, bool) {
	for _, b := range Brands {
		if strings.EqualFold(string(b), strings.TrimSpace(s)) {
			return b, true
		}
	}
	return "", false
}

// HasModel 检查车型是否属于该品牌
func (b TruckBrand) HasModel(model string) bool {
	for _, m := range TruckModels[b] {
		if m == model {
			return true
		}
	}
	return false
}

// Language 界面语言
type Language string

const (
	LangArabic  Language = "ar"
	LangEnglish Language = "en"
	LangFrench  Language = "fr"
)

// DefaultLanguage 首次运行或存储损坏时的语言
const DefaultLanguage = LangEnglish

// ParseLanguage 解析语言代码
func ParseLanguage(s string) (Language, bool) {
	switch Language(s) {
	case LangArabic, LangEnglish, LangFrench:
		return Language(s), true
	}
	return "", false
}

// SpeechLocale 语音识别使用的区域代码
func (l Language) SpeechLocale() string {
	switch l {
	case LangArabic:
		return "ar-SA"
	case LangFrench:
		return "fr-FR"
	default:
		return "en-US"
	}
}

// RTL 是否从右到左排版
func (l Language) RTL() bool {
	return l == LangArabic
}
