package prompt

import (
	"maps"
	"slices"
	"strings"
)

// Tone описывает шаблон инструкции, который определяет стиль переписывания.
type Tone struct {
	Name   string
	Prompt string
}

// DefaultTone используется, если тон из настроек неизвестен.
const DefaultTone = "rephrase"

// Tones — таблица тонов: ключ -> инструкция.
var Tones = map[string]Tone{
	"rephrase": {
		Name:   "Rephrase (fix grammar + clarity)",
		Prompt: "Rephrase the following text to fix grammar and improve clarity. Keep the same meaning and tone. Only output the rephrased text, nothing else.",
	},
	"grammar": {
		Name:   "Fix grammar only",
		Prompt: "Fix only the grammar errors in the following text. Make minimal changes. Only output the corrected text, nothing else.",
	},
	"professional": {
		Name:   "Professional",
		Prompt: "Rewrite the following text in a professional, formal business tone. Fix any grammar issues. Only output the rewritten text, nothing else.",
	},
	"concise": {
		Name:   "Concise",
		Prompt: "Rewrite the following text to be more concise and to the point. Fix any grammar issues. Only output the rewritten text, nothing else.",
	},
	"friendly": {
		Name:   "Friendly",
		Prompt: "Rewrite the following text in a warm, friendly, casual tone. Fix any grammar issues. Only output the rewritten text, nothing else.",
	},
}

// DefaultAliases — встроенные префиксы (без разделителя), переключающие тон прямо из текста.
func DefaultAliases() map[string]string {
	return map[string]string{
		"grammar":      "grammar",
		"fix":          "grammar",
		"professional": "professional",
		"formal":       "professional",
		"concise":      "concise",
		"short":        "concise",
		"friendly":     "friendly",
		"casual":       "friendly",
	}
}

// Seniority — уровень «авторитетности» текста, задаётся только настройками.
type Seniority string

const (
	SeniorityNone   Seniority = "none"
	SeniorityMid    Seniority = "mid"
	SenioritySenior Seniority = "senior"
)

// seniorityModifiers — фрагменты инструкции, добавляемые перед тоном. Для none пусто.
var seniorityModifiers = map[Seniority]string{
	SeniorityNone:   "",
	SeniorityMid:    "Write as an experienced mid-level professional: clear, competent and collaborative, without hedging or filler.",
	SenioritySenior: "Write as a senior professional: confident, direct and decisive, with the calm authority of someone who owns the outcome.",
}

// ParseSeniority приводит строку из настроек к уровню; неизвестное значение -> none.
func ParseSeniority(s string) Seniority {
	lvl := Seniority(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := seniorityModifiers[lvl]; ok {
		return lvl
	}
	return SeniorityNone
}

// SeniorityModifier возвращает фрагмент инструкции для уровня.
func SeniorityModifier(lvl Seniority) string {
	return seniorityModifiers[ParseSeniority(string(lvl))]
}

// SeniorityLevels возвращает известные уровни в стабильном порядке.
func SeniorityLevels() []Seniority {
	return []Seniority{SeniorityNone, SeniorityMid, SenioritySenior}
}

// ToneKeys возвращает отсортированный список ключей тонов.
func ToneKeys() []string {
	return slices.Sorted(maps.Keys(Tones))
}

// ResolveTone возвращает ключ и инструкцию тона; неизвестный ключ заменяется на rephrase.
func ResolveTone(key string) (string, Tone) {
	k := strings.ToLower(strings.TrimSpace(key))
	if t, ok := Tones[k]; ok {
		return k, t
	}
	return DefaultTone, Tones[DefaultTone]
}
