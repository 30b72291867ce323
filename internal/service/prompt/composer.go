// Package prompt разбирает выделенный текст (контекст в скобках, префикс тона)
// и собирает детерминированную системную инструкцию для сервиса переписывания.
package prompt

import (
	"errors"
	"strings"
	"unicode"
)

// ToneDelimiter завершает префикс тона: "formal: текст".
const ToneDelimiter = ':'

// ErrEmptyText — после разбора не осталось текста для переписывания.
var ErrEmptyText = errors.New("no text to rephrase")

// Settings — срез настроек, нужный для сборки запроса.
type Settings struct {
	DefaultTone string
	Seniority   string
	Aliases     map[string]string
}

// Request — результат сборки: системная инструкция и очищенный пользовательский текст.
type Request struct {
	System     string
	UserText   string
	Tone       string
	Seniority  Seniority
	Context    string
	HasContext bool
}

// ParseContext выделяет ведущий сегмент "[...]" с учётом вложенных скобок.
// Пустые скобки "[]" (или только пробелы внутри) означают отсутствие контекста.
// Если парная скобка не найдена, контекста нет и rest == raw.
func ParseContext(raw string) (context string, ok bool, rest string) {
	if !strings.HasPrefix(raw, "[") {
		return "", false, raw
	}
	depth := 0
	for i, r := range raw {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				inner := strings.TrimSpace(raw[1:i])
				rest = strings.TrimLeftFunc(raw[i+1:], unicode.IsSpace)
				if inner == "" {
					return "", false, rest
				}
				return inner, true, rest
			}
		}
	}
	// несбалансированные скобки: деградируем к тексту без контекста
	return "", false, raw
}

// ParseTone ищет в начале raw алиас тона (без учёта регистра), за которым идёт разделитель.
// При совпадении возвращает ключ тона и остаток после разделителя без пробелов по краям,
// иначе defaultTone и raw без изменений.
func ParseTone(raw string, aliases map[string]string, defaultTone string) (tone string, rest string) {
	trimmed := strings.TrimLeftFunc(raw, unicode.IsSpace)
	idx := strings.IndexRune(trimmed, ToneDelimiter)
	if idx <= 0 {
		return defaultTone, raw
	}
	token := strings.ToLower(trimmed[:idx])
	if strings.IndexFunc(token, unicode.IsSpace) >= 0 {
		return defaultTone, raw
	}
	key, ok := aliases[token]
	if !ok {
		// алиасы из файла настроек могут быть записаны вместе с двоеточием
		key, ok = aliases[token+string(ToneDelimiter)]
	}
	if !ok {
		return defaultTone, raw
	}
	return key, strings.TrimSpace(trimmed[idx+1:])
}

// Compose склеивает части инструкции в фиксированном порядке:
// модификатор уровня, инструкция тона, затем блок контекста.
func Compose(toneInstruction, seniorityModifier, context string, hasContext bool) string {
	parts := make([]string, 0, 3)
	if seniorityModifier != "" {
		parts = append(parts, seniorityModifier)
	}
	parts = append(parts, toneInstruction)
	if hasContext {
		parts = append(parts, "Context: "+context)
	}
	return strings.Join(parts, "\n\n")
}

// Build выполняет полный разбор: контекст, затем тон из остатка, затем уровень из настроек.
func Build(raw string, s Settings) (Request, error) {
	aliases := s.Aliases
	if aliases == nil {
		aliases = DefaultAliases()
	}

	ctx, hasCtx, rest := ParseContext(raw)
	toneKey, text := ParseTone(rest, aliases, s.DefaultTone)
	toneKey, tone := ResolveTone(toneKey)

	text = strings.TrimSpace(text)
	if text == "" {
		return Request{}, ErrEmptyText
	}

	lvl := ParseSeniority(s.Seniority)
	return Request{
		System:     Compose(tone.Prompt, SeniorityModifier(lvl), ctx, hasCtx),
		UserText:   text,
		Tone:       toneKey,
		Seniority:  lvl,
		Context:    ctx,
		HasContext: hasCtx,
	}, nil
}
