// Package usage ведёт счётчик успешных замен по дням за последние 30 дней.
package usage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RetentionDays — сколько дней хранится история.
const RetentionDays = 30

// Summary — сводка для вывода пользователю.
type Summary struct {
	Today       int `json:"today"`
	Total30Days int `json:"total_30_days"`
	DaysActive  int `json:"days_active"`
}

// Tracker хранит счётчики в JSON-файле вида {"2025-03-01": 4}.
type Tracker struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewTracker(path string) *Tracker {
	return &Tracker{path: path, now: time.Now}
}

// Record увеличивает счётчик текущего дня и возвращает новое значение.
func (t *Tracker) Record() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := t.cleanup(t.loadLocked())
	today := t.now().Format(time.DateOnly)
	stats[today]++
	if err := t.saveLocked(stats); err != nil {
		return 0, err
	}
	return stats[today], nil
}

// Summary возвращает сводку за период хранения.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := t.cleanup(t.loadLocked())
	s := Summary{Today: stats[t.now().Format(time.DateOnly)], DaysActive: len(stats)}
	for _, n := range stats {
		s.Total30Days += n
	}
	return s
}

// loadLocked читает файл; отсутствующий или повреждённый файл даёт пустую статистику.
func (t *Tracker) loadLocked() map[string]int {
	stats := map[string]int{}
	data, err := os.ReadFile(t.path)
	if err != nil {
		return stats
	}
	if err := json.Unmarshal(data, &stats); err != nil || stats == nil {
		// "null" в файле обнуляет карту
		return map[string]int{}
	}
	return stats
}

func (t *Tracker) saveLocked(stats map[string]int) error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("create stats dir: %w", err)
	}
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(t.path, data, 0o644)
}

// cleanup удаляет записи старше RetentionDays. Даты в формате YYYY-MM-DD сравниваются как строки.
func (t *Tracker) cleanup(stats map[string]int) map[string]int {
	cutoff := t.now().AddDate(0, 0, -RetentionDays).Format(time.DateOnly)
	for day := range stats {
		if day < cutoff {
			delete(stats, day)
		}
	}
	return stats
}
