// Package query — чистые функции чтения над снимком хранилища.
// Одна реализация фильтрации/группировки/сортировки на все вьюхи:
// список, доска, канбан. Никаких побочных эффектов, безопасно гонять
// конкурентно по одному и тому же снимку.
package query

import (
	"sort"
	"strings"

	"compliance-hub/internal/models"
)

// InstanceFilter — любое сочетание критериев; нулевое значение поля
// означает "не фильтровать по нему".
type InstanceFilter struct {
	Status         models.InstanceStatus
	Category       string
	CampaignID     uint
	RequirementID  uint
	StandardID     uint // транзитивно через requirement → standard
	OwnerUserID    uint
	AssigneeUserID uint
	Text           string // подстрока в title/description, без учёта регистра
}

// FilterInstances возвращает новый срез; вход не модифицируется.
// Для фильтра по стандарту нужен снимок соответствия requirement → standard.
func FilterInstances(items []models.TaskInstance, f InstanceFilter, reqStandard map[uint]uint) []models.TaskInstance {
	out := make([]models.TaskInstance, 0, len(items))
	text := strings.ToLower(strings.TrimSpace(f.Text))

	for _, it := range items {
		if f.Status != "" && it.Status != f.Status {
			continue
		}
		if f.Category != "" && it.Category != f.Category {
			continue
		}
		if f.CampaignID != 0 && it.CampaignID != f.CampaignID {
			continue
		}
		if f.RequirementID != 0 && it.RequirementID != f.RequirementID {
			continue
		}
		if f.StandardID != 0 && reqStandard[it.RequirementID] != f.StandardID {
			continue
		}
		if f.OwnerUserID != 0 && it.OwnerUserID != f.OwnerUserID {
			continue
		}
		if f.AssigneeUserID != 0 && it.AssigneeUserID != f.AssigneeUserID {
			continue
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(it.Title), text) &&
			!strings.Contains(strings.ToLower(it.Description), text) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// GroupByCategory — для библиотеки/доски. Пустая категория попадает
// в "Uncategorized", ключ никогда не пустой.
func GroupByCategory(items []models.TaskInstance) map[string][]models.TaskInstance {
	groups := make(map[string][]models.TaskInstance)
	for _, it := range items {
		key := it.Category
		if key == "" {
			key = "Uncategorized"
		}
		groups[key] = append(groups[key], it)
	}
	return groups
}

// GroupByStatus — колонки канбана. Пустой статус считается Open.
func GroupByStatus(items []models.TaskInstance) map[models.InstanceStatus][]models.TaskInstance {
	groups := make(map[models.InstanceStatus][]models.TaskInstance)
	for _, it := range items {
		key := it.Status
		if key == "" {
			key = models.InstanceOpen
		}
		groups[key] = append(groups[key], it)
	}
	return groups
}

type SortKey string

const (
	SortByTitle        SortKey = "title"
	SortByDueDate      SortKey = "dueDate"
	SortByCampaignName SortKey = "campaignName"
)

// SortInstances — стабильная сортировка с разрешением ничьих по id,
// чтобы пагинация была детерминированной. Вход не модифицируется.
// Для сортировки по имени кампании нужен снимок campaign id → name.
func SortInstances(items []models.TaskInstance, key SortKey, campaignNames map[uint]string) []models.TaskInstance {
	out := make([]models.TaskInstance, len(items))
	copy(out, items)

	less := func(a, b *models.TaskInstance) bool {
		switch key {
		case SortByDueDate:
			// задачи без срока в конце
			switch {
			case a.DueDate == nil && b.DueDate == nil:
			case a.DueDate == nil:
				return false
			case b.DueDate == nil:
				return true
			case !a.DueDate.Equal(*b.DueDate):
				return a.DueDate.Before(*b.DueDate)
			}
		case SortByCampaignName:
			an, bn := campaignNames[a.CampaignID], campaignNames[b.CampaignID]
			if an != bn {
				return an < bn
			}
		default: // title
			at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if at != bt {
				return at < bt
			}
		}
		return a.ID < b.ID
	}

	sort.SliceStable(out, func(i, j int) bool { return less(&out[i], &out[j]) })
	return out
}

// CountByStatus — сводка для шапок досок.
func CountByStatus(items []models.TaskInstance) map[models.InstanceStatus]int {
	counts := make(map[models.InstanceStatus]int)
	for _, it := range items {
		key := it.Status
		if key == "" {
			key = models.InstanceOpen
		}
		counts[key]++
	}
	return counts
}
