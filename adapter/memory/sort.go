package memory

import (
	"slices"

	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// sort orders entities by sorts in place. Missing fields sort first, as nil
// does. The sort is stable, so entities with equal keys keep insertion order.
func (m *Manager) sort(entities []*domain.Entity, sorts []domain.Sort) error {
	if len(sorts) == 0 {
		return nil
	}
	var sortErr error
	slices.SortStableFunc(entities, func(a, b *domain.Entity) int {
		for _, s := range sorts {
			comp, err := m.comparer.Compare(m.sortKey(a, s.Name), m.sortKey(b, s.Name))
			if err != nil {
				if sortErr == nil {
					sortErr = err
				}
				return 0
			}
			if s.Order == domain.Desc {
				comp = -comp
			}
			if comp != 0 {
				return comp
			}
		}
		return 0
	})
	return sortErr
}

func (m *Manager) sortKey(e *domain.Entity, path string) any {
	values, ok := m.fieldNavigator.GetField(e, path)
	if !ok || len(values) == 0 {
		return nil
	}
	return values[0]
}
