package episode

import (
	"moltcast/internal/ledger"
	"moltcast/internal/overlap"
)

// PendingSelections reports which posts of episode n are also selected by
// another episode that has not had them recorded in the ledger. Creation
// reads only the ledger, so two unconfirmed episodes can pick the same
// posts; this surfaces that case without changing selection.
func (m *Manager) PendingSelections(n int, led *ledger.Ledger) (overlap.Result, error) {
	meta, err := m.layout.LoadMetadata(n)
	if err != nil {
		return overlap.Result{}, err
	}
	numbers, err := m.layout.Numbers()
	if err != nil {
		return overlap.Result{}, err
	}
	index := overlap.Index{}
	for _, other := range numbers {
		if other == n {
			continue
		}
		otherMeta, err := m.layout.LoadMetadata(other)
		if err != nil {
			continue
		}
		for _, id := range otherMeta.PostIDs {
			if led != nil && led.IsCovered(id) {
				continue
			}
			index[id] = append(index[id], other)
		}
	}
	return overlap.Detect(meta.PostIDs, index), nil
}
