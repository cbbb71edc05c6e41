package ledger

import (
	"sort"

	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// ConditionsRecord is one logged conditions entry with its handover key,
// used when persisting or rehydrating a ledger.
type ConditionsRecord struct {
	From domain.Identity
	To   domain.Identity
	At   int64
	TransitConditions
}

// Snapshot is a point-in-time copy of a ledger's full state, safe to hold
// across mutations of the source ledger.
type Snapshot struct {
	Variant    Variant
	AssetID    domain.AssetID
	Origin     Participant
	Authority  domain.Identity
	Handovers  []Handover
	Conditions []ConditionsRecord
}

// Snapshot copies the ledger state for persistence. Conditions are ordered
// by (at, from, to) so snapshots of equal state compare equal.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Snapshot{
		Variant:   l.variant,
		AssetID:   l.assetID,
		Origin:    l.origin,
		Authority: l.authority,
		Handovers: append([]Handover(nil), l.handovers...),
	}
	for k, c := range l.conditions {
		s.Conditions = append(s.Conditions, ConditionsRecord{From: k.From, To: k.To, At: k.At, TransitConditions: c})
	}
	sort.Slice(s.Conditions, func(i, j int) bool {
		a, b := s.Conditions[i], s.Conditions[j]
		if a.At != b.At {
			return a.At < b.At
		}
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})
	return s
}

// Rehydrate rebuilds a ledger from a stored snapshot. The snapshot is
// trusted: it was produced by Snapshot on a ledger that enforced all
// invariants, so only structural sanity is rechecked.
//
// Errors: CodeInternal when the snapshot has no handovers.
func Rehydrate(s Snapshot) (*Ledger, error) {
	if len(s.Handovers) == 0 {
		return nil, dErrors.New(dErrors.CodeInternal, "ledger snapshot has no handovers")
	}
	l := &Ledger{
		variant:    s.Variant,
		assetID:    s.AssetID,
		origin:     s.Origin,
		authority:  s.Authority,
		handovers:  append([]Handover(nil), s.Handovers...),
		conditions: make(map[conditionsKey]TransitConditions, len(s.Conditions)),
	}
	for _, c := range s.Conditions {
		l.conditions[conditionsKey{From: c.From, To: c.To, At: c.At}] = c.TransitConditions
	}
	return l, nil
}
