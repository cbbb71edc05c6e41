// Package ledger implements the per-asset custody ledger: an append-only
// sequence of handovers plus a side table of transit conditions for carrier
// legs. Mutations are gated by the controlling authority and by
// current-holder checks; all preconditions are validated before any state
// changes, so a failed call leaves the ledger exactly as it was.
package ledger

import (
	"sync"

	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// Ledger is the custody record of a single asset. Create via New; the
// zero value is not usable.
type Ledger struct {
	mu sync.RWMutex

	variant   Variant
	assetID   domain.AssetID
	origin    Participant
	authority domain.Identity

	handovers  []Handover
	conditions map[conditionsKey]TransitConditions
}

// New creates a ledger seeded with handover 0: origin hands the asset to
// its first holder at the given Unix timestamp. The authority identity is
// the only one permitted to mutate the ledger afterwards, normally the
// orchestrator.
//
// Errors: CodeInvalidAsset for an empty asset id; CodeInvalidCategory when
// the first holder's category is not a holder category for the variant.
func New(variant Variant, assetID domain.AssetID, origin domain.Identity, holder domain.Identity, category domain.ParticipantCategory, authority domain.Identity, at int64) (*Ledger, error) {
	if !variant.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown ledger variant %q", variant)
	}
	if assetID.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeInvalidAsset, "given asset id is empty")
	}
	if err := checkHolderCategory(variant, category); err != nil {
		return nil, err
	}

	l := &Ledger{
		variant:    variant,
		assetID:    assetID,
		origin:     Participant{ID: origin, Category: variant.OriginCategory()},
		authority:  authority,
		conditions: make(map[conditionsKey]TransitConditions),
	}
	l.handovers = append(l.handovers, Handover{
		From: l.origin,
		To:   Participant{ID: holder, Category: category},
		At:   at,
	})
	return l, nil
}

// AppendHandover records the transfer of the asset from its current holder
// to a new one. The holder argument is the identity on whose behalf the
// append occurs; the orchestrator passes the calling identity through.
//
// For the parcel variant, cond may carry the transit conditions of the leg
// just completed and is recorded in the same call. For the drug variant
// conditions are logged separately via RecordConditions, and a carrier
// must have logged them for its leg before the asset moves on.
//
// Errors: CodeUnauthorized unless caller is the controlling authority;
// CodeInvalidCategory for a non-holder category; CodeNotCurrentHolder when
// holder is not the last handover's recipient; CodeMissingConditions (drug
// variant) when the last leg was carried and its conditions are unlogged.
func (l *Ledger) AppendHandover(caller, holder, to domain.Identity, category domain.ParticipantCategory, at int64, cond *TransitConditions) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.authority {
		return dErrors.New(dErrors.CodeUnauthorized, "handovers can only be recorded by the controlling authority")
	}
	if err := checkHolderCategory(l.variant, category); err != nil {
		return err
	}

	last := l.handovers[len(l.handovers)-1]
	if holder != last.To.ID {
		return dErrors.New(dErrors.CodeNotCurrentHolder, "handover must be done by the current holder")
	}
	if l.variant == VariantDrug && last.From.Category.IsTransport() {
		if _, ok := l.conditions[keyOf(last)]; !ok {
			return dErrors.New(dErrors.CodeMissingConditions, "transit conditions must be logged before the next handover")
		}
	}
	if cond != nil {
		if l.variant == VariantDrug {
			return dErrors.New(dErrors.CodeBadRequest, "drug item conditions are logged via a separate call")
		}
		if !cond.Category.IsValid() {
			return dErrors.Newf(dErrors.CodeInvalidCategory, "unknown carrier category %q", cond.Category)
		}
	}

	next := Handover{
		From: last.To,
		To:   Participant{ID: to, Category: category},
		At:   at,
	}
	l.handovers = append(l.handovers, next)
	if cond != nil {
		l.conditions[keyOf(next)] = *cond
	}
	return nil
}

// RecordConditions logs the transit conditions of the leg that ended with
// the most recent handover. Only the carrier that completed that leg, the
// `from` side of the last handover, may log, and only for the last
// handover's exact (from, to, at) key. Re-logging the same key overwrites.
//
// Errors: CodeInvalidConditionsTarget when the key is not the last
// handover; CodeUnauthorized when the caller is not the leg's carrier.
func (l *Ledger) RecordConditions(caller, from, to domain.Identity, at int64, temperature int64, category domain.CarrierCategory) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.variant != VariantDrug {
		return dErrors.New(dErrors.CodeBadRequest, "parcel conditions are recorded with the transfer itself")
	}
	if !category.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidCategory, "unknown carrier category %q", category)
	}

	last := l.handovers[len(l.handovers)-1]
	if from != last.From.ID || to != last.To.ID || at != last.At {
		return dErrors.New(dErrors.CodeInvalidConditionsTarget, "transit conditions can be logged only for the last handover")
	}
	if caller != from {
		return dErrors.New(dErrors.CodeUnauthorized, "transit conditions can be logged only by the carrier of the leg")
	}

	l.conditions[keyOf(last)] = TransitConditions{Temperature: temperature, Category: category}
	return nil
}

// Variant returns the ledger's rule set.
func (l *Ledger) Variant() Variant { return l.variant }

// AssetID returns the tracked asset's identifier.
func (l *Ledger) AssetID() domain.AssetID { return l.assetID }

// Origin returns the vendor or producer that registered the asset.
func (l *Ledger) Origin() Participant { return l.origin }

// Authority returns the identity permitted to mutate this ledger.
func (l *Ledger) Authority() domain.Identity { return l.authority }

// HandoverCount returns the number of recorded handovers; at least 1.
func (l *Ledger) HandoverCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.handovers)
}

// HandoverAt returns the handover at the given append index.
//
// Errors: CodeIndexOutOfRange when index is negative or past the end.
func (l *Ledger) HandoverAt(index int) (Handover, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= len(l.handovers) {
		return Handover{}, dErrors.Newf(dErrors.CodeIndexOutOfRange, "handover index %d out of range [0,%d)", index, len(l.handovers))
	}
	return l.handovers[index], nil
}

// LastHandover returns the most recent handover.
func (l *Ledger) LastHandover() Handover {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.handovers[len(l.handovers)-1]
}

// CurrentHolder returns the participant currently holding the asset.
func (l *Ledger) CurrentHolder() Participant {
	return l.LastHandover().To
}

// ConditionsFor returns the logged conditions for the handover keyed by
// (from, to, at), or DefaultConditions when none were logged.
func (l *Ledger) ConditionsFor(from, to domain.Identity, at int64) TransitConditions {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if c, ok := l.conditions[conditionsKey{From: from, To: to, At: at}]; ok {
		return c
	}
	return DefaultConditions
}

func checkHolderCategory(variant Variant, category domain.ParticipantCategory) error {
	if !category.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidCategory, "unknown participant category %q", category)
	}
	if !holderCategories[variant][category] {
		return dErrors.Newf(dErrors.CodeInvalidCategory, "asset cannot be handed over to a %s", category)
	}
	return nil
}
