// Package purchasability evaluates an asset's full custody history against
// the compliance rules and produces the fixed-length verdict array.
//
// Evaluate is a pure function of a committed ledger state: it reads the
// handover log and the transit conditions, mutates nothing, and returns the
// same verdict for the same state.
package purchasability

import (
	"custodia/internal/ledger"
	"custodia/pkg/domain"
)

// Code is one purchasability outcome.
type Code uint16

const (
	// ValidForPurchase is emitted alone when no rejection rule fires and
	// the asset rests with a pharmacy.
	ValidForPurchase Code = 100
	// NotInPharmacy: the current holder is not a pharmacy.
	NotInPharmacy Code = 200
	// TooManyHandovers: more than two carrier-to-carrier legs in the chain.
	TooManyHandovers Code = 201
	// TemperatureTooHigh: a carried leg exceeded its mode's temperature ceiling.
	TemperatureTooHigh Code = 202
	// TemperatureTooLow: a carried leg went below the global floor.
	TemperatureTooLow Code = 203
	// TotalTransitDurationTooLong: first to last handover spans more than 8 days.
	TotalTransitDurationTooLong Code = 204
	// SingleTransitDurationTooLong: one leg exceeded its mode's duration limit.
	SingleTransitDurationTooLong Code = 205
)

// VerdictLength is the fixed size of the outcome array. Emitted codes fill
// the leading slots in rule order; the rest stay 0. Callers rely on the
// positions, not just membership.
const VerdictLength = 10

// Verdict is the fixed-length, order-significant outcome array.
type Verdict [VerdictLength]Code

// Codes returns the emitted codes without the zero padding.
func (v Verdict) Codes() []Code {
	out := make([]Code, 0, VerdictLength)
	for _, c := range v {
		if c == 0 {
			break
		}
		out = append(out, c)
	}
	return out
}

const (
	maxCarrierToCarrierLegs = 2

	temperatureFloor          = -22
	surfaceTemperatureCeiling = -18 // truck and ship
	airTemperatureCeiling     = -10

	day                  = int64(24 * 60 * 60)
	maxTotalTransit      = 8 * day
	maxSurfaceLegTransit = 4 * day
	maxAirLegTransit     = 1 * day
)

// History is the read surface Evaluate needs from a custody ledger.
type History interface {
	HandoverCount() int
	HandoverAt(index int) (ledger.Handover, error)
	ConditionsFor(from, to domain.Identity, at int64) ledger.TransitConditions
}

// Evaluate inspects the full custody history and returns the verdict.
// Every rule is checked independently against the whole chain; all firing
// rejection codes are emitted in rule order. Only when none fire does the
// verdict carry ValidForPurchase in slot 0.
func Evaluate(h History) Verdict {
	handovers := make([]ledger.Handover, h.HandoverCount())
	for i := range handovers {
		ho, err := h.HandoverAt(i)
		if err != nil {
			// Count and index come from the same committed state; a gap
			// means the History implementation is broken, not the chain.
			continue
		}
		handovers[i] = ho
	}

	var verdict Verdict
	slot := 0
	emit := func(c Code) {
		if slot < VerdictLength {
			verdict[slot] = c
			slot++
		}
	}

	last := handovers[len(handovers)-1]
	if last.To.Category != domain.CategoryPharmacy {
		emit(NotInPharmacy)
	}
	if carrierToCarrierLegs(handovers) > maxCarrierToCarrierLegs {
		emit(TooManyHandovers)
	}
	if anyLegCondition(h, handovers, tooWarm) {
		emit(TemperatureTooHigh)
	}
	if anyLegCondition(h, handovers, tooCold) {
		emit(TemperatureTooLow)
	}
	if last.At-handovers[0].At > maxTotalTransit {
		emit(TotalTransitDurationTooLong)
	}
	if anyLegTooSlow(h, handovers) {
		emit(SingleTransitDurationTooLong)
	}

	if slot == 0 {
		verdict[0] = ValidForPurchase
	}
	return verdict
}

func carrierToCarrierLegs(handovers []ledger.Handover) int {
	n := 0
	for _, h := range handovers {
		if h.From.Category.IsTransport() && h.To.Category.IsTransport() {
			n++
		}
	}
	return n
}

// anyLegCondition applies pred to the logged conditions of every carried
// leg: a handover whose origin participant is a carrier, keyed by that
// handover. Legs without logged conditions carry the NotApplicable default
// and are skipped by the temperature predicates.
func anyLegCondition(h History, handovers []ledger.Handover, pred func(ledger.TransitConditions) bool) bool {
	for _, ho := range handovers {
		if !ho.From.Category.IsTransport() {
			continue
		}
		if pred(h.ConditionsFor(ho.From.ID, ho.To.ID, ho.At)) {
			return true
		}
	}
	return false
}

func tooWarm(c ledger.TransitConditions) bool {
	switch c.Category {
	case domain.CarrierTruck, domain.CarrierShip:
		return c.Temperature > surfaceTemperatureCeiling
	case domain.CarrierAirplane:
		return c.Temperature > airTemperatureCeiling
	default:
		return false
	}
}

func tooCold(c ledger.TransitConditions) bool {
	if c.Category == domain.CarrierNotApplicable {
		return false
	}
	return c.Temperature < temperatureFloor
}

// anyLegTooSlow checks each leg's duration, the time between consecutive
// handovers, against the limit of the transport mode logged for the
// handover that ended the leg.
func anyLegTooSlow(h History, handovers []ledger.Handover) bool {
	for i := 1; i < len(handovers); i++ {
		ho := handovers[i]
		if !ho.From.Category.IsTransport() {
			continue
		}
		duration := ho.At - handovers[i-1].At
		switch h.ConditionsFor(ho.From.ID, ho.To.ID, ho.At).Category {
		case domain.CarrierTruck, domain.CarrierShip:
			if duration > maxSurfaceLegTransit {
				return true
			}
		case domain.CarrierAirplane:
			if duration > maxAirLegTransit {
				return true
			}
		}
	}
	return false
}
