package ledger

import "custodia/pkg/domain"

// Variant selects the rule set a ledger enforces.
type Variant string

const (
	// VariantDrug tracks pharmaceutical items: Vendor origin, Carrier and
	// Pharmacy holders, mandatory transit-condition logging for carrier legs.
	VariantDrug Variant = "drug"
	// VariantParcel tracks generic packages: Producer origin, Transporter
	// and Pharmacy holders, optional inline transit conditions.
	VariantParcel Variant = "parcel"
)

// IsValid checks membership in the supported variants.
func (v Variant) IsValid() bool { return v == VariantDrug || v == VariantParcel }

// OriginCategory is the participant category of the asset's first holder
// on the `from` side of handover 0.
func (v Variant) OriginCategory() domain.ParticipantCategory {
	if v == VariantParcel {
		return domain.CategoryProducer
	}
	return domain.CategoryVendor
}

// holderCategories lists the categories an asset may be handed over TO,
// per variant. Origin categories are deliberately absent: an asset is never
// handed back to its vendor or producer.
var holderCategories = map[Variant]map[domain.ParticipantCategory]bool{
	VariantDrug: {
		domain.CategoryCarrier:  true,
		domain.CategoryPharmacy: true,
	},
	VariantParcel: {
		domain.CategoryTransporter: true,
		domain.CategoryPharmacy:    true,
	},
}

// Participant is an identity paired with its category in the chain.
type Participant struct {
	ID       domain.Identity
	Category domain.ParticipantCategory
}

// Handover is one custody transfer. Immutable once appended; At is a
// caller-supplied Unix timestamp in seconds.
type Handover struct {
	From Participant
	To   Participant
	At   int64
}

// TransitConditions are the logged environmental conditions of one carrier
// leg: the temperature held during transport and the transport mode.
type TransitConditions struct {
	Temperature int64
	Category    domain.CarrierCategory
}

// DefaultConditions is returned for legs that were not carried, or carried
// legs whose conditions have not been logged yet.
var DefaultConditions = TransitConditions{Temperature: 0, Category: domain.CarrierNotApplicable}

// conditionsKey ties a conditions record to exactly one handover.
type conditionsKey struct {
	From domain.Identity
	To   domain.Identity
	At   int64
}

func keyOf(h Handover) conditionsKey {
	return conditionsKey{From: h.From.ID, To: h.To.ID, At: h.At}
}
