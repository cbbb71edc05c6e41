package domain

import dErrors "custodia/pkg/domain-errors"

// ParticipantCategory classifies a custody chain participant.
//
// Drug items move between Vendor (origin only), Carrier, and Pharmacy
// participants; generic parcels between Producer (origin only),
// Transporter, and Pharmacy.
type ParticipantCategory string

const (
	CategoryVendor      ParticipantCategory = "vendor"
	CategoryCarrier     ParticipantCategory = "carrier"
	CategoryPharmacy    ParticipantCategory = "pharmacy"
	CategoryProducer    ParticipantCategory = "producer"
	CategoryTransporter ParticipantCategory = "transporter"
)

var validParticipantCategories = map[ParticipantCategory]bool{
	CategoryVendor:      true,
	CategoryCarrier:     true,
	CategoryPharmacy:    true,
	CategoryProducer:    true,
	CategoryTransporter: true,
}

// ParseParticipantCategory constructs a ParticipantCategory from external
// input.
//
// Errors: CodeInvalidCategory when the value is empty or unsupported.
func ParseParticipantCategory(s string) (ParticipantCategory, error) {
	c := ParticipantCategory(s)
	if !validParticipantCategories[c] {
		return "", dErrors.Newf(dErrors.CodeInvalidCategory, "unknown participant category %q", s)
	}
	return c, nil
}

// IsValid checks membership in the supported enum values.
func (c ParticipantCategory) IsValid() bool {
	return validParticipantCategories[c]
}

// IsTransport reports whether the category moves goods between holders.
// Transport legs are the ones subject to condition logging and the
// handover-count and transit-duration purchasability rules.
func (c ParticipantCategory) IsTransport() bool {
	return c == CategoryCarrier || c == CategoryTransporter
}

// String returns the string representation of the category.
func (c ParticipantCategory) String() string { return string(c) }

// CarrierCategory is the transport mode of a carrier leg. NotApplicable is
// the default for legs that were not carried (vendor origins, pharmacies).
type CarrierCategory string

const (
	CarrierNotApplicable CarrierCategory = "not_applicable"
	CarrierTruck         CarrierCategory = "truck"
	CarrierShip          CarrierCategory = "ship"
	CarrierAirplane      CarrierCategory = "airplane"
)

var validCarrierCategories = map[CarrierCategory]bool{
	CarrierNotApplicable: true,
	CarrierTruck:         true,
	CarrierShip:          true,
	CarrierAirplane:      true,
}

// ParseCarrierCategory constructs a CarrierCategory from external input.
//
// Errors: CodeInvalidCategory when the value is empty or unsupported.
func ParseCarrierCategory(s string) (CarrierCategory, error) {
	c := CarrierCategory(s)
	if !validCarrierCategories[c] {
		return "", dErrors.Newf(dErrors.CodeInvalidCategory, "unknown carrier category %q", s)
	}
	return c, nil
}

// IsValid checks membership in the supported enum values.
func (c CarrierCategory) IsValid() bool { return validCarrierCategories[c] }

// String returns the string representation of the category.
func (c CarrierCategory) String() string { return string(c) }
