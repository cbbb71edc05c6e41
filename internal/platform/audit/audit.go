// Package audit captures the custody trail's side-channel events: who
// registered which asset, who handed it over, who logged conditions. Events
// are transport-agnostic; sinks fan them out to whatever backend is wired.
package audit

import (
	"context"
	"time"

	"custodia/pkg/domain"
)

// Action names one auditable custody operation.
type Action string

const (
	ActionAssetRegistered     Action = "asset_registered"
	ActionHandoverRecorded    Action = "handover_recorded"
	ActionConditionsRecorded  Action = "conditions_recorded"
	ActionIdentityRegistered  Action = "identity_registered"
	ActionIdentityDeregister  Action = "identity_deregistered"
	ActionPurchasabilityCheck Action = "purchasability_checked"
)

// Event is one audit record. Timestamp is the request time of the audited
// operation, not the emit time.
type Event struct {
	Action    Action
	AssetID   domain.AssetID
	Actor     domain.Identity
	Subject   domain.Identity
	Timestamp time.Time
	RequestID string
	Detail    string
}

// Sink receives audit events. Implementations decide durability semantics;
// the custody services treat audit as fail-open and log sink errors.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, event Event) error

// Append implements Sink.
func (f SinkFunc) Append(ctx context.Context, event Event) error { return f(ctx, event) }
