// Package supplychain implements the orchestrator: it authorizes first
// handovers against the identity registries, owns the asset index, and
// forwards subsequent operations to the matching custody ledger.
package supplychain

import (
	"context"
	"errors"
	"log/slog"

	"custodia/internal/ledger"
	"custodia/internal/platform/audit"
	"custodia/internal/purchasability"
	"custodia/internal/purchasability/cache"
	"custodia/internal/registry"
	scmetrics "custodia/internal/supplychain/metrics"
	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/requestcontext"
)

// Service is the supply chain orchestrator. It is the controlling
// authority of every ledger it creates: participants never mutate a
// ledger directly, they call the orchestrator which enforces who may act.
type Service struct {
	identity  domain.Identity
	vendors   *registry.Registry
	producers *registry.Registry
	assets    Index

	logger   *slog.Logger
	metrics  *scmetrics.Metrics
	auditor  audit.Sink
	verdicts *cache.Verdicts
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches the orchestrator metrics.
func WithMetrics(m *scmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAuditor attaches an audit sink for custody events.
func WithAuditor(sink audit.Sink) Option {
	return func(s *Service) { s.auditor = sink }
}

// WithVerdictCache attaches the purchasability verdict cache.
func WithVerdictCache(v *cache.Verdicts) Option {
	return func(s *Service) { s.verdicts = v }
}

// New creates the orchestrator. identity is the service's own authority
// identity; vendors gates drug-item registration and producers gates
// parcel registration.
func New(identity domain.Identity, vendors, producers *registry.Registry, assets Index, opts ...Option) (*Service, error) {
	if identity.IsZero() {
		return nil, errors.New("orchestrator identity is required")
	}
	if vendors == nil || producers == nil {
		return nil, errors.New("vendor and producer registries are required")
	}
	if assets == nil {
		return nil, errors.New("asset index is required")
	}
	s := &Service{
		identity:  identity,
		vendors:   vendors,
		producers: producers,
		assets:    assets,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Identity returns the orchestrator's authority identity.
func (s *Service) Identity() domain.Identity { return s.identity }

// Vendors returns the drug-item origin registry.
func (s *Service) Vendors() *registry.Registry { return s.vendors }

// Producers returns the parcel origin registry.
func (s *Service) Producers() *registry.Registry { return s.producers }

// RegisterInitialHandover creates a custody ledger for a new asset and
// records handover 0 from the caller to the first holder. The caller must
// be active in the variant's origin registry.
//
// Errors: CodeUnauthorized for callers not on the allow-list;
// CodeDuplicateAsset when the id is already indexed; plus ledger creation
// errors (CodeInvalidAsset, CodeInvalidCategory).
func (s *Service) RegisterInitialHandover(ctx context.Context, caller domain.Identity, variant ledger.Variant, assetID domain.AssetID, to domain.Identity, category domain.ParticipantCategory) (*ledger.Ledger, error) {
	reg, err := s.originRegistry(variant)
	if err != nil {
		return nil, err
	}
	active, err := reg.IsActive(ctx, caller)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "registry lookup failed")
	}
	if !active {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller is not a registered origin for this asset variant")
	}

	at := requestcontext.Now(ctx).Unix()
	l, err := ledger.New(variant, assetID, caller, to, category, s.identity, at)
	if err != nil {
		return nil, err
	}
	if err := s.assets.Add(ctx, l); err != nil {
		return nil, err
	}

	s.metrics.IncAssetsRegistered(string(variant))
	s.emitAudit(ctx, audit.Event{
		Action:  audit.ActionAssetRegistered,
		AssetID: assetID,
		Actor:   caller,
		Subject: to,
	})
	return l, nil
}

// RegisterHandover appends a handover to an indexed asset's ledger. The
// calling identity is passed through as the current-holder check: only the
// chain's current holder may move the asset on.
//
// Errors: CodeUnknownAsset for unindexed ids, plus ledger append errors.
func (s *Service) RegisterHandover(ctx context.Context, caller domain.Identity, assetID domain.AssetID, to domain.Identity, category domain.ParticipantCategory, cond *ledger.TransitConditions) error {
	l, err := s.assets.Get(ctx, assetID)
	if err != nil {
		return err
	}

	at := requestcontext.Now(ctx).Unix()
	if err := l.AppendHandover(s.identity, caller, to, category, at, cond); err != nil {
		return err
	}
	if err := s.assets.Sync(ctx, l); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "persist handover")
	}

	s.metrics.IncHandoversRecorded()
	if cond != nil {
		s.metrics.IncConditionsRecorded()
	}
	s.emitAudit(ctx, audit.Event{
		Action:  audit.ActionHandoverRecorded,
		AssetID: assetID,
		Actor:   caller,
		Subject: to,
	})
	return nil
}

// RecordConditions logs transit conditions for a drug item's most recent
// handover on behalf of the carrier that completed the leg.
//
// Errors: CodeUnknownAsset for unindexed ids, plus ledger errors
// (CodeInvalidConditionsTarget, CodeUnauthorized, CodeInvalidCategory).
func (s *Service) RecordConditions(ctx context.Context, caller domain.Identity, assetID domain.AssetID, from, to domain.Identity, at int64, temperature int64, category domain.CarrierCategory) error {
	l, err := s.assets.Get(ctx, assetID)
	if err != nil {
		return err
	}
	if err := l.RecordConditions(caller, from, to, at, temperature, category); err != nil {
		return err
	}
	if err := s.assets.Sync(ctx, l); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "persist conditions")
	}

	s.metrics.IncConditionsRecorded()
	s.emitAudit(ctx, audit.Event{
		Action:  audit.ActionConditionsRecorded,
		AssetID: assetID,
		Actor:   caller,
		Subject: to,
	})
	return nil
}

// IsPurchasable evaluates the asset's full custody history against the
// compliance rules. Results are cached per (asset, handover count) when a
// verdict cache is wired; cache failures fall through to evaluation.
//
// Errors: CodeUnknownAsset for unindexed ids.
func (s *Service) IsPurchasable(ctx context.Context, assetID domain.AssetID) (purchasability.Verdict, error) {
	l, err := s.assets.Get(ctx, assetID)
	if err != nil {
		return purchasability.Verdict{}, err
	}

	count := l.HandoverCount()
	if verdict, hit, err := s.verdicts.Get(ctx, assetID, count); err == nil && hit {
		s.metrics.IncVerdictCacheHits()
		return verdict, nil
	} else if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "verdict cache read failed", "asset_id", assetID.Hex(), "error", err)
	}

	verdict := purchasability.Evaluate(l)
	if verdict[0] == purchasability.ValidForPurchase {
		s.metrics.IncPurchasabilityChecks("valid")
	} else {
		s.metrics.IncPurchasabilityChecks("rejected")
	}
	if err := s.verdicts.Set(ctx, assetID, count, verdict); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "verdict cache write failed", "asset_id", assetID.Hex(), "error", err)
	}
	return verdict, nil
}

// Lookup returns the ledger owning the asset id.
//
// Errors: CodeUnknownAsset for unindexed ids.
func (s *Service) Lookup(ctx context.Context, assetID domain.AssetID) (*ledger.Ledger, error) {
	return s.assets.Get(ctx, assetID)
}

// AssetInfo is the summary view of an asset's current custody state.
type AssetInfo struct {
	AssetID        domain.AssetID
	Variant        ledger.Variant
	Origin         ledger.Participant
	CurrentHolder  ledger.Participant
	HandoverCount  int
	LastHandoverAt int64
}

// Info returns the summary view of an indexed asset.
//
// Errors: CodeUnknownAsset for unindexed ids.
func (s *Service) Info(ctx context.Context, assetID domain.AssetID) (AssetInfo, error) {
	l, err := s.assets.Get(ctx, assetID)
	if err != nil {
		return AssetInfo{}, err
	}
	last := l.LastHandover()
	return AssetInfo{
		AssetID:        l.AssetID(),
		Variant:        l.Variant(),
		Origin:         l.Origin(),
		CurrentHolder:  last.To,
		HandoverCount:  l.HandoverCount(),
		LastHandoverAt: last.At,
	}, nil
}

func (s *Service) originRegistry(variant ledger.Variant) (*registry.Registry, error) {
	switch variant {
	case ledger.VariantDrug:
		return s.vendors, nil
	case ledger.VariantParcel:
		return s.producers, nil
	default:
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown ledger variant %q", variant)
	}
}

// emitAudit is fail-open: the ledger itself is the authoritative custody
// record, so a broken audit sink must not block operations.
func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditor.Append(ctx, event); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "audit append failed",
			"action", string(event.Action),
			"asset_id", event.AssetID.Hex(),
			"error", err,
		)
	}
}
