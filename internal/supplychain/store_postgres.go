package supplychain

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"custodia/internal/ledger"
	"custodia/pkg/domain"
)

// PostgresIndex persists the asset index and each ledger's records in
// PostgreSQL while serving reads from live ledger instances. The tables
// form an append-only log: handover rows are keyed by (asset_id, idx) and
// are never updated or deleted; conditions rows are upserted per leg key,
// matching the overwrite semantics of condition logging.
//
// Schema:
//
//	CREATE TABLE custody_assets (
//	    asset_id        BYTEA PRIMARY KEY,
//	    variant         TEXT NOT NULL,
//	    origin_id       TEXT NOT NULL,
//	    origin_category TEXT NOT NULL,
//	    authority       TEXT NOT NULL
//	);
//	CREATE TABLE custody_handovers (
//	    asset_id      BYTEA NOT NULL REFERENCES custody_assets(asset_id),
//	    idx           INT   NOT NULL,
//	    from_id       TEXT  NOT NULL,
//	    from_category TEXT  NOT NULL,
//	    to_id         TEXT  NOT NULL,
//	    to_category   TEXT  NOT NULL,
//	    at            BIGINT NOT NULL,
//	    PRIMARY KEY (asset_id, idx)
//	);
//	CREATE TABLE custody_conditions (
//	    asset_id         BYTEA NOT NULL REFERENCES custody_assets(asset_id),
//	    from_id          TEXT  NOT NULL,
//	    to_id            TEXT  NOT NULL,
//	    at               BIGINT NOT NULL,
//	    temperature      BIGINT NOT NULL,
//	    carrier_category TEXT  NOT NULL,
//	    PRIMARY KEY (asset_id, from_id, to_id, at)
//	);
type PostgresIndex struct {
	db *sql.DB

	mu   sync.RWMutex
	live map[domain.AssetID]*ledger.Ledger
}

// NewPostgresIndex constructs a PostgreSQL-backed asset index.
func NewPostgresIndex(db *sql.DB) *PostgresIndex {
	return &PostgresIndex{db: db, live: make(map[domain.AssetID]*ledger.Ledger)}
}

// Add implements Index: one transaction inserts the asset row and every
// record of the freshly created ledger.
func (s *PostgresIndex) Add(ctx context.Context, l *ledger.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.live[l.AssetID()]; exists {
		return ErrDuplicateAsset
	}

	snap := l.Snapshot()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin asset insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO custody_assets (asset_id, variant, origin_id, origin_category, authority)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (asset_id) DO NOTHING`,
		[]byte(snap.AssetID), string(snap.Variant),
		snap.Origin.ID.String(), snap.Origin.Category.String(),
		snap.Authority.String(),
	)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrDuplicateAsset
	}
	if err := appendRecords(ctx, tx, snap, 0); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit asset insert: %w", err)
	}

	s.live[l.AssetID()] = l
	return nil
}

// Get implements Index, rehydrating from the tables when the process has
// no live instance for the asset.
func (s *PostgresIndex) Get(ctx context.Context, assetID domain.AssetID) (*ledger.Ledger, error) {
	s.mu.RLock()
	l, ok := s.live[assetID]
	s.mu.RUnlock()
	if ok {
		return l, nil
	}

	snap, err := s.loadSnapshot(ctx, assetID)
	if err != nil {
		return nil, err
	}
	l, err = ledger.Rehydrate(snap)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.live[assetID]; ok {
		return existing, nil
	}
	s.live[assetID] = l
	return l, nil
}

// Sync implements Index: appends handover rows not yet persisted and
// upserts all condition records. Idempotent via the primary keys.
func (s *PostgresIndex) Sync(ctx context.Context, l *ledger.Ledger) error {
	snap := l.Snapshot()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger sync: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := appendRecords(ctx, tx, snap, 0); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger sync: %w", err)
	}
	return nil
}

func appendRecords(ctx context.Context, tx *sql.Tx, snap ledger.Snapshot, fromIdx int) error {
	for i := fromIdx; i < len(snap.Handovers); i++ {
		h := snap.Handovers[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO custody_handovers (asset_id, idx, from_id, from_category, to_id, to_category, at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (asset_id, idx) DO NOTHING`,
			[]byte(snap.AssetID), i,
			h.From.ID.String(), h.From.Category.String(),
			h.To.ID.String(), h.To.Category.String(),
			h.At,
		)
		if err != nil {
			return fmt.Errorf("insert handover %d: %w", i, err)
		}
	}
	for _, c := range snap.Conditions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO custody_conditions (asset_id, from_id, to_id, at, temperature, carrier_category)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (asset_id, from_id, to_id, at)
			DO UPDATE SET temperature = EXCLUDED.temperature, carrier_category = EXCLUDED.carrier_category`,
			[]byte(snap.AssetID), c.From.String(), c.To.String(), c.At,
			c.Temperature, c.Category.String(),
		)
		if err != nil {
			return fmt.Errorf("upsert conditions: %w", err)
		}
	}
	return nil
}

func (s *PostgresIndex) loadSnapshot(ctx context.Context, assetID domain.AssetID) (ledger.Snapshot, error) {
	var snap ledger.Snapshot

	var variant, originID, originCategory, authority string
	err := s.db.QueryRowContext(ctx, `
		SELECT variant, origin_id, origin_category, authority
		FROM custody_assets WHERE asset_id = $1`,
		[]byte(assetID),
	).Scan(&variant, &originID, &originCategory, &authority)
	if err == sql.ErrNoRows {
		return snap, ErrUnknownAsset
	}
	if err != nil {
		return snap, fmt.Errorf("load asset: %w", err)
	}
	snap.AssetID = assetID
	snap.Variant = ledger.Variant(variant)
	snap.Origin = ledger.Participant{
		ID:       domain.Identity(originID),
		Category: domain.ParticipantCategory(originCategory),
	}
	snap.Authority = domain.Identity(authority)

	rows, err := s.db.QueryContext(ctx, `
		SELECT from_id, from_category, to_id, to_category, at
		FROM custody_handovers WHERE asset_id = $1 ORDER BY idx`,
		[]byte(assetID),
	)
	if err != nil {
		return snap, fmt.Errorf("load handovers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var fromID, fromCat, toID, toCat string
		var at int64
		if err := rows.Scan(&fromID, &fromCat, &toID, &toCat, &at); err != nil {
			return snap, fmt.Errorf("scan handover: %w", err)
		}
		snap.Handovers = append(snap.Handovers, ledger.Handover{
			From: ledger.Participant{ID: domain.Identity(fromID), Category: domain.ParticipantCategory(fromCat)},
			To:   ledger.Participant{ID: domain.Identity(toID), Category: domain.ParticipantCategory(toCat)},
			At:   at,
		})
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterate handovers: %w", err)
	}

	condRows, err := s.db.QueryContext(ctx, `
		SELECT from_id, to_id, at, temperature, carrier_category
		FROM custody_conditions WHERE asset_id = $1`,
		[]byte(assetID),
	)
	if err != nil {
		return snap, fmt.Errorf("load conditions: %w", err)
	}
	defer condRows.Close()
	for condRows.Next() {
		var fromID, toID, carrierCat string
		var at, temperature int64
		if err := condRows.Scan(&fromID, &toID, &at, &temperature, &carrierCat); err != nil {
			return snap, fmt.Errorf("scan conditions: %w", err)
		}
		snap.Conditions = append(snap.Conditions, ledger.ConditionsRecord{
			From: domain.Identity(fromID),
			To:   domain.Identity(toID),
			At:   at,
			TransitConditions: ledger.TransitConditions{
				Temperature: temperature,
				Category:    domain.CarrierCategory(carrierCat),
			},
		})
	}
	if err := condRows.Err(); err != nil {
		return snap, fmt.Errorf("iterate conditions: %w", err)
	}
	return snap, nil
}
