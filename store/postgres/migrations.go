package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Junction store.
var Migrations = migrate.NewGroup("junction")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_junction_accounts",
			Version: "20250301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS junction_accounts (
    id                       TEXT PRIMARY KEY,
    name                     TEXT NOT NULL DEFAULT '',
    currency                 TEXT NOT NULL DEFAULT '',
    bill_cycle_day_local     INT NOT NULL DEFAULT 0,
    time_zone                TEXT NOT NULL DEFAULT '',
    auto_invoice_off         BOOLEAN NOT NULL DEFAULT FALSE,
    auto_invoice_draft       BOOLEAN NOT NULL DEFAULT FALSE,
    auto_invoice_reuse_draft BOOLEAN NOT NULL DEFAULT FALSE,
    auto_invoice_off_bundles JSONB NOT NULL DEFAULT '[]',
    created_at               TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at               TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS junction_accounts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_junction_subscriptions",
			Version: "20250301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS junction_subscriptions (
    id         TEXT PRIMARY KEY,
    account_id TEXT NOT NULL,
    bundle_id  TEXT NOT NULL,
    category   TEXT NOT NULL DEFAULT 'base',
    start_date TIMESTAMPTZ NOT NULL,
    end_date   TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_junction_subs_account ON junction_subscriptions (account_id);
CREATE INDEX IF NOT EXISTS idx_junction_subs_bundle ON junction_subscriptions (bundle_id, start_date);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS junction_subscriptions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_junction_transitions",
			Version: "20250301000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS junction_transitions (
    id              TEXT PRIMARY KEY,
    subscription_id TEXT NOT NULL REFERENCES junction_subscriptions (id),
    type            TEXT NOT NULL,
    effective_date  TIMESTAMPTZ NOT NULL,
    prev_plan       TEXT NOT NULL DEFAULT '',
    prev_phase      TEXT NOT NULL DEFAULT '',
    next_plan       TEXT NOT NULL DEFAULT '',
    next_phase      TEXT NOT NULL DEFAULT '',
    total_ordering  BIGINT NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_junction_tx_sub_date ON junction_transitions (subscription_id, effective_date, total_ordering);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS junction_transitions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_junction_blocking_states",
			Version: "20250301000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS junction_blocking_states (
    id                TEXT PRIMARY KEY,
    account_id        TEXT NOT NULL,
    blocked_id        TEXT NOT NULL,
    scope             TEXT NOT NULL,
    state_name        TEXT NOT NULL DEFAULT '',
    service           TEXT NOT NULL DEFAULT '',
    block_change      BOOLEAN NOT NULL DEFAULT FALSE,
    block_entitlement BOOLEAN NOT NULL DEFAULT FALSE,
    block_billing     BOOLEAN NOT NULL DEFAULT FALSE,
    effective_date    TIMESTAMPTZ NOT NULL,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_junction_blk_account ON junction_blocking_states (account_id, effective_date, created_at);
CREATE INDEX IF NOT EXISTS idx_junction_blk_blocked ON junction_blocking_states (blocked_id, effective_date, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS junction_blocking_states`)
				return err
			},
		},
	)
}
