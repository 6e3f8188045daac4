package store

import (
	"context"
	"log"
)

// AutoMigrate creates the backend schema if it does not exist yet.
func AutoMigrate(ctx context.Context, pool DB) error {
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS pgcrypto`); err != nil {
		log.Printf("store: create pgcrypto: %v", err)
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS events (
          id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          name        TEXT NOT NULL,
          access_code TEXT NOT NULL UNIQUE,
          host_id     uuid,
          created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS participants (
          id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          event_id   uuid NOT NULL REFERENCES events(id) ON DELETE CASCADE,
          name       TEXT NOT NULL,
          created_at TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS playlist_items (
          id            uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          event_id      uuid NOT NULL REFERENCES events(id) ON DELETE CASCADE,
          video_id      TEXT NOT NULL,
          title         TEXT NOT NULL,
          channel_label TEXT NOT NULL DEFAULT '',
          thumbnail_url TEXT,
          added_by      uuid NOT NULL REFERENCES participants(id) ON DELETE CASCADE,
          added_at      TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		return err
	}

	// Canonical playlist order is added_at ascending; keep it indexed.
	if _, err := pool.Exec(ctx, `
      CREATE INDEX IF NOT EXISTS idx_playlist_items_event_added
      ON playlist_items(event_id, added_at, id)
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS polls (
          id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          event_id   uuid NOT NULL REFERENCES events(id) ON DELETE CASCADE,
          question   TEXT NOT NULL,
          created_by uuid NOT NULL REFERENCES participants(id) ON DELETE CASCADE,
          closed     BOOLEAN NOT NULL DEFAULT FALSE,
          created_at TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS poll_options (
          id       uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          poll_id  uuid NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
          label    TEXT NOT NULL,
          position INT NOT NULL
      )
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS poll_votes (
          poll_id        uuid NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
          participant_id uuid NOT NULL REFERENCES participants(id) ON DELETE CASCADE,
          option_id      uuid NOT NULL REFERENCES poll_options(id) ON DELETE CASCADE,
          created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
          PRIMARY KEY (poll_id, participant_id)
      )
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS expenses (
          id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          event_id    uuid NOT NULL REFERENCES events(id) ON DELETE CASCADE,
          payer_id    uuid NOT NULL REFERENCES participants(id) ON DELETE CASCADE,
          label       TEXT NOT NULL,
          amount_cents BIGINT NOT NULL,
          created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS expense_shares (
          expense_id     uuid NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
          participant_id uuid NOT NULL REFERENCES participants(id) ON DELETE CASCADE,
          PRIMARY KEY (expense_id, participant_id)
      )
    `); err != nil {
		return err
	}

	return nil
}
