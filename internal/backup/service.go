// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package backup

import (
	"context"
	"errors"
	"time"
)

// Serve runs scheduled backups every Config.Interval until ctx ends. It
// implements suture.Service, so the maintenance supervisor restarts it if
// it ever panics.
func (m *Manager) Serve(ctx context.Context) error {
	if m.cfg.Interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := m.Create(ctx, TriggerScheduled, nil); err != nil {
				if errors.Is(err, ErrBusy) || ctx.Err() != nil {
					continue
				}
				m.logger.Error().Err(err).Msg("Scheduled backup failed")
			}
		}
	}
}

func (m *Manager) String() string {
	return "scheduled-backup"
}
