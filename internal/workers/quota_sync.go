// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/internal/service"
)

// QuotaSyncWorker periodically refreshes the total quota of every active
// account from the provider. Used storage is left to the capacity ledger.
type QuotaSyncWorker struct {
	accounts AccountSyncer
	interval time.Duration
	logger   *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQuotaSyncWorker creates an idle worker. A non-positive interval disables
// it: Start then does nothing.
func NewQuotaSyncWorker(accounts AccountSyncer, interval time.Duration, log *logger.Logger) *QuotaSyncWorker {
	return &QuotaSyncWorker{
		accounts: accounts,
		interval: interval,
		logger:   &logger.Logger{Logger: log.With().Str("worker", "quota_sync").Logger()},
	}
}

// Start stops any previous run, then syncs on every tick until ctx is
// cancelled or Stop is called.
func (w *QuotaSyncWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Info().Msg("quota sync disabled")
		return
	}

	w.Stop()

	w.mu.Lock()
	jobCtx, cancel := context.WithCancel(w.logger.WithContext(ctx))
	w.cancel = cancel
	w.wg.Add(1)
	w.mu.Unlock()

	w.logger.Info().Dur("interval", w.interval).Msg("quota sync started")

	go func() {
		defer w.wg.Done()
		t := time.NewTicker(w.interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				w.SyncOnce(jobCtx)
			}
		}
	}()
}

// Stop cancels the running loop and waits for it to exit.
func (w *QuotaSyncWorker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

// SyncOnce runs one pass over all active accounts and reports how many were
// synced without error. A failing account does not stop the pass.
func (w *QuotaSyncWorker) SyncOnce(ctx context.Context) int {
	accounts, err := w.accounts.ListAllActive(ctx)
	if err != nil {
		w.logger.Err(err).Msg("could not list accounts for quota sync")
		return 0
	}

	synced := 0
	for _, account := range accounts {
		if ctx.Err() != nil {
			break
		}

		err = w.accounts.SyncQuota(ctx, account)
		switch {
		case err == nil:
			synced++
		case errors.Is(err, service.ErrReauthorizationRequired):
			w.logger.Warn().Err(err).Int64("account_id", account.ID).Msg("account needs to be linked again")
		default:
			w.logger.Err(err).Int64("account_id", account.ID).Msg("quota sync failed")
		}
	}

	w.logger.Debug().Int("accounts", len(accounts)).Int("synced", synced).Msg("quota sync pass finished")
	return synced
}
