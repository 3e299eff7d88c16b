package workers

import (
	"context"

	"github.com/MKhiriev/go-drive-pool/internal/config"
	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/internal/service"
)

type Workers struct {
	workers []Worker
}

// NewWorkers builds every background worker of the server.
func NewWorkers(services *service.Services, cfg config.Workers, log *logger.Logger) *Workers {
	return &Workers{workers: []Worker{
		NewQuotaSyncWorker(services.AccountService, cfg.QuotaSyncInterval, log),
	}}
}

func (w *Workers) Run(ctx context.Context) {
	for _, worker := range w.workers {
		worker.Start(ctx)
	}
}

// Stop stops the workers in reverse start order.
func (w *Workers) Stop() {
	for i := len(w.workers) - 1; i >= 0; i-- {
		w.workers[i].Stop()
	}
}
