package monitoring

import (
	"context"
	"time"

	"stagecast/internal/core/services"

	"go.uber.org/zap"
)

// StatusLogger periodically logs a one-line summary per live room and
// refreshes the prometheus room gauges. Observability only.
type StatusLogger struct {
	registry  *services.Registry
	pool      *services.WorkerPool
	collector *PrometheusCollector
	interval  time.Duration
	logger    *zap.SugaredLogger
}

func NewStatusLogger(registry *services.Registry, pool *services.WorkerPool, collector *PrometheusCollector, interval time.Duration, logger *zap.SugaredLogger) *StatusLogger {
	return &StatusLogger{
		registry:  registry,
		pool:      pool,
		collector: collector,
		interval:  interval,
		logger:    logger,
	}
}

// Run blocks until ctx is cancelled.
func (s *StatusLogger) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *StatusLogger) tick() {
	rooms := s.registry.Rooms()
	statuses := make([]services.Status, 0, len(rooms))
	for _, room := range rooms {
		st := room.Status()
		statuses = append(statuses, st)
		s.logger.Infow("room status",
			"room_id", st.RoomID,
			"peers", st.Peers,
			"producers", st.Producers,
			"consumers", st.Consumers,
		)
	}

	if s.pool != nil {
		workers := s.pool.Workers()
		active := 0
		for _, worker := range workers {
			if worker.RoomCount() > 0 {
				active++
			}
		}
		s.logger.Infow("worker status",
			"workers", len(workers),
			"active", active,
			"idle", len(workers)-active,
		)
	}

	if s.collector != nil {
		s.collector.UpdateRoomStats(statuses)
	}
}
