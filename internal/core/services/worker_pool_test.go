package services

import (
	"context"
	"errors"
	"testing"

	"stagecast/internal/core/ports"
	"stagecast/internal/infrastructure/media"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestWorkerPool_RoundRobinWraps(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	engine := media.NewEngine(logger)

	pool, err := NewWorkerPool(context.Background(), engine, 3, nil, logger)
	require.NoError(t, err)
	require.Equal(t, 3, pool.Size())

	first := pool.Next()
	second := pool.Next()
	third := pool.Next()
	wrapped := pool.Next()

	require.NotEqual(t, first.ID(), second.ID())
	require.NotEqual(t, second.ID(), third.ID())
	require.Equal(t, first.ID(), wrapped.ID())
}

func TestWorkerPool_RejectsNonPositiveSize(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	engine := media.NewEngine(logger)

	_, err := NewWorkerPool(context.Background(), engine, 0, nil, logger)
	require.Error(t, err)
}

func TestWorkerPool_RoomCountTracksRouters(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	engine := media.NewEngine(logger)

	pool, err := NewWorkerPool(context.Background(), engine, 1, nil, logger)
	require.NoError(t, err)
	require.Len(t, pool.Workers(), 1)

	worker := pool.Next()
	require.Equal(t, 0, worker.RoomCount())

	router, err := worker.CreateRouter(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, worker.RoomCount())

	router.Close()
	require.Equal(t, 0, worker.RoomCount())
}

func TestWorkerPool_DeathHandlerFires(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	engine := media.NewEngine(logger)

	died := make(chan ports.Worker, 1)
	_, err := NewWorkerPool(context.Background(), engine, 2, func(worker ports.Worker, err error) {
		died <- worker
	}, logger)
	require.NoError(t, err)

	workers := engine.Workers()
	require.Len(t, workers, 2)

	workers[1].SimulateDeath(errors.New("worker process exited"))

	select {
	case worker := <-died:
		require.Equal(t, workers[1].ID(), worker.ID())
	default:
		t.Fatal("death handler not invoked")
	}
}
