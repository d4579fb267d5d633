package engine

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Krishiv14/AlgoTradeX/internal/model"
)

// BacktestJob is one independent (series, config, capital) tuple. Jobs share
// no mutable state, so a batch is embarrassingly parallel.
type BacktestJob struct {
	Series         model.PriceSeries
	Config         model.StrategyConfig
	InitialCapital decimal.Decimal
}

// BacktestOutcome pairs a job's result (or terminal error) with its index in
// the submitted batch.
type BacktestOutcome struct {
	Index  int
	Result *model.BacktestResult
	Err    error
}

// WorkerPool fans a batch of backtest jobs across a fixed number of workers.
type WorkerPool struct {
	workerCount int
	tester      *Backtester
	logger      *zap.Logger
}

func NewWorkerPool(workerCount int, tester *Backtester, logger *zap.Logger) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &WorkerPool{
		workerCount: workerCount,
		tester:      tester,
		logger:      logger,
	}
}

// RunBatch executes every job and returns outcomes ordered like the input.
// A job that fails does not stop the rest; cancellation via ctx abandons
// jobs that have not started.
func (p *WorkerPool) RunBatch(ctx context.Context, jobs []BacktestJob) []BacktestOutcome {
	outcomes := make([]BacktestOutcome, len(jobs))
	jobCh := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.workerCount; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range jobCh {
				job := jobs[i]
				res, err := p.tester.Run(job.Series, job.Config, job.InitialCapital)
				if err != nil {
					p.logger.Warn("backtest job failed",
						zap.Int("worker_id", workerID),
						zap.Int("job", i),
						zap.String("strategy", job.Config.StrategyType),
						zap.Error(err),
					)
				}
				outcomes[i] = BacktestOutcome{Index: i, Result: res, Err: err}
			}
		}(w)
	}

	for i := range jobs {
		select {
		case <-ctx.Done():
			outcomes[i] = BacktestOutcome{Index: i, Err: ctx.Err()}
			continue
		case jobCh <- i:
		}
	}
	close(jobCh)
	wg.Wait()

	return outcomes
}
