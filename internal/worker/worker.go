package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/internal/domain/jobModel"
	"github.com/akolanti/KnowledgeBase/internal/job"
	"github.com/akolanti/KnowledgeBase/internal/metrics"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
)

// Runner executes jobs; rag.Service implements it.
type Runner interface {
	ProcessRequest(ctx context.Context, job jobModel.Job) jobModel.Job
	IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job
}

// Pool is an elastic set of workers draining the job channel. It keeps at least
// MinWorkers alive, grows on dispatcher signals up to MaxWorkers and retires
// workers that stay idle for IdleTimeout.
type Pool struct {
	jobs   *job.Service
	runner Runner
	cfg    config.WorkerConfig

	stop        chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	workerCount atomic.Int64
	logger      *logger_i.Logger
}

func NewPool(jobs *job.Service, runner Runner, cfg config.WorkerConfig) *Pool {
	if cfg.MinWorkers < 1 {
		cfg.MinWorkers = 1
	}
	if cfg.MaxWorkers < cfg.MinWorkers {
		cfg.MaxWorkers = cfg.MinWorkers
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = time.Minute
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 60 * time.Second
	}
	return &Pool{
		jobs:   jobs,
		runner: runner,
		cfg:    cfg,
		stop:   make(chan struct{}),
		logger: logger_i.NewLogger("WorkerPool"),
	}
}

func (p *Pool) Start() {
	p.logger.Info("Initializing worker pool", "min", p.cfg.MinWorkers, "max", p.cfg.MaxWorkers)
	for i := int64(0); i < p.cfg.MinWorkers; i++ {
		p.createWorker()
	}
	go p.dispatcher()
}

// Stop signals every worker and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

func (p *Pool) WorkerCount() int64 {
	return p.workerCount.Load()
}

func (p *Pool) dispatcher() {
	p.logger.Info("Dispatcher started")
	for {
		select {
		case <-p.jobs.DispatcherChannel:
			if p.stopped() {
				return
			}
			if p.workerCount.Load() < p.cfg.MaxWorkers {
				p.createWorker()
			}
		case <-p.stop:
			return
		}
	}
}

func (p *Pool) stopped() bool {
	select {
	case <-p.stop:
		return true
	default:
		return false
	}
}

func (p *Pool) createWorker() {
	p.wg.Add(1)
	count := p.workerCount.Add(1)
	metrics.IncrementActiveWorkerCount()
	p.logger.Info("Created new worker", "workerCount", count)
	go p.worker()
}

func (p *Pool) worker() {
	idle := time.NewTimer(p.cfg.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case currentJob := <-p.jobs.JobChannel:
			metrics.DecrementJobsInQueue()
			p.executeJob(currentJob)
			idle.Reset(p.cfg.IdleTimeout)

		case <-p.stop:
			p.workerCount.Add(-1)
			p.removeWorker("Stop worker signal received")
			return

		case <-idle.C:
			if p.tryRetire() {
				p.removeWorker("Idle worker timeout")
				return
			}
			idle.Reset(p.cfg.IdleTimeout)
		}
	}
}

// tryRetire claims a retirement slot unless that would drop below MinWorkers.
func (p *Pool) tryRetire() bool {
	for {
		current := p.workerCount.Load()
		if current <= p.cfg.MinWorkers {
			return false
		}
		if p.workerCount.CompareAndSwap(current, current-1) {
			return true
		}
	}
}

// removeWorker runs after the worker count was already decremented.
func (p *Pool) removeWorker(reason string) {
	metrics.DecrementActiveWorkerCount()
	p.logger.Info("Removed worker", "reason", reason, "workerCount", p.workerCount.Load())
	p.wg.Done()
}
