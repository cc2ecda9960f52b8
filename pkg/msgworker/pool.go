package msgworker

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultWorkers    = 20
	DefaultQueueSize  = 1000
	DefaultJobTimeout = 2 * time.Minute

	activeContactTTL = 2 * time.Second
)

// Job is one webhook event to run off the request path. Jobs with the same
// PhoneNumberID and Contact always land on the same worker and run in order.
type Job struct {
	PhoneNumberID string
	Contact       string
	TraceID       string
	Handler       func(ctx context.Context) error
}

func (j Job) key() string {
	return j.PhoneNumberID + "|" + j.Contact
}

type PoolStats struct {
	NumWorkers      int            `json:"num_workers"`
	QueueSize       int            `json:"queue_size"`
	ActiveWorkers   int            `json:"active_workers"`
	TotalDispatched int64          `json:"total_dispatched"`
	TotalProcessed  int64          `json:"total_processed"`
	TotalDropped    int64          `json:"total_dropped"`
	TotalErrors     int64          `json:"total_errors"`
	Uptime          string         `json:"uptime"`
	WorkerStats     []WorkerStats  `json:"worker_stats"`
	ActiveContacts  map[string]int `json:"active_contacts"` // phoneNumberID|contact -> worker id
}

type WorkerStats struct {
	WorkerID      int   `json:"worker_id"`
	QueueDepth    int   `json:"queue_depth"`
	IsProcessing  bool  `json:"is_processing"`
	JobsProcessed int64 `json:"jobs_processed"`
}

type activeContact struct {
	workerID  int
	updatedAt time.Time
}

// Pool runs jobs on a fixed set of workers, each with its own bounded queue.
type Pool struct {
	numWorkers int
	queueSize  int
	jobTimeout time.Duration
	workers    []*worker
	wg         sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once
	stopped    int32
	stopCh     chan struct{}
	startTime  time.Time

	totalDispatched int64
	totalProcessed  int64
	totalDropped    int64
	totalErrors     int64

	activeMu sync.Mutex
	active   map[string]activeContact
}

type worker struct {
	id            int
	queue         chan Job
	isProcessing  int32
	jobsProcessed int64
	pool          *Pool
}

func NewPool(numWorkers, queueSize int, jobTimeout time.Duration) *Pool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if jobTimeout <= 0 {
		jobTimeout = DefaultJobTimeout
	}

	p := &Pool{
		numWorkers: numWorkers,
		queueSize:  queueSize,
		jobTimeout: jobTimeout,
		workers:    make([]*worker, numWorkers),
		active:     make(map[string]activeContact),
		stopCh:     make(chan struct{}),
	}
	for i := range p.workers {
		p.workers[i] = &worker{id: i, queue: make(chan Job, queueSize), pool: p}
	}
	return p
}

// Start launches the workers. Job contexts derive from ctx but are not
// cancelled with it, so queued jobs still finish during Stop.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		p.startTime = time.Now()
		base := context.WithoutCancel(ctx)

		p.wg.Add(1)
		go p.sweepActive()

		for _, w := range p.workers {
			p.wg.Add(1)
			go w.run(base)
		}
		logrus.Infof("[MSG_WORKER_POOL] started %d workers, queue size %d", p.numWorkers, p.queueSize)
	})
}

// TryDispatch queues job without blocking and reports whether it was accepted.
func (p *Pool) TryDispatch(job Job) bool {
	if atomic.LoadInt32(&p.stopped) == 1 {
		atomic.AddInt64(&p.totalDropped, 1)
		return false
	}

	key := job.key()
	shard := p.shardFor(key)

	sent := func() (ok bool) {
		// Stop may close the queue between the stopped check and the send.
		defer func() {
			if r := recover(); r != nil {
				ok = false
			}
		}()
		select {
		case p.workers[shard].queue <- job:
			return true
		default:
			return false
		}
	}()

	if !sent {
		atomic.AddInt64(&p.totalDropped, 1)
		logrus.Warnf("[MSG_WORKER_POOL] worker %d queue full, dropping event %s for %s", shard, job.TraceID, key)
		return false
	}

	atomic.AddInt64(&p.totalDispatched, 1)
	p.activeMu.Lock()
	p.active[key] = activeContact{workerID: shard, updatedAt: time.Now()}
	p.activeMu.Unlock()
	return true
}

// Stop rejects new jobs, lets the workers drain their queues and waits for them.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		atomic.StoreInt32(&p.stopped, 1)
		close(p.stopCh)
		logrus.Info("[MSG_WORKER_POOL] stopping, draining queues")
		for _, w := range p.workers {
			close(w.queue)
		}
		p.wg.Wait()
		logrus.Info("[MSG_WORKER_POOL] all workers stopped")
	})
}

func (p *Pool) shardFor(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(p.numWorkers))
}

func (p *Pool) Stats() PoolStats {
	workerStats := make([]WorkerStats, len(p.workers))
	activeWorkers := 0
	for i, w := range p.workers {
		busy := atomic.LoadInt32(&w.isProcessing) == 1
		if busy {
			activeWorkers++
		}
		workerStats[i] = WorkerStats{
			WorkerID:      w.id,
			QueueDepth:    len(w.queue),
			IsProcessing:  busy,
			JobsProcessed: atomic.LoadInt64(&w.jobsProcessed),
		}
	}

	p.activeMu.Lock()
	p.pruneActive(time.Now())
	active := make(map[string]int, len(p.active))
	for k, v := range p.active {
		active[k] = v.workerID
	}
	p.activeMu.Unlock()

	var uptime string
	if !p.startTime.IsZero() {
		uptime = time.Since(p.startTime).Round(time.Second).String()
	}

	return PoolStats{
		NumWorkers:      p.numWorkers,
		QueueSize:       p.queueSize,
		ActiveWorkers:   activeWorkers,
		TotalDispatched: atomic.LoadInt64(&p.totalDispatched),
		TotalProcessed:  atomic.LoadInt64(&p.totalProcessed),
		TotalDropped:    atomic.LoadInt64(&p.totalDropped),
		TotalErrors:     atomic.LoadInt64(&p.totalErrors),
		Uptime:          uptime,
		WorkerStats:     workerStats,
		ActiveContacts:  active,
	}
}

func (p *Pool) sweepActive() {
	defer p.wg.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case now := <-ticker.C:
			p.activeMu.Lock()
			p.pruneActive(now)
			p.activeMu.Unlock()
		}
	}
}

// pruneActive must be called with activeMu held.
func (p *Pool) pruneActive(now time.Time) {
	for k, v := range p.active {
		if now.Sub(v.updatedAt) > activeContactTTL {
			delete(p.active, k)
		}
	}
}

func (w *worker) run(base context.Context) {
	defer w.pool.wg.Done()
	logrus.Debugf("[MSG_WORKER_POOL] worker %d started", w.id)

	for job := range w.queue {
		w.process(base, job)
	}
	logrus.Debugf("[MSG_WORKER_POOL] worker %d stopped", w.id)
}

func (w *worker) process(base context.Context, job Job) {
	ctx, cancel := context.WithTimeout(base, w.pool.jobTimeout)
	defer cancel()

	atomic.StoreInt32(&w.isProcessing, 1)
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&w.pool.totalErrors, 1)
			logrus.Errorf("[MSG_WORKER_POOL] worker %d panic on event %s: %v", w.id, job.TraceID, r)
		}
		atomic.StoreInt32(&w.isProcessing, 0)
		atomic.AddInt64(&w.jobsProcessed, 1)
		atomic.AddInt64(&w.pool.totalProcessed, 1)
	}()

	if err := job.Handler(ctx); err != nil {
		atomic.AddInt64(&w.pool.totalErrors, 1)
		logrus.WithError(err).Errorf("[MSG_WORKER_POOL] worker %d event %s for %s failed", w.id, job.TraceID, job.key())
	}
}
