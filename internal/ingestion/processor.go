package ingestion

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"package-tracking/internal/domain/shipment"
	"package-tracking/internal/logger"
	shipmentUsecase "package-tracking/internal/usecase/shipment"
)

// LocationUpdater applies a position report to a shipment.
type LocationUpdater interface {
	UpdateLocation(ctx context.Context, idOrCode string, req *shipmentUsecase.UpdateLocationRequest, by string) (*shipment.Shipment, error)
}

// Processor fans device reports out to a fixed set of workers. Reports for
// the same tracking code always land on the same worker so they apply in
// arrival order.
type Processor struct {
	updater LocationUpdater

	workerCount    int
	bufferSize     int
	requestTimeout time.Duration

	queues []chan *LocationMessage

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool

	metrics *MetricsTracker
}

func NewProcessor(updater LocationUpdater, workerCount, bufferSize int, requestTimeout time.Duration) *Processor {
	if workerCount <= 0 {
		workerCount = 1
	}
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if requestTimeout <= 0 {
		requestTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	queues := make([]chan *LocationMessage, workerCount)
	for i := range queues {
		queues[i] = make(chan *LocationMessage, bufferSize)
	}

	return &Processor{
		updater:        updater,
		workerCount:    workerCount,
		bufferSize:     bufferSize,
		requestTimeout: requestTimeout,
		queues:         queues,
		ctx:            ctx,
		cancel:         cancel,
		metrics:        NewMetricsTracker(),
	}
}

func (p *Processor) Start() {
	logger.Info("Starting location processor",
		zap.Int("workers", p.workerCount),
		zap.Int("buffer_size", p.bufferSize),
	)

	for i, queue := range p.queues {
		p.wg.Add(1)
		go p.worker(i, queue)
	}
}

// Stop closes the queues and waits for queued reports to drain.
func (p *Processor) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	for _, queue := range p.queues {
		close(queue)
	}
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()
	logger.Info("Location processor stopped")
}

// Enqueue queues msg without blocking. It returns false when the message was
// dropped because the worker's buffer is full or the processor is stopped.
func (p *Processor) Enqueue(msg *LocationMessage) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return false
	}

	queue := p.queues[p.shard(msg.TrackingID)]
	select {
	case queue <- msg:
		p.metrics.Update(func(m *IngestMetrics) {
			m.MessagesReceived++
			m.BufferSize = len(queue)
		})
		return true
	default:
		logger.Warn("Location buffer full, dropping report", zap.String("tracking_id", msg.TrackingID))
		p.metrics.Update(func(m *IngestMetrics) {
			m.MessagesReceived++
			m.MessagesDropped++
		})
		return false
	}
}

func (p *Processor) shard(trackingID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(trackingID))
	return int(h.Sum32() % uint32(len(p.queues)))
}

func (p *Processor) worker(id int, queue <-chan *LocationMessage) {
	defer p.wg.Done()

	for msg := range queue {
		p.handle(id, msg)
	}
}

func (p *Processor) handle(workerID int, msg *LocationMessage) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(p.ctx, p.requestTimeout)
	defer cancel()

	_, err := p.updater.UpdateLocation(ctx, msg.TrackingID, msg.toRequest(), shipmentUsecase.ActorDevice)
	if err != nil {
		level := logger.Error
		if errors.Is(err, shipment.ErrShipmentNotFound) {
			level = logger.Warn
		}
		level("Failed to apply device location",
			zap.Int("worker", workerID),
			zap.String("tracking_id", msg.TrackingID),
			zap.Error(err),
		)
		p.metrics.Update(func(m *IngestMetrics) { m.MessagesFailed++ })
		return
	}

	p.metrics.RecordProcessed(time.Since(start), time.Now())
}

func (p *Processor) Metrics() *MetricsTracker {
	return p.metrics
}
