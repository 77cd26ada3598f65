package service

import (
	"context"
	"sync"
	"time"

	"gastbook/pkg/logger"
	"gastbook/pkg/mailer"
	"gastbook/pkg/metrics"
	"gastbook/pkg/push"

	"go.uber.org/zap"
)

// DispatchJob is everything a worker needs; it never touches the database.
type DispatchJob struct {
	Type    string
	Email   string // empty skips email
	Subject string
	Message string
	Link    string
	Devices []push.Device // empty skips push
}

// Dispatcher delivers email and push from a bounded queue. When the queue is
// full new jobs are dropped.
type Dispatcher struct {
	mailer  mailer.Mailer
	push    push.Provider
	jobs    chan DispatchJob
	workers int
	timeout time.Duration
	wg      sync.WaitGroup
	once    sync.Once
}

func NewDispatcher(m mailer.Mailer, p push.Provider, workers, queueSize int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	return &Dispatcher{
		mailer:  m,
		push:    p,
		jobs:    make(chan DispatchJob, queueSize),
		workers: workers,
		timeout: 10 * time.Second,
	}
}

func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run(i)
	}
	logger.Info("dispatcher started", zap.Int("workers", d.workers))
}

// Stop closes the queue and waits for queued jobs to finish.
func (d *Dispatcher) Stop() {
	d.once.Do(func() {
		close(d.jobs)
	})
	d.wg.Wait()
}

// Enqueue reports false when the job was dropped.
func (d *Dispatcher) Enqueue(job DispatchJob) bool {
	select {
	case d.jobs <- job:
		return true
	default:
		if job.Email != "" {
			metrics.DispatchDropped("email")
		}
		if len(job.Devices) > 0 {
			metrics.DispatchDropped("push")
		}
		logger.Warn("dispatch queue full, job dropped", zap.String("type", job.Type))
		return false
	}
}

func (d *Dispatcher) run(worker int) {
	defer d.wg.Done()
	for job := range d.jobs {
		d.deliver(worker, job)
	}
}

func (d *Dispatcher) deliver(worker int, job DispatchJob) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if job.Email != "" && d.mailer != nil {
		body, err := mailer.Body(job.Message, job.Link)
		if err == nil {
			err = d.mailer.Send(ctx, job.Email, job.Subject, body)
		}
		if err != nil {
			logger.Warn("email delivery failed",
				zap.Int("worker", worker),
				zap.String("type", job.Type),
				zap.Error(err),
			)
		} else {
			metrics.NotificationDelivered(job.Type, "email")
		}
	}

	if len(job.Devices) > 0 && d.push != nil {
		data := map[string]string{"type": job.Type, "link": job.Link}
		if err := d.push.SendPush(ctx, job.Devices, job.Subject, job.Message, data); err != nil {
			logger.Warn("push delivery failed",
				zap.Int("worker", worker),
				zap.String("type", job.Type),
				zap.Error(err),
			)
		} else {
			metrics.NotificationDelivered(job.Type, "push")
		}
	}
}
