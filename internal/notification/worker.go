package notification

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"calibration-qa-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Job asks the pool to notify the followers of an instrument.
type Job struct {
	InstrumentID string
	DaysLeft     int
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan Job
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
	log     *zap.Logger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options, log *zap.Logger) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Job, size*8),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		log:     log,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.log.Debug("Notification worker started", zap.Int("worker", id))
	for {
		select {
		case job := <-wp.jobs:
			wp.sendNotificationsForInstrument(ctx, job)
		case <-ctx.Done():
			wp.log.Debug("Notification worker shutting down", zap.Int("worker", id))
			return
		}
	}
}

// Dispatch queues a job. It reports false, dropping the job, when the
// queue is full so the scanner never blocks on slow push services.
func (wp *WorkerPool) Dispatch(job Job) bool {
	select {
	case wp.jobs <- job:
		return true
	default:
		wp.log.Warn("Notification queue full, dropping job", zap.String("instrument", job.InstrumentID))
		return false
	}
}

// Message is the push text for an instrument due in daysLeft days.
func Message(label string, daysLeft int) string {
	switch {
	case daysLeft < 0:
		return fmt.Sprintf("Alat %s sudah melewati jatuh tempo kalibrasi", label)
	case daysLeft == 0:
		return fmt.Sprintf("Alat %s jatuh tempo kalibrasi hari ini", label)
	}
	return fmt.Sprintf("Alat %s jatuh tempo kalibrasi dalam %d hari", label, daysLeft)
}

func (wp *WorkerPool) sendNotificationsForInstrument(ctx context.Context, job Job) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_instruments si ON si.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("si.instrument_id = ?", job.InstrumentID).
		Find(&subscriptions).Error
	if err != nil {
		wp.log.Error("Failed to fetch subscriptions", zap.String("instrument", job.InstrumentID), zap.Error(err))
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	label := job.InstrumentID
	var inst model.Instrument
	if err := wp.db.WithContext(ctx).
		Select("code", "name").
		First(&inst, "id = ?", job.InstrumentID).Error; err != nil {
		wp.log.Warn("Failed to fetch instrument", zap.String("instrument", job.InstrumentID), zap.Error(err))
	} else {
		label = fmt.Sprintf("%s (%s)", inst.Name, inst.Code)
	}

	wp.log.Info("Sending due notifications",
		zap.String("instrument", job.InstrumentID),
		zap.Int("subscriptions", len(subscriptions)))
	message := []byte(Message(label, job.DaysLeft))
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, message)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.log.Error("Failed to send notification", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		wp.log.Info("Subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			wp.log.Error("Failed to delete expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
	}
}
