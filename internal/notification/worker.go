package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/crimow28-boop/ins-radiolab/internal/metrics"
	"github.com/crimow28-boop/ins-radiolab/internal/model"
	"github.com/crimow28-boop/ins-radiolab/internal/store"
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

// Payload is the JSON body delivered to the service worker.
type Payload struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	CardID int64  `json:"card_id"`
}

// WorkerPool delivers card update notifications to the card's subscribers.
type WorkerPool struct {
	size    int
	jobs    chan int64
	store   store.Store
	webpush *webpush.Options
	sender  NotificationSender
	metrics *metrics.Metrics
}

// NewWorkerPool creates a new worker pool. m may be nil.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options, m *metrics.Metrics) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, size*16),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		metrics: m,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case cardID := <-wp.jobs:
			wp.notifyCard(ctx, cardID)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a notification for cardID. It never blocks the caller;
// when the queue is full the notification is dropped.
func (wp *WorkerPool) Dispatch(cardID int64) {
	select {
	case wp.jobs <- cardID:
	default:
		log.Printf("Notification queue full, dropping update for card %d", cardID)
		wp.metrics.ObserveNotification("dropped")
	}
}

// notifyCard sends the current card state to every subscriber of the card.
func (wp *WorkerPool) notifyCard(ctx context.Context, cardID int64) {
	subscriptions, err := wp.store.SubscriptionsForCard(ctx, cardID)
	if err != nil {
		log.Printf("Error fetching subscriptions for card %d: %v", cardID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	title := fmt.Sprintf("כרטיס %d", cardID)
	if card, err := wp.store.GetCard(ctx, cardID); err != nil {
		log.Printf("Error fetching card %d: %v", cardID, err)
	} else if card.Title != "" {
		title = card.Title
	}

	payload, err := json.Marshal(Payload{
		Title:  title,
		Body:   fmt.Sprintf("בדיקה הושלמה בכרטיס %s", title),
		CardID: cardID,
	})
	if err != nil {
		log.Printf("Error encoding notification for card %d: %v", cardID, err)
		return
	}

	log.Printf("Sending %d notifications for card %d", len(subscriptions), cardID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
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
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		wp.metrics.ObserveNotification("failed")
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		wp.metrics.ObserveNotification("expired")
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	case resp.StatusCode >= 400:
		log.Printf("Push service rejected notification to %s: %s", sub.Endpoint, resp.Status)
		wp.metrics.ObserveNotification("failed")
	default:
		wp.metrics.ObserveNotification("sent")
	}
}
