package worker

import (
	"context"
	"log"

	"marketplace/internal/broker"
	"marketplace/internal/service"
)

// PurchaseWorker records completed purchases into the library as they
// arrive from the payment provider webhook, via Kafka.
type PurchaseWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	library      *service.LibraryService
}

// NewPurchaseWorker creates a new purchase worker
func NewPurchaseWorker(consumer *broker.Consumer, library *service.LibraryService) *PurchaseWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnPurchaseCompleted(library.RecordPurchase)

	return &PurchaseWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		library:      library,
	}
}

// Start starts the worker
func (w *PurchaseWorker) Start(ctx context.Context) error {
	log.Println("Starting purchase worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *PurchaseWorker) Stop() error {
	log.Println("Stopping purchase worker...")
	return w.consumer.Close()
}
