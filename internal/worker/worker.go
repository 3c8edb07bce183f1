package worker

import (
	"context"
	"log"

	"procurement-service/internal/broker"
	"procurement-service/internal/service"
)

// DemandWorker ingests demand-signal events into the lane service
type DemandWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	laneService  *service.LaneService
}

// NewDemandWorker creates a new demand worker
func NewDemandWorker(consumer *broker.Consumer, laneService *service.LaneService) *DemandWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnDemandSignal(laneService.RecordDemandSignal)

	return &DemandWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		laneService:  laneService,
	}
}

// Start starts the worker
func (w *DemandWorker) Start(ctx context.Context) error {
	log.Println("Starting demand worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *DemandWorker) Stop() error {
	log.Println("Stopping demand worker...")
	return w.consumer.Close()
}
