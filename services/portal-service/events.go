package main

import (
	"context"
	"encoding/json"
	"fmt"

	"civisense/pkg/dashboard"
	"civisense/pkg/middleware"
	"civisense/pkg/queue"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// statusChangeHandler refreshes every live dashboard when any officer, on
// this or another portal instance, changes a complaint status.
func statusChangeHandler(views *dashboard.Registry) queue.HandlerFunc {
	return func(ctx context.Context, d amqp.Delivery) error {
		var event queue.StatusChanged
		if err := json.Unmarshal(d.Body, &event); err != nil {
			return fmt.Errorf("%w: %v", queue.ErrMalformed, err)
		}

		middleware.LogInfo(event.TraceID, "Status change received",
			zap.String("complaint_id", event.ComplaintID),
			zap.String("status", event.Status),
		)
		if err := views.RefreshAll(ctx); err != nil {
			middleware.LogWarn(event.TraceID, "Dashboard refresh after status change failed", err)
		}
		return nil
	}
}
