package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"civisense/pkg/middleware"
	"civisense/pkg/queue"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const defaultDepartment = "Municipal Corporation (General)"

// departments is keyed by the categories the categorization backend emits.
var departments = map[string]string{
	"Water":       "Metro Water Supply & Sewerage Board",
	"Roads":       "Highways & Public Works Department",
	"Health":      "Public Health Department",
	"Housing":     "Urban Habitat Development Board",
	"Welfare":     "Social Welfare Department",
	"Electricity": "Electricity Distribution Corporation",
	"Sanitation":  "Solid Waste Management Department",
}

// categoryAliases maps the dashboard's display labels onto backend
// categories.
var categoryAliases = map[string]string{
	"Water Supply":     "Water",
	"Road Maintenance": "Roads",
	"Healthcare":       "Health",
	"Social Welfare":   "Welfare",
}

func canonicalCategory(c string) string {
	c = strings.TrimSpace(c)
	if alias, ok := categoryAliases[c]; ok {
		return alias
	}
	for key := range departments {
		if strings.EqualFold(key, c) {
			return key
		}
	}
	return c
}

// Assignment is where a submitted complaint is sent.
type Assignment struct {
	ReferenceID string
	Department  string
	Escalated   bool
	Reason      string
}

// Route picks the department for a complaint. High priority complaints and
// complaints from vulnerable citizens are escalated to the department's
// priority desk.
func Route(e queue.ComplaintSubmitted) Assignment {
	a := Assignment{ReferenceID: e.ReferenceID, Department: defaultDepartment}
	if d, ok := departments[canonicalCategory(e.Category)]; ok {
		a.Department = d
	}

	switch {
	case e.PriorityBand == "high" && e.Vulnerable:
		a.Escalated, a.Reason = true, "high priority, vulnerable citizen"
	case e.PriorityBand == "high":
		a.Escalated, a.Reason = true, "high priority"
	case e.Vulnerable:
		a.Escalated, a.Reason = true, "vulnerable citizen"
	}
	return a
}

// Forwarder hands an assignment to a department.
type Forwarder interface {
	Forward(ctx context.Context, a Assignment, e queue.ComplaintSubmitted) error
}

// logForwarder records assignments in the dispatcher log.
type logForwarder struct {
	log *zap.Logger
}

func (f logForwarder) Forward(_ context.Context, a Assignment, e queue.ComplaintSubmitted) error {
	f.log.Info("complaint forwarded",
		zap.String("trace_id", e.TraceID),
		zap.String("reference_id", a.ReferenceID),
		zap.String("category", e.Category),
		zap.String("area", e.Area),
		zap.String("department", a.Department),
		zap.Bool("escalated", a.Escalated),
		zap.String("reason", a.Reason),
	)
	return nil
}

func dispatchHandler(fwd Forwarder) queue.HandlerFunc {
	return func(ctx context.Context, d amqp.Delivery) error {
		var event queue.ComplaintSubmitted
		if err := json.Unmarshal(d.Body, &event); err != nil {
			return fmt.Errorf("%w: %v", queue.ErrMalformed, err)
		}
		if event.ReferenceID == "" {
			return fmt.Errorf("%w: missing reference_id", queue.ErrMalformed)
		}

		a := Route(event)
		if err := fwd.Forward(ctx, a, event); err != nil {
			middleware.LogError(event.TraceID, "Failed to forward complaint", err)
			return err
		}
		return nil
	}
}
