// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package metrics

// Shared metric vectors for the control plane. Label values are kept
// low-cardinality: outcome/source/code enums only, never site ids.
var (
	// ApiRequests counts registration API requests by path and status class.
	ApiRequests = NewCounterVec("api_requests",
		"Registration API requests", []string{"path", "status"})

	// SchedulerEnqueued counts deliveries enqueued by tick outcome.
	SchedulerEnqueued = NewCounterVec("scheduler_enqueued",
		"Deliveries enqueued by the scheduler tick", []string{"outcome"})

	// SlotReservations counts slot reservation attempts by source and outcome.
	SlotReservations = NewCounterVec("slot_reservations",
		"Per-minute slot reservations", []string{"source", "outcome"})

	// DispatchResults counts consumer dispatch results.
	DispatchResults = NewCounterVec("dispatch_results",
		"Dispatch outcomes from the queue consumer", []string{"result"})

	// DeliveryTransitions counts delivery state transitions by target state
	// and error code.
	DeliveryTransitions = NewCounterVec("delivery_transitions",
		"Delivery state transitions", []string{"status", "code"})

	// QueueDepthHint tracks the size of the last received message batch.
	QueueDepthHint = NewGaugeVec("queue_batch_size",
		"Messages in the last received batch", []string{"queue"})
)
