// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package validate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/brushcss/brush/internal/style/policy"
)

// Validation outcomes.
const (
	outcomeAccepted  = "accepted"  // nothing dropped
	outcomePartial   = "partial"   // some drops, some directives left
	outcomeEmpty     = "empty"     // every directive dropped
	outcomeMalformed = "malformed" // envelope rejected
)

var (
	validationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brush_validations_total",
		Help: "Total number of model responses validated, by outcome",
	}, []string{"outcome"})

	policyDropsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brush_policy_drops_total",
		Help: "Total number of selectors and declarations dropped by the safety policy, by reason",
	}, []string{"reason"})
)

func recordOutcome(outcome string) {
	validationsTotal.WithLabelValues(outcome).Inc()
}

func recordDrop(reason policy.Reason) {
	policyDropsTotal.WithLabelValues(string(reason)).Inc()
}
