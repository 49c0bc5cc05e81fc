// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package stylist

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	artifactsAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brush_artifacts_applied_total",
		Help: "Total number of stylesheet artifacts inserted into documents",
	})

	undosTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brush_undos_total",
		Help: "Total number of undo requests, by result",
	}, []string{"result"})

	pendingArtifacts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "brush_pending_artifacts",
		Help: "Number of artifacts live across all ledgers",
	})
)

// Undo results.
const (
	undoRemoved  = "removed"
	undoVanished = "vanished"
	undoEmpty    = "empty"
	undoFailed   = "failed"
)
