// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package designer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "brush_pipeline_requests_total",
	Help: "Total number of apply and design requests, by kind and result code",
}, []string{"kind", "result"})

var tracer = otel.Tracer("github.com/brushcss/brush/internal/designer")
