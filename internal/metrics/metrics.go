// Package metrics holds the Prometheus collectors for token validation.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bionicotaku/lingo-utils-claimcheck"
)

// OutcomeValid labels validations that passed. Failures are labelled with
// their claimcheck.ErrorCode.
const OutcomeValid = "valid"

// Recorder counts validation outcomes and their latency.
type Recorder struct {
	validations *prometheus.CounterVec
	duration    prometheus.Histogram
}

// NewRecorder creates the collectors and registers them on reg, or on the
// default registerer when reg is nil. Collectors already registered are reused.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	validations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "claimcheck",
		Name:      "validations_total",
		Help:      "Token validations by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "claimcheck",
		Name:      "validation_duration_seconds",
		Help:      "Time spent decoding and validating a token.",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
	})

	var err error
	if validations, err = register(reg, validations); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &Recorder{validations: validations, duration: duration}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Observe records one validation. err is the result of Validator.Check.
func (r *Recorder) Observe(err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.validations.WithLabelValues(Outcome(err)).Inc()
	r.duration.Observe(elapsed.Seconds())
}

// Outcome maps a Check result to its metric label.
func Outcome(err error) string {
	if err == nil {
		return OutcomeValid
	}
	return string(claimcheck.CodeOf(err))
}
