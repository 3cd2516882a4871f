package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"careerpilot/internal/models"
	"careerpilot/internal/worker"
)

var (
	// Counters for worker activations exposed on /metrics.
	// activations: Run/OnSearchNext calls; failed: activations that returned an error.
	workerActivations       uint64
	workerActivationsFailed uint64
	workerSearchSteps       uint64
	workerApplySteps        uint64
	workerIdleSteps         uint64
	// Outcomes this host reported, by kind.
	workerOutcomesSuccess uint64
	workerOutcomesError   uint64
	workerOutcomesSkipped uint64
	// Candidates skipped because the coordinator already had them.
	workerDuplicates uint64

	workerTabsOpen int64 // gauge: job tabs currently open

	// Histogram for activation latency (seconds). Buckets: upper bounds; +Inf implicit.
	activationLatencyBuckets = []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120}
	activationLatencyCounts  = make([]uint64, len(activationLatencyBuckets)+1)
	activationLatencySumNs   uint64
	activationLatencyCount   uint64
)

func startMetricsServer(ctx context.Context, addr string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", handleMetrics)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics shutdown error", zap.Error(err))
		}
	}()

	go func() {
		log.Info("metrics listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server error", zap.Error(err))
		}
	}()
}

func handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)
	body := fmt.Sprintf(
		"careerpilot_worker_up 1\n"+
			"careerpilot_worker_activations_total %d\n"+
			"careerpilot_worker_activations_failed_total %d\n"+
			"careerpilot_worker_steps_total{step=\"search\"} %d\n"+
			"careerpilot_worker_steps_total{step=\"apply\"} %d\n"+
			"careerpilot_worker_steps_total{step=\"none\"} %d\n"+
			"careerpilot_worker_outcomes_total{kind=\"SUCCESS\"} %d\n"+
			"careerpilot_worker_outcomes_total{kind=\"ERROR\"} %d\n"+
			"careerpilot_worker_outcomes_total{kind=\"SKIPPED\"} %d\n"+
			"careerpilot_worker_duplicates_total %d\n"+
			"careerpilot_worker_tabs_open %d\n",
		atomic.LoadUint64(&workerActivations),
		atomic.LoadUint64(&workerActivationsFailed),
		atomic.LoadUint64(&workerSearchSteps),
		atomic.LoadUint64(&workerApplySteps),
		atomic.LoadUint64(&workerIdleSteps),
		atomic.LoadUint64(&workerOutcomesSuccess),
		atomic.LoadUint64(&workerOutcomesError),
		atomic.LoadUint64(&workerOutcomesSkipped),
		atomic.LoadUint64(&workerDuplicates),
		atomic.LoadInt64(&workerTabsOpen),
	)
	var histogram strings.Builder
	histogram.WriteString("# HELP careerpilot_worker_activation_latency_seconds Time spent in one worker activation.\n")
	histogram.WriteString("# TYPE careerpilot_worker_activation_latency_seconds histogram\n")
	appendHistogram(&histogram, "careerpilot_worker_activation_latency_seconds", activationLatencyBuckets,
		activationLatencyCounts, &activationLatencySumNs, &activationLatencyCount, "%.1f")

	_, _ = w.Write([]byte(body + histogram.String()))
}

// appendHistogram writes a Prometheus histogram (buckets, +Inf, sum, count) to sb.
// counts must have len(buckets)+1 elements; leFmt formats bucket bounds (e.g. "%.2f").
func appendHistogram(sb *strings.Builder, name string, buckets []float64, counts []uint64, sumNs, count *uint64, leFmt string) {
	var cumulative uint64
	for i, bound := range buckets {
		cumulative += atomic.LoadUint64(&counts[i])
		sb.WriteString(fmt.Sprintf("%s_bucket{le=\"%s\"} %d\n", name, fmt.Sprintf(leFmt, bound), cumulative))
	}
	cumulative += atomic.LoadUint64(&counts[len(buckets)])
	sb.WriteString(fmt.Sprintf("%s_bucket{le=\"+Inf\"} %d\n", name, cumulative))
	sumSeconds := float64(atomic.LoadUint64(sumNs)) / float64(time.Second)
	sb.WriteString(fmt.Sprintf("%s_sum %.6f\n", name, sumSeconds))
	sb.WriteString(fmt.Sprintf("%s_count %d\n", name, atomic.LoadUint64(count)))
}

// observeActivation records one activation's step, outcome and latency.
func observeActivation(act worker.Activation, err error, duration time.Duration) {
	atomic.AddUint64(&workerActivations, 1)
	if err != nil {
		atomic.AddUint64(&workerActivationsFailed, 1)
	}
	switch act.Step {
	case worker.StepSearch:
		atomic.AddUint64(&workerSearchSteps, 1)
	case worker.StepApply:
		atomic.AddUint64(&workerApplySteps, 1)
	default:
		atomic.AddUint64(&workerIdleSteps, 1)
	}
	if act.Outcome != nil {
		switch act.Outcome.Kind {
		case models.OutcomeSuccess:
			atomic.AddUint64(&workerOutcomesSuccess, 1)
		case models.OutcomeError:
			atomic.AddUint64(&workerOutcomesError, 1)
		case models.OutcomeSkipped:
			atomic.AddUint64(&workerOutcomesSkipped, 1)
		}
	}
	atomic.AddUint64(&workerDuplicates, uint64(len(act.Duplicates)))

	if duration <= 0 {
		return
	}
	seconds := duration.Seconds()
	bucketIndex := len(activationLatencyBuckets)
	for i, bound := range activationLatencyBuckets {
		if seconds <= bound {
			bucketIndex = i
			break
		}
	}
	atomic.AddUint64(&activationLatencyCounts[bucketIndex], 1)
	atomic.AddUint64(&activationLatencySumNs, uint64(duration.Nanoseconds()))
	atomic.AddUint64(&activationLatencyCount, 1)
}
