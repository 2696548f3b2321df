package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	entriesScored     atomic.Int64
	consentSkips      atomic.Int64
	lowSignalSkips    atomic.Int64
	analyzerFailures  atomic.Int64
	alertsCreated     atomic.Int64
	insightsGenerated atomic.Int64
	batchesRun        atomic.Int64
)

func Init() {}

func ObserveEntryBatch(scored, consentSkipped, lowSignalSkipped, failed int) {
	batchesRun.Add(1)
	entriesScored.Add(int64(scored))
	consentSkips.Add(int64(consentSkipped))
	lowSignalSkips.Add(int64(lowSignalSkipped))
	analyzerFailures.Add(int64(failed))
}

func ObserveAlertsCreated(n int) {
	alertsCreated.Add(int64(n))
}

func ObserveInsightsGenerated(n int) {
	insightsGenerated.Add(int64(n))
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP sentinela_engine_entries_scored_total Number of diary entries scored since start.\n")
	fmt.Fprintf(w, "# TYPE sentinela_engine_entries_scored_total counter\n")
	fmt.Fprintf(w, "sentinela_engine_entries_scored_total %d\n", entriesScored.Load())

	fmt.Fprintf(w, "# HELP sentinela_engine_consent_skips_total Number of entries skipped because AI analysis consent was not granted.\n")
	fmt.Fprintf(w, "# TYPE sentinela_engine_consent_skips_total counter\n")
	fmt.Fprintf(w, "sentinela_engine_consent_skips_total %d\n", consentSkips.Load())

	fmt.Fprintf(w, "# HELP sentinela_engine_low_signal_skips_total Number of entries marked analyzed without scoring due to insufficient text.\n")
	fmt.Fprintf(w, "# TYPE sentinela_engine_low_signal_skips_total counter\n")
	fmt.Fprintf(w, "sentinela_engine_low_signal_skips_total %d\n", lowSignalSkips.Load())

	fmt.Fprintf(w, "# HELP sentinela_engine_analyzer_failures_total Number of entries that failed analysis and remain retryable.\n")
	fmt.Fprintf(w, "# TYPE sentinela_engine_analyzer_failures_total counter\n")
	fmt.Fprintf(w, "sentinela_engine_analyzer_failures_total %d\n", analyzerFailures.Load())

	fmt.Fprintf(w, "# HELP sentinela_engine_alerts_created_total Number of clinical alerts created since start.\n")
	fmt.Fprintf(w, "# TYPE sentinela_engine_alerts_created_total counter\n")
	fmt.Fprintf(w, "sentinela_engine_alerts_created_total %d\n", alertsCreated.Load())

	fmt.Fprintf(w, "# HELP sentinela_engine_insights_generated_total Number of weekly insights generated since start.\n")
	fmt.Fprintf(w, "# TYPE sentinela_engine_insights_generated_total counter\n")
	fmt.Fprintf(w, "sentinela_engine_insights_generated_total %d\n", insightsGenerated.Load())

	fmt.Fprintf(w, "# HELP sentinela_engine_batches_run_total Number of entry batches executed since start.\n")
	fmt.Fprintf(w, "# TYPE sentinela_engine_batches_run_total counter\n")
	fmt.Fprintf(w, "sentinela_engine_batches_run_total %d\n", batchesRun.Load())
}
