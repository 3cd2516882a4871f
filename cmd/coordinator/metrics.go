package main

import (
	"fmt"
	"net/http"
	"strings"
)

type metric struct {
	name  string
	help  string
	kind  string
	value uint64
}

// handleMetrics renders coordinator counters in the Prometheus text format.
func (a *api) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	s := a.svc.Stats()
	metrics := []metric{
		{"careerpilot_sessions_active", "Sessions with a live actor.", "gauge", uint64(s.ActiveSessions)},
		{"careerpilot_sessions_started_total", "Sessions created.", "counter", s.SessionsStarted},
		{"careerpilot_sessions_recovered_total", "Sessions rehydrated from the store.", "counter", s.SessionsRecovered},
		{"careerpilot_sessions_completed_total", "Sessions that reached a terminal status.", "counter", s.SessionsCompleted},
		{"careerpilot_sessions_aborted_total", "Sessions completed as ABORTED.", "counter", s.SessionsAborted},
		{"careerpilot_applications_accepted_total", "START_APPLICATION requests accepted.", "counter", s.Accepted},
		{"careerpilot_applications_rejected_processing_total", "Requests rejected while another job was applying.", "counter", s.RejectedProcessing},
		{"careerpilot_applications_rejected_duplicate_total", "Requests rejected as duplicates.", "counter", s.RejectedDuplicate},
		{"careerpilot_applications_rejected_not_ready_total", "Requests rejected with no search task outstanding.", "counter", s.RejectedNotReady},
		{"careerpilot_outcomes_success_total", "SUCCESS outcomes.", "counter", s.OutcomesSuccess},
		{"careerpilot_outcomes_error_total", "ERROR outcomes, including watchdog timeouts.", "counter", s.OutcomesError},
		{"careerpilot_outcomes_skipped_total", "SKIPPED outcomes.", "counter", s.OutcomesSkipped},
		{"careerpilot_watchdog_timeouts_total", "Applications closed by the watchdog.", "counter", s.WatchdogTimeouts},
		{"careerpilot_directives_sent_total", "SEARCH_NEXT directives acknowledged.", "counter", s.DirectivesSent},
		{"careerpilot_directive_failures_total", "SEARCH_NEXT directives that failed.", "counter", s.DirectiveFailures},
		{"careerpilot_tracker_failures_total", "Application-Tracker calls that failed.", "counter", s.TrackerFailures},
		{"careerpilot_tracker_duplicates_total", "Jobs rejected because the user applied in an earlier session.", "counter", s.TrackerDuplicates},
	}

	var b strings.Builder
	for _, m := range metrics {
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s %s\n%s %d\n", m.name, m.help, m.name, m.kind, m.name, m.value)
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(b.String()))
}
