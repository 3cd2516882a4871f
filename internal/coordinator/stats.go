package coordinator

import "sync/atomic"

// Stats is a point-in-time copy of coordinator counters.
type Stats struct {
	ActiveSessions     int
	SessionsStarted    uint64
	SessionsRecovered  uint64
	SessionsCompleted  uint64
	SessionsAborted    uint64
	Accepted           uint64
	RejectedProcessing uint64
	RejectedDuplicate  uint64
	RejectedNotReady   uint64
	OutcomesSuccess    uint64
	OutcomesError      uint64
	OutcomesSkipped    uint64
	WatchdogTimeouts   uint64
	DirectivesSent     uint64
	DirectiveFailures  uint64
	TrackerFailures    uint64
	TrackerDuplicates  uint64
}

type counters struct {
	sessionsStarted    atomic.Uint64
	sessionsRecovered  atomic.Uint64
	sessionsCompleted  atomic.Uint64
	sessionsAborted    atomic.Uint64
	accepted           atomic.Uint64
	rejectedProcessing atomic.Uint64
	rejectedDuplicate  atomic.Uint64
	rejectedNotReady   atomic.Uint64
	outcomesSuccess    atomic.Uint64
	outcomesError      atomic.Uint64
	outcomesSkipped    atomic.Uint64
	watchdogTimeouts   atomic.Uint64
	directivesSent     atomic.Uint64
	directiveFailures  atomic.Uint64
	trackerFailures    atomic.Uint64
	trackerDuplicates  atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		SessionsStarted:    c.sessionsStarted.Load(),
		SessionsRecovered:  c.sessionsRecovered.Load(),
		SessionsCompleted:  c.sessionsCompleted.Load(),
		SessionsAborted:    c.sessionsAborted.Load(),
		Accepted:           c.accepted.Load(),
		RejectedProcessing: c.rejectedProcessing.Load(),
		RejectedDuplicate:  c.rejectedDuplicate.Load(),
		RejectedNotReady:   c.rejectedNotReady.Load(),
		OutcomesSuccess:    c.outcomesSuccess.Load(),
		OutcomesError:      c.outcomesError.Load(),
		OutcomesSkipped:    c.outcomesSkipped.Load(),
		WatchdogTimeouts:   c.watchdogTimeouts.Load(),
		DirectivesSent:     c.directivesSent.Load(),
		DirectiveFailures:  c.directiveFailures.Load(),
		TrackerFailures:    c.trackerFailures.Load(),
		TrackerDuplicates:  c.trackerDuplicates.Load(),
	}
}
