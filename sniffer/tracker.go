package sniffer

import (
	"github.com/google/uuid"
	"github.com/petermattis/goid"
)

const (
	logMsgStatementRecorded      = "statement recorded"
	logMsgVerificationSuppressed = "verification failed while a panic was unwinding, re-raising the original panic"
	logAttrStatement             = "statement"
	logAttrGlobalCount           = "global_count"
	logAttrSpyID                 = "spy_id"
	logAttrError                 = "error"
	metricStatementsRecorded     = "sniffer_statements_recorded"
)

// Tracker owns one pair of statement counters and one spy registry. Most
// applications use the process-wide default via the package-level functions;
// separate Trackers exist so that tests can count in isolation.
type Tracker struct {
	counters *executionCounters
	registry *spyRegistry
	logger   Logger
	metrics  MetricsCollector
}

// New creates a Tracker with the given options applied.
func New(options ...Option) (*Tracker, error) {
	tracker := &Tracker{
		counters: newExecutionCounters(),
		registry: newSpyRegistry(),
	}

	for _, option := range options {
		if err := option(tracker); err != nil {
			return nil, err
		}
	}

	return tracker, nil
}

// Record counts one executed statement, for the process and for the calling
// goroutine, and then broadcasts the statement text to all live registered
// spies. It runs synchronously on the calling goroutine and never fails.
func (t *Tracker) Record(statement string) {
	t.counters.increment()
	t.registry.broadcast(statement)

	t.logStatementRecorded(statement)
	t.incrementRecordedMetric()
}

// GlobalCount returns the number of statements recorded process-wide since the
// Tracker was created or the counter was last reset.
func (t *Tracker) GlobalCount() int64 {
	return t.counters.globalCount()
}

// ContextCount returns the number of statements recorded by the calling
// goroutine since the Tracker was created or the goroutine's counter was last
// reset. A goroutine that never recorded reads 0.
func (t *Tracker) ContextCount() int64 {
	return t.counters.contextCount()
}

// CurrentBaseline snapshots both counters as seen from the calling goroutine.
// The two counters are read one after the other; see Spy.ExecutedStatements for
// the accepted consequences.
func (t *Tracker) CurrentBaseline() Baseline {
	return Baseline{
		GlobalCount:  t.counters.globalCount(),
		ContextCount: t.counters.contextCount(),
	}
}

// ResetGlobalCount sets the process-wide counter back to zero. This is an
// administrative operation: it is not safe to use while statements are being
// recorded, and spies created before the reset will report invariant failures.
func (t *Tracker) ResetGlobalCount() {
	t.counters.resetGlobal()
}

// ResetContextCount sets the calling goroutine's counter back to zero. Same
// caveats as ResetGlobalCount.
func (t *Tracker) ResetContextCount() {
	t.counters.resetContext()
}

// Spy creates a spy measuring from the current counter values and registers it
// for statement broadcasts.
func (t *Tracker) Spy() *Spy {
	return t.newSpy(t.CurrentBaseline())
}

// SpyWithBaseline creates a spy measuring from an explicit baseline instead of
// the live counters and registers it for statement broadcasts. It panics on a
// baseline with negative counts; baselines should come from CurrentBaseline or
// BuildBaseline. A baseline ahead of the live counters makes the spy's deltas
// negative, which ExecutedStatements and Verify report as an invariant failure.
func (t *Tracker) SpyWithBaseline(baseline Baseline) *Spy {
	if err := baseline.Validate(); err != nil {
		panic(err)
	}

	return t.newSpy(baseline)
}

func (t *Tracker) newSpy(baseline Baseline) *Spy {
	spy := &Spy{
		tracker:  t,
		id:       uuid.New(),
		baseline: baseline,
		origin:   goid.Get(),
	}

	t.registry.register(spy)

	return spy
}

func (t *Tracker) logStatementRecorded(statement string) {
	if t.logger == nil {
		return
	}

	t.logger.Debug(logMsgStatementRecorded,
		logAttrStatement, statement,
		logAttrGlobalCount, t.counters.globalCount())
}

func (t *Tracker) incrementRecordedMetric() {
	if t.metrics == nil {
		return
	}

	t.metrics.IncrementCounter(metricStatementsRecorded, nil)
}

func (t *Tracker) logVerificationSuppressed(spyID uuid.UUID, verificationErr error) {
	if t.logger == nil {
		return
	}

	t.logger.Error(logMsgVerificationSuppressed,
		logAttrSpyID, spyID.String(),
		logAttrError, verificationErr.Error())
}

// defaultTracker backs the package-level functions. It has no logger and no
// metrics collector; use New with options for an observable Tracker.
var defaultTracker = &Tracker{
	counters: newExecutionCounters(),
	registry: newSpyRegistry(),
}

// Default returns the process-wide Tracker used by the package-level functions.
func Default() *Tracker {
	return defaultTracker
}

// Record counts one executed statement on the default Tracker.
func Record(statement string) {
	defaultTracker.Record(statement)
}

// GlobalCount returns the default Tracker's process-wide count.
func GlobalCount() int64 {
	return defaultTracker.GlobalCount()
}

// ContextCount returns the default Tracker's count for the calling goroutine.
func ContextCount() int64 {
	return defaultTracker.ContextCount()
}

// ResetGlobalCount resets the default Tracker's process-wide counter.
// See Tracker.ResetGlobalCount for the caveats.
func ResetGlobalCount() {
	defaultTracker.ResetGlobalCount()
}

// ResetContextCount resets the default Tracker's counter for the calling
// goroutine. See Tracker.ResetContextCount for the caveats.
func ResetContextCount() {
	defaultTracker.ResetContextCount()
}

// CurrentBaseline snapshots the default Tracker's counters.
func CurrentBaseline() Baseline {
	return defaultTracker.CurrentBaseline()
}

// NewSpy creates a spy on the default Tracker, measuring from the current
// counter values.
func NewSpy() *Spy {
	return defaultTracker.Spy()
}

// NewSpyWithBaseline creates a spy on the default Tracker, measuring from an
// explicit baseline. See Tracker.SpyWithBaseline.
func NewSpyWithBaseline(baseline Baseline) *Spy {
	return defaultTracker.SpyWithBaseline(baseline)
}
