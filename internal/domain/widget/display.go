package widget

import (
	"sync"
	"time"

	"github.com/yanqian/clima-widget/internal/domain/weather"
	"github.com/yanqian/clima-widget/pkg/util"
)

// Timer is the handle returned when an alert dismissal is scheduled.
type Timer interface {
	Stop() bool
}

type alertState struct {
	id        uint64
	message   string
	expiresAt time.Time
	timer     Timer
}

// Display owns the result container and the alert slot of one page.
// The container holds at most one of spinner or result block; the alert
// slot holds at most one banner and never touches the container.
type Display struct {
	mu            sync.Mutex
	kind          ContainerKind
	lines         []Line
	alert         *alertState
	alertSeq      uint64
	pending       int
	alertDuration time.Duration
	afterFunc     func(time.Duration, func()) Timer
	now           func() time.Time
}

// NewDisplay builds an idle display whose alerts last alertDuration.
func NewDisplay(alertDuration time.Duration) *Display {
	if alertDuration <= 0 {
		alertDuration = 3 * time.Second
	}
	return &Display{
		kind:          ContainerEmpty,
		alertDuration: alertDuration,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		now: util.NowUTC,
	}
}

// Clear empties the result container.
func (d *Display) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearLocked()
}

// ShowLoading replaces the container content with the spinner.
func (d *Display) ShowLoading() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearLocked()
	d.kind = ContainerLoading
}

// ShowResult replaces the container content with the weather summary.
func (d *Display) ShowResult(report weather.Report) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearLocked()
	d.kind = ContainerResult
	d.lines = ResultLines(report)
}

// ShowAlert supersedes any current banner and schedules its own dismissal.
func (d *Display) ShowAlert(message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dropAlertLocked()

	d.alertSeq++
	id := d.alertSeq
	d.alert = &alertState{
		id:        id,
		message:   message,
		expiresAt: d.now().Add(d.alertDuration),
	}
	d.alert.timer = d.afterFunc(d.alertDuration, func() { d.dismissAlert(id) })
}

// Snapshot returns the current view.
func (d *Display) Snapshot() View {
	d.mu.Lock()
	defer d.mu.Unlock()

	view := View{Container: d.kind, Pending: d.pending > 0}
	if len(d.lines) > 0 {
		view.Lines = append([]Line(nil), d.lines...)
	}
	if d.alert != nil {
		view.Alert = &AlertView{Message: d.alert.message, ExpiresAt: d.alert.expiresAt}
	}

	switch {
	case view.Alert != nil:
		view.Phase = PhaseError
	case d.kind == ContainerLoading:
		view.Phase = PhaseLoading
	case d.kind == ContainerResult:
		view.Phase = PhaseResult
	default:
		view.Phase = PhaseIdle
	}
	return view
}

// Close stops any pending alert timer.
func (d *Display) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dropAlertLocked()
}

func (d *Display) lookupStarted() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending++
}

func (d *Display) lookupFinished() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending > 0 {
		d.pending--
	}
}

func (d *Display) dismissAlert(id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.alert != nil && d.alert.id == id {
		d.alert = nil
	}
}

func (d *Display) clearLocked() {
	d.kind = ContainerEmpty
	d.lines = nil
}

func (d *Display) dropAlertLocked() {
	if d.alert == nil {
		return
	}
	if d.alert.timer != nil {
		d.alert.timer.Stop()
	}
	d.alert = nil
}
