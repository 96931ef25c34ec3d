package widget

import (
	"strconv"
	"time"

	"github.com/yanqian/clima-widget/internal/domain/weather"
)

// Banner messages shown to the user.
const (
	MsgMissingFields   = "Por favor, introduce una ciudad y el país."
	MsgNotFound        = "No se ha encontrado la ciudad o el país."
	MsgConnectionError = "Error de conexión. Vuelve a intentarlo"
)

// SpinnerCircles is the number of animated elements in the loading indicator.
const SpinnerCircles = 12

// Overlap policies for submissions that are still in flight.
const (
	OverlapLastResolved     = "last-resolved"
	OverlapLatestSubmission = "latest-submission"
)

// Phase is the explicit UI state derived from the mounted nodes.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseResult  Phase = "result"
	PhaseError   Phase = "error"
)

// ContainerKind identifies what is mounted in the result container.
type ContainerKind string

const (
	ContainerEmpty   ContainerKind = "empty"
	ContainerLoading ContainerKind = "loading"
	ContainerResult  ContainerKind = "result"
)

// Form is the submitted pair of fields.
type Form struct {
	City    string `form:"city" json:"city"`
	Country string `form:"country" json:"country"`
}

// Line is one text node of the result block.
type Line struct {
	Class string `json:"class"`
	Text  string `json:"text"`
}

// AlertView is the banner overlay, if any.
type AlertView struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// View is an immutable snapshot of the display.
type View struct {
	Phase     Phase         `json:"phase"`
	Container ContainerKind `json:"container"`
	Lines     []Line        `json:"lines,omitempty"`
	Alert     *AlertView    `json:"alert,omitempty"`
	// Pending is set while a dispatched lookup has not resolved yet.
	Pending bool `json:"pending"`
}

// Spinner returns the circle indexes of the loading indicator, starting at 1.
func (v View) Spinner() []int {
	if v.Container != ContainerLoading {
		return nil
	}
	circles := make([]int, SpinnerCircles)
	for i := range circles {
		circles[i] = i + 1
	}
	return circles
}

// Config wires runtime knobs for the widget.
type Config struct {
	AlertDuration time.Duration
	Overlap       string
	SessionTTL    time.Duration
}

// ResultLines lays out a report in display order. Values are printed as received.
func ResultLines(report weather.Report) []Line {
	m := report.Main
	return []Line{
		{Class: "text-2xl font-bold", Text: "Clima en " + report.City},
		{Class: "text-6xl font-bold mt-4 text-center", Text: formatNumber(m.Temp) + "°C"},
		{Class: "text-xl", Text: "Mín: " + formatNumber(m.TempMin) + "°C"},
		{Class: "text-xl", Text: "Máx: " + formatNumber(m.TempMax) + "°C"},
		{Class: "text-xl", Text: "Sensación térmica: " + formatNumber(m.FeelsLike) + "°C"},
		{Class: "text-xl", Text: "Humedad: " + formatNumber(m.Humidity) + "%"},
		{Class: "text-xl", Text: "Presión: " + formatNumber(m.Pressure) + " kPa"},
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
