package pipeline

import (
	"errors"
	"fmt"

	"github.com/vizwizards/lifeviz/internal/dataset"
	"github.com/vizwizards/lifeviz/internal/layout"
)

// Failure classes. Every error returned by Chart.Update matches exactly one
// of these with errors.Is.
var (
	// ErrLoad indicates a source could not be fetched or parsed.
	ErrLoad = errors.New("load failed")

	// ErrNoData indicates the selection matched no usable rows.
	ErrNoData = errors.New("no data for selection")

	// ErrSchema indicates a required field is missing or unparseable.
	ErrSchema = dataset.ErrSchema

	// ErrLayout indicates a node/link structure the layout rejected.
	ErrLayout = layout.ErrLayout
)

// Stage names one step of the pipeline.
type Stage string

const (
	StageLoad      Stage = "load"
	StageDecode    Stage = "decode"
	StageTransform Stage = "transform"
	StageLayout    Stage = "layout"
	StageRender    Stage = "render"
)

// StageError records which chart and stage failed.
type StageError struct {
	Chart string
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Chart, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// stageError wraps err for stage unless it already carries a stage.
func stageError(chart string, stage Stage, err error) error {
	var se *StageError
	if errors.As(err, &se) {
		if se.Chart == "" {
			se.Chart = chart
		}
		return err
	}
	return &StageError{Chart: chart, Stage: stage, Err: err}
}

// loadError classifies a loader failure as ErrLoad, or ErrSchema when the
// payload parsed but lacked columns.
func loadError(err error) error {
	if errors.Is(err, ErrSchema) || errors.Is(err, ErrLoad) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrLoad, err)
}

// IsNoData reports whether err is an empty-result failure.
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}

// IsLoad reports whether err is a load failure.
func IsLoad(err error) bool {
	return errors.Is(err, ErrLoad)
}

// FailedStage returns the stage recorded in err, or "" if none.
func FailedStage(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// Message is the text shown in place of a chart that failed with err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNoData) {
		return ErrNoData.Error()
	}
	var se *StageError
	if errors.As(err, &se) {
		err = se.Err
	}
	return "error loading data: " + err.Error()
}
