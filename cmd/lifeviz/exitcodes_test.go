package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vizwizards/lifeviz/internal/charts"
	"github.com/vizwizards/lifeviz/internal/config"
	"github.com/vizwizards/lifeviz/internal/dataset"
	"github.com/vizwizards/lifeviz/internal/pipeline"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"no data", &pipeline.StageError{Chart: "box", Stage: pipeline.StageTransform, Err: pipeline.ErrNoData}, ExitNoData},
		{"invalid config", fmt.Errorf("loading: %w", config.ErrInvalid), ExitConfigError},
		{"unreachable", &dataset.FetchError{Source: "life", Err: dataset.ErrUnreachable}, ExitDataError},
		{"schema", &dataset.SchemaError{Table: "life", Missing: []string{"Period"}}, ExitDataError},
		{"load", fmt.Errorf("%w: world", pipeline.ErrLoad), ExitDataError},
		{"unknown chart", fmt.Errorf("%w: pie", charts.ErrUnknownChart), ExitError},
		{"other", errors.New("boom"), ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" France, ,Japan ,")
	if len(got) != 2 || got[0] != "France" || got[1] != "Japan" {
		t.Errorf("splitList() = %q, want [France Japan]", got)
	}
	if got := splitList(""); got != nil {
		t.Errorf("splitList(\"\") = %q, want nil", got)
	}
}

func TestFormatList(t *testing.T) {
	if got := formatList([]string{"a", "b"}, 3); got != "a, b" {
		t.Errorf("formatList() = %q, want %q", got, "a, b")
	}
	if got := formatList([]string{"a", "b", "c", "d"}, 2); got != "a, b, ... (2 more)" {
		t.Errorf("formatList() = %q, want elided list", got)
	}
}
