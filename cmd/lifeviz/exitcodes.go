package main

import (
	"errors"

	"github.com/vizwizards/lifeviz/internal/config"
	"github.com/vizwizards/lifeviz/internal/dataset"
	"github.com/vizwizards/lifeviz/internal/pipeline"
)

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (no project, invalid config)
	ExitDataError   = 3 // Data error (unreachable, malformed or schema-violating dataset)
	ExitNoData      = 4 // The selection matched no rows
)

// exitCodeFor maps a pipeline or dataset failure to an exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, pipeline.ErrNoData):
		return ExitNoData
	case errors.Is(err, config.ErrInvalid):
		return ExitConfigError
	case errors.Is(err, pipeline.ErrLoad),
		errors.Is(err, pipeline.ErrSchema),
		errors.Is(err, pipeline.ErrLayout),
		errors.Is(err, dataset.ErrUnreachable),
		errors.Is(err, dataset.ErrMalformed),
		errors.Is(err, dataset.ErrEmpty):
		return ExitDataError
	}
	return ExitError
}
