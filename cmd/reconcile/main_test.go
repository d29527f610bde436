package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/riconcilia/src/services"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitPrecondition, exitCode(services.ErrTheoreticalExportMissing))
	assert.Equal(t, exitPrecondition, exitCode(fmt.Errorf("%w: sheet is empty", services.ErrNoTheoreticalData)))
	assert.Equal(t, exitFailure, exitCode(services.ErrRunInProgress))
	assert.Equal(t, exitFailure, exitCode(errors.New("disk I/O error")))
}

func TestRun_RequiresInput(t *testing.T) {
	prevArgs, prevFlags := os.Args, flag.CommandLine
	t.Cleanup(func() {
		os.Args, flag.CommandLine = prevArgs, prevFlags
	})
	flag.CommandLine = flag.NewFlagSet("reconcile", flag.ContinueOnError)
	flag.CommandLine.SetOutput(io.Discard)
	os.Args = []string{"reconcile"}

	assert.Equal(t, exitFailure, run())
}
