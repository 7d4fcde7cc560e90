package localserver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadySignalOnMarker(t *testing.T) {
	p := &Process{
		Command: "sh",
		Args:    []string{"-c", "echo starting; sleep 0.05; echo Ready to serve; sleep 5"},
		Timeout: 2 * time.Second,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	require.NoError(t, p.Start(ctx))
	defer p.Stop()

	err := p.ReadySignal(ctx)
	assert.NoError(t, err)
}

func TestReadySignalTimesOutWithoutMarker(t *testing.T) {
	p := &Process{
		Command: "sh",
		Args:    []string{"-c", "sleep 5"},
		Timeout: 100 * time.Millisecond,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, p.Start(ctx))
	defer p.Stop()

	err := p.ReadySignal(ctx)
	assert.Error(t, err)
}

func TestReadySignalReturnsErrorWhenProcessExitsEarly(t *testing.T) {
	p := &Process{
		Command: "sh",
		Args:    []string{"-c", "exit 1"},
		Timeout: 2 * time.Second,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, p.Start(ctx))
	defer p.Stop()

	err := p.ReadySignal(ctx)
	assert.Error(t, err)
}
