package retrain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerSuccess(t *testing.T) {
	runner := NewRunner([]string{"echo", "models refreshed"}, 5*time.Second)

	task, err := runner.Trigger(context.Background())
	require.NoError(t, err)

	res, err := task.Wait(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "models refreshed", res.Output)
	assert.Empty(t, res.Error)
	assert.False(t, res.FinishedAt.Before(res.StartedAt))

	last, ok := runner.LastResult()
	require.True(t, ok)
	assert.Equal(t, res.Success, last.Success)
	assert.False(t, runner.Running())
}

func TestTriggerEmptyCommand(t *testing.T) {
	runner := NewRunner(nil, 5*time.Second)

	_, err := runner.Trigger(context.Background())
	assert.ErrorIs(t, err, ErrNoCommand)
	assert.False(t, runner.Running())
}

func TestTriggerRejectsConcurrentRuns(t *testing.T) {
	runner := NewRunner([]string{"sleep", "5"}, 10*time.Second)

	task, err := runner.Trigger(context.Background())
	require.NoError(t, err)

	_, err = runner.Trigger(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	// Let the first run be killed instead of waiting out the sleep.
	waitCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, _ = task.Wait(waitCtx)
}

func TestTriggerCommandFailure(t *testing.T) {
	runner := NewRunner([]string{"false"}, 5*time.Second)

	task, err := runner.Trigger(context.Background())
	require.NoError(t, err)

	res, err := task.Wait(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestTriggerTimeoutKillsCommand(t *testing.T) {
	runner := NewRunner([]string{"sleep", "5"}, 100*time.Millisecond)

	task, err := runner.Trigger(context.Background())
	require.NoError(t, err)

	start := time.Now()
	res, err := task.Wait(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Less(t, time.Since(start), 3*time.Second, "the run must be cut off well before the sleep finishes")
}

func TestTriggerSurvivesCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := NewRunner([]string{"echo", "ok"}, 5*time.Second)

	task, err := runner.Trigger(ctx)
	require.NoError(t, err)
	cancel()

	res, err := task.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success, "cancelling the trigger request must not kill the run")
}

func TestWaitHonoursContext(t *testing.T) {
	runner := NewRunner([]string{"sleep", "5"}, 10*time.Second)

	task, err := runner.Trigger(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = task.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
