package process

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunner_Success(t *testing.T) {
	requireShell(t)

	res, err := NewExecRunner().Run(context.Background(), "sh", "-c", "echo out; echo err >&2")
	require.NoError(t, err)
	assert.True(t, res.Success())
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	requireShell(t)

	res, err := NewExecRunner().Run(context.Background(), "sh", "-c", "echo 'Sign in to confirm' >&2; exit 3")
	require.NoError(t, err)
	assert.False(t, res.Success())
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, res.Stderr, "Sign in to confirm")
}

func TestExecRunner_MissingBinary(t *testing.T) {
	res, err := NewExecRunner().Run(context.Background(), "definitely-not-a-real-tool-ytclipper")
	require.Error(t, err)
	assert.Equal(t, -1, res.ExitCode)
}

func TestExecRunner_Cancelled(t *testing.T) {
	requireShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewExecRunner().Run(ctx, "sh", "-c", "sleep 10")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 8*time.Second)
}

func TestCheckTools(t *testing.T) {
	requireShell(t)

	errs := CheckTools(Tool{Name: "shell", Path: "sh"}, Tool{Name: "yt-dlp", Path: "definitely-not-a-real-tool-ytclipper"})
	require.Len(t, errs, 1)

	var depErr *DependencyError
	require.True(t, errors.As(errs[0], &depErr))
	assert.Equal(t, "yt-dlp", depErr.Name)
}
