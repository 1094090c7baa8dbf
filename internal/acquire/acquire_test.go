package acquire

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/ytclipper/internal/process"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/process/processtest"
	"github.com/therealutkarshpriyadarshi/ytclipper/pkg/models"
)

const (
	testID  = "dQw4w9WgXcQ"
	testURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	botErr  = "ERROR: [youtube] dQw4w9WgXcQ: Sign in to confirm you're not a bot"
)

func testConfig(dir string) Config {
	return Config{
		YtdlpPath:            "yt-dlp",
		WorkDir:              dir,
		UserAgent:            "test-agent",
		PrimaryAuthContext:   "chrome",
		FallbackAuthContexts: []string{"firefox", "edge", "safari"},
		BotSignatures:        []string{"Sign in to confirm you're not a bot", "cookies"},
		PrimaryPacing:        Pacing{Min: 1, Max: 3},
		FallbackPacing:       Pacing{Min: 2, Max: 5},
		LastResortPacing:     Pacing{Min: 3, Max: 8},
	}
}

// writeOutput simulates yt-dlp writing the downloaded file.
func writeOutput(t *testing.T, call processtest.Call, ext string) {
	t.Helper()
	out := strings.Replace(call.Value("-o"), "%(ext)s", ext, 1)
	require.NoError(t, os.WriteFile(out, []byte("video-bytes"), 0644))
}

func TestDownloadPrimarySuccess(t *testing.T) {
	dir := t.TempDir()
	runner := processtest.NewRunner(func(ctx context.Context, call processtest.Call) (process.Result, error) {
		writeOutput(t, call, "mp4")
		return processtest.Exit(0, ""), nil
	})

	path, err := New(testConfig(dir), runner, nil).Download(context.Background(), testID, testURL)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, testID+".mp4"), path)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "chrome", calls[0].Value("--cookies-from-browser"))
	assert.Equal(t, bestFormat, calls[0].Value("-f"))
	assert.Equal(t, "1", calls[0].Value("--sleep-interval"))
	assert.Equal(t, "3", calls[0].Value("--max-sleep-interval"))
	assert.Equal(t, referer, calls[0].Value("--referer"))
	assert.Equal(t, testURL, calls[0].Args[0])
}

func TestDownloadBotDetectionWalksFallbacksInOrder(t *testing.T) {
	dir := t.TempDir()
	runner := processtest.NewRunner(func(ctx context.Context, call processtest.Call) (process.Result, error) {
		switch call.Value("--cookies-from-browser") {
		case "chrome":
			return processtest.Exit(1, botErr), nil
		case "firefox":
			return processtest.Exit(1, "ERROR: could not find firefox cookies database"), nil
		case "edge":
			writeOutput(t, call, "mp4")
			return processtest.Exit(0, ""), nil
		}
		t.Fatalf("unexpected call %s", call)
		return process.Result{}, nil
	})

	path, err := New(testConfig(dir), runner, nil).Download(context.Background(), testID, testURL)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, testID+".mp4"), path)

	var browsers []string
	for _, c := range runner.Calls() {
		browsers = append(browsers, c.Value("--cookies-from-browser"))
	}
	assert.Equal(t, []string{"chrome", "firefox", "edge"}, browsers)
	assert.Equal(t, "2", runner.Calls()[1].Value("--sleep-interval"))
	assert.Equal(t, "5", runner.Calls()[1].Value("--max-sleep-interval"))
}

func TestDownloadAllStrategiesFail(t *testing.T) {
	dir := t.TempDir()
	partial := filepath.Join(dir, testID+".f137.mp4.part")
	runner := processtest.NewRunner(func(ctx context.Context, call processtest.Call) (process.Result, error) {
		require.NoError(t, os.WriteFile(partial, []byte("half"), 0644))
		return processtest.Exit(1, botErr), nil
	})

	_, err := New(testConfig(dir), runner, nil).Download(context.Background(), testID, testURL)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrAcquisitionFailed)
	assert.Contains(t, models.DetailOf(err), "not a bot")
	assert.NoFileExists(t, partial)

	calls := runner.Calls()
	require.Len(t, calls, 5)
	last := calls[4]
	assert.False(t, last.Has("--cookies-from-browser"))
	assert.Equal(t, worstFormat, last.Value("-f"))
	assert.Equal(t, "3", last.Value("--sleep-interval"))
	assert.Equal(t, "8", last.Value("--max-sleep-interval"))
}

func TestDownloadNonBotFailureSkipsAlternateContexts(t *testing.T) {
	dir := t.TempDir()
	runner := processtest.NewRunner(func(ctx context.Context, call processtest.Call) (process.Result, error) {
		if call.Has("--cookies-from-browser") {
			return processtest.Exit(1, "ERROR: HTTP Error 403: Forbidden"), nil
		}
		writeOutput(t, call, "mp4")
		return processtest.Exit(0, ""), nil
	})

	path, err := New(testConfig(dir), runner, nil).Download(context.Background(), testID, testURL)
	require.NoError(t, err)
	assert.FileExists(t, path)

	calls := runner.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "chrome", calls[0].Value("--cookies-from-browser"))
	assert.Equal(t, worstFormat, calls[1].Value("-f"))
}

func TestDownloadBotSignatureIsCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	runner := processtest.NewRunner(func(ctx context.Context, call processtest.Call) (process.Result, error) {
		if call.Value("--cookies-from-browser") == "firefox" {
			writeOutput(t, call, "mp4")
			return processtest.Exit(0, ""), nil
		}
		return processtest.Exit(1, "ERROR: use --COOKIES for the authentication"), nil
	})

	_, err := New(testConfig(dir), runner, nil).Download(context.Background(), testID, testURL)
	require.NoError(t, err)
	assert.Len(t, runner.Calls(), 2)
}

func TestDownloadExitZeroWithoutFileRetries(t *testing.T) {
	dir := t.TempDir()
	runner := processtest.NewRunner(func(ctx context.Context, call processtest.Call) (process.Result, error) {
		if call.Has("--cookies-from-browser") {
			return processtest.Exit(0, ""), nil
		}
		writeOutput(t, call, "mp4")
		return processtest.Exit(0, ""), nil
	})

	path, err := New(testConfig(dir), runner, nil).Download(context.Background(), testID, testURL)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, testID+".mp4"), path)
	assert.Len(t, runner.Calls(), 2)
}

func TestDownloadLocatesAlternateContainer(t *testing.T) {
	dir := t.TempDir()
	runner := processtest.NewRunner(func(ctx context.Context, call processtest.Call) (process.Result, error) {
		writeOutput(t, call, "webm")
		return processtest.Exit(0, ""), nil
	})

	path, err := New(testConfig(dir), runner, nil).Download(context.Background(), testID, testURL)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, testID+".webm"), path)
}

func TestDownloadIgnoresUnknownExtensions(t *testing.T) {
	dir := t.TempDir()
	runner := processtest.NewRunner(func(ctx context.Context, call processtest.Call) (process.Result, error) {
		writeOutput(t, call, "json")
		return processtest.Exit(0, ""), nil
	})

	_, err := New(testConfig(dir), runner, nil).Download(context.Background(), testID, testURL)
	assert.ErrorIs(t, err, models.ErrAcquisitionFailed)
	assert.Len(t, runner.Calls(), 2)
}

func TestDownloadCancelledRemovesPartials(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	partial := filepath.Join(dir, testID+".f137.mp4.part")

	runner := processtest.NewRunner(func(ctx context.Context, call processtest.Call) (process.Result, error) {
		require.NoError(t, os.WriteFile(partial, []byte("half"), 0644))
		cancel()
		return process.Result{ExitCode: -1}, ctx.Err()
	})

	_, err := New(testConfig(dir), runner, nil).Download(ctx, testID, testURL)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrAcquisitionFailed)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.NoFileExists(t, partial)
	assert.Len(t, runner.Calls(), 1)
}

func TestStrategyArgs(t *testing.T) {
	cfg := testConfig("/work")

	last := cfg.LastResort().Args("/work", testID, testURL, "ua")
	assert.NotContains(t, last, "--cookies-from-browser")
	assert.NotContains(t, last, "--referer")
	assert.Contains(t, last, "--no-warnings")

	fallbacks := cfg.Fallbacks()
	require.Len(t, fallbacks, 3)
	assert.Equal(t, "fallback:safari", fallbacks[2].Name)
	assert.Equal(t, filepath.Join("/work", testID+".%(ext)s"), processtest.Call{Args: last}.Value("-o"))
}
