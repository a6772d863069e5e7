package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelva-cli/internal/core/domain"
	"github.com/custodia-labs/shelva-cli/internal/core/ports/driving"
)

// mockScanner implements driving.Scanner and records the last request.
type mockScanner struct {
	lastReq driving.ScanRequest
	stats   *domain.ScanStats
	err     error
	calls   int
}

func (m *mockScanner) Scan(_ context.Context, req driving.ScanRequest) (*domain.ScanStats, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	if m.stats != nil {
		return m.stats, nil
	}
	return &domain.ScanStats{}, nil
}

func setupScanTest(mock *mockScanner) func() {
	oldScan := scanService
	scanService = mock
	return func() {
		scanService = oldScan
		scanRoots = nil
		scanExclude = nil
		scanLimit = 0
		scanDryRun = false
		jsonOutput = false
		rootCmd.SetArgs(nil)
	}
}

func TestScanCmd_Use(t *testing.T) {
	assert.Equal(t, "scan", scanCmd.Use)
}

func TestScanCmd_Short(t *testing.T) {
	assert.Equal(t, "Sweep directories and ingest new PDFs into the vault", scanCmd.Short)
}

func TestScanCmd_FlagDefaults(t *testing.T) {
	assert.Equal(t, "[]", scanCmd.Flags().Lookup("roots").DefValue)
	assert.Equal(t, "[]", scanCmd.Flags().Lookup("exclude").DefValue)
	assert.Equal(t, "0", scanCmd.Flags().Lookup("limit").DefValue)
	assert.Equal(t, "false", scanCmd.Flags().Lookup("dry-run").DefValue)
}

func TestScanCmd_ForwardsRequest(t *testing.T) {
	mock := &mockScanner{stats: &domain.ScanStats{
		Discovered:       4,
		CopiedNew:        2,
		DedupedExisting:  1,
		SkippedUnchanged: 1,
	}}
	cleanup := setupScanTest(mock)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"scan", "--roots", "/tmp/sweep", "--exclude", "/tmp/sweep/skip", "--limit", "9"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/sweep"}, mock.lastReq.Roots)
	assert.Equal(t, []string{"/tmp/sweep/skip"}, mock.lastReq.ExcludePrefixes)
	assert.Equal(t, 9, mock.lastReq.Limit)
	assert.False(t, mock.lastReq.DryRun)

	out := buf.String()
	assert.Contains(t, out, "Scan complete")
	assert.Contains(t, out, "discovered")
	assert.Contains(t, out, "4")
}

func TestScanCmd_DefaultRootsWhenFlagOmitted(t *testing.T) {
	mock := &mockScanner{}
	cleanup := setupScanTest(mock)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"scan"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.NotEmpty(t, mock.lastReq.Roots)
}

func TestScanCmd_DryRun(t *testing.T) {
	mock := &mockScanner{}
	cleanup := setupScanTest(mock)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"scan", "--roots", "/tmp/sweep", "--dry-run"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.True(t, mock.lastReq.DryRun)
	assert.Contains(t, buf.String(), "Scan (dry run)")
}

func TestScanCmd_JSONOutput(t *testing.T) {
	mock := &mockScanner{stats: &domain.ScanStats{Discovered: 7, CopiedNew: 3, Errors: 1}}
	cleanup := setupScanTest(mock)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"scan", "--roots", "/tmp/sweep", "--json"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	var got domain.ScanStats
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, *mock.stats, got)
}

func TestScanCmd_ServiceNotConfigured(t *testing.T) {
	oldScan := scanService
	scanService = nil
	defer func() { scanService = oldScan }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"scan"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "scan service not configured")
}

func TestScanCmd_ServiceError(t *testing.T) {
	mock := &mockScanner{err: errors.New("root walk exploded")}
	cleanup := setupScanTest(mock)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"scan", "--roots", "/tmp/sweep"})

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "scan failed")
}
