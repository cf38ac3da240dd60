package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateError(t *testing.T) {
	short := "connection refused"
	assert.Equal(t, short, TruncateError(short))

	long := strings.Repeat("x", ErrorTextLimit+500)
	truncated := TruncateError(long)
	assert.Len(t, truncated, ErrorTextLimit)
}

func TestIsReprocessCandidate(t *testing.T) {
	tests := []struct {
		status RawFileStatus
		want   bool
	}{
		{RawFileStatusDiscovered, true},
		{RawFileStatusUploaded, true},
		{RawFileStatusLoading, true},
		{RawFileStatusFailed, true},
		{RawFileStatusLoaded, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			record := &RawFile{Status: tt.status}
			assert.Equal(t, tt.want, record.IsReprocessCandidate())
		})
	}
}

func TestIngestRunFileOutcomes(t *testing.T) {
	run := &IngestRun{Chain: "shufersal"}

	outcomes, err := run.GetFileOutcomes()
	require.NoError(t, err)
	assert.Empty(t, outcomes)

	items := 12
	require.NoError(t, run.SetFileOutcomes([]FileOutcome{
		{Filename: "PriceFull1-001-202608290300.gz", Outcome: FileOutcomeLoaded, Items: items},
	}))

	outcomes, err = run.GetFileOutcomes()
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, FileOutcomeLoaded, outcomes[0].Outcome)
	assert.Equal(t, items, outcomes[0].Items)
}
