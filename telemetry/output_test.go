package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/pbd/config"
)

func TestNewOutputManager_Disabled(t *testing.T) {
	om, err := NewOutputManager("")
	require.NoError(t, err)
	assert.Nil(t, om)

	// Nil manager accepts every call
	assert.NoError(t, om.WriteFrame(FrameStats{}))
	assert.NoError(t, om.WritePerf(PerfStats{}, 1))
	assert.NoError(t, om.WriteConfig(config.Default()))
	assert.NoError(t, om.Close())
	assert.Equal(t, "", om.Dir())
}

func TestOutputManager_WritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	require.NoError(t, err)

	require.NoError(t, om.WriteFrame(FrameStats{Frame: 1, Backend: "sequential", Particles: 10}))
	require.NoError(t, om.WriteFrame(FrameStats{Frame: 2, Backend: "parallel", Particles: 12}))
	require.NoError(t, om.WritePerf(PerfStats{AvgStep: time.Millisecond}, 2))
	require.NoError(t, om.WriteConfig(config.Default()))
	require.NoError(t, om.Close())

	f, err := os.Open(filepath.Join(dir, "frames.csv"))
	require.NoError(t, err)
	defer f.Close()

	var rows []FrameStats
	require.NoError(t, gocsv.UnmarshalFile(f, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, int64(2), rows[1].Frame)
	assert.Equal(t, "parallel", rows[1].Backend)
	assert.Equal(t, 12, rows[1].Particles)

	_, err = os.Stat(filepath.Join(dir, "config.yaml"))
	assert.NoError(t, err)
}
