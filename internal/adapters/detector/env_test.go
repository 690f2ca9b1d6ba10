package detector_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sift/internal/adapters/detector"
	"go.trai.ch/sift/internal/core/domain"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		isTTY bool
		ci    bool
		want  detector.LogFormat
	}{
		{name: "interactive terminal", isTTY: true, want: detector.FormatPretty},
		{name: "terminal in CI", isTTY: true, ci: true, want: detector.FormatPlain},
		{name: "redirected", isTTY: false, want: detector.FormatPlain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detector.Detect(tt.isTTY, tt.ci))
		})
	}
}

func TestDetectLogFormat_RedirectedFile(t *testing.T) {
	t.Setenv("CI", "")

	f, err := os.Create(filepath.Join(t.TempDir(), "log"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	assert.Equal(t, detector.FormatPlain, detector.DetectLogFormat(f))
}

func TestParseLogFormat(t *testing.T) {
	tests := []struct {
		value string
		want  detector.LogFormat
	}{
		{value: "", want: detector.FormatAuto},
		{value: "auto", want: detector.FormatAuto},
		{value: "Pretty", want: detector.FormatPretty},
		{value: "plain", want: detector.FormatPlain},
		{value: " json ", want: detector.FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := detector.ParseLogFormat(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := detector.ParseLogFormat("xml")
	require.ErrorIs(t, err, domain.ErrInvalidLogFormat)
}

func TestResolveLogFormat(t *testing.T) {
	assert.Equal(t, detector.FormatPlain, detector.ResolveLogFormat(detector.FormatPlain, detector.FormatAuto))
	assert.Equal(t, detector.FormatJSON, detector.ResolveLogFormat(detector.FormatPretty, detector.FormatJSON))
	assert.Equal(t, "json", detector.FormatJSON.String())
	assert.Equal(t, "auto", detector.FormatAuto.String())
}
