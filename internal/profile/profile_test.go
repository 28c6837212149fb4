package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/video-system/go-capture-negotiation/pkg/capability"
	"github.com/video-system/go-capture-negotiation/pkg/format"
)

func TestLoadTestdata(t *testing.T) {
	devices, err := Load(filepath.Join("testdata", "phone.yaml"))
	require.NoError(t, err)
	require.Len(t, devices, 2)

	back := devices[0]
	assert.Equal(t, "0", back.ID)
	assert.Equal(t, "camera2", back.Platform)
	assert.Equal(t, []int{0x23, 0x22, 0x100}, back.PixelFormats)
	assert.Equal(t, []int{0, 1, 2}, back.ProcessingModes["edge"])
	require.Len(t, back.VideoStreams, 3)
	assert.Equal(t, int64(16666666), back.VideoStreams[0].MinFrameDurationNs)
	assert.Equal(t, 30, back.VideoStreams[0].MaxEncoderFps)

	front := devices[1]
	assert.Equal(t, "avfoundation", front.Platform)
	assert.False(t, front.FlashAvailable)

	for _, raw := range devices {
		caps, err := capability.Resolve(raw)
		require.NoError(t, err, raw.ID)
		assert.NotEmpty(t, format.Enumerate(caps), raw.ID)
	}
}

func TestResolvedTestdata(t *testing.T) {
	devices, err := Load(filepath.Join("testdata", "phone.yaml"))
	require.NoError(t, err)

	back, err := capability.Resolve(devices[0])
	require.NoError(t, err)
	assert.Equal(t, capability.PositionBack, back.Position)
	assert.Equal(t, capability.HardwareLevel3, back.HardwareLevel)
	assert.Equal(t, capability.AutoFocusPhaseDetection, back.AutoFocusSystem)
	assert.True(t, back.SupportsZsl)
	assert.True(t, back.HasVideoHdr())
	assert.Contains(t, back.Unmapped(), "pixel_formats=256")

	front, err := capability.Resolve(devices[1])
	require.NoError(t, err)
	assert.Equal(t, capability.PositionFront, front.Position)
	assert.True(t, front.SupportsLowLightBoost)
	assert.True(t, front.IsPreviewStabilizationSupported())
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("id: \"0\"\nmax_zoooom: 4\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document 0")
}

func TestDecodeEmpty(t *testing.T) {
	_, err := Decode(strings.NewReader(""))
	assert.ErrorContains(t, err, "no devices")
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	extra := filepath.Join(dir, "usb.yaml")
	require.NoError(t, os.WriteFile(extra, []byte("id: usb-1\nlens_facing: 2\nmin_zoom: 1\nmax_zoom: 1\n"), 0644))

	devices, err := LoadAll([]string{filepath.Join("testdata", "phone.yaml"), extra})
	require.NoError(t, err)
	require.Len(t, devices, 3)
	assert.Equal(t, "usb-1", devices[2].ID)

	_, err = LoadAll([]string{filepath.Join(dir, "missing.yaml")})
	assert.ErrorContains(t, err, "open profile")
}
