package capability

import (
	"sort"
	"sync"
)

// Vocabulary converts one platform's enumerations into the abstract sets.
// Every method returns false for values it does not know; callers drop those.
type Vocabulary interface {
	Name() string

	Position(raw int) (Position, bool)
	HardwareLevel(raw int) (HardwareLevel, bool)
	AFMode(raw int) (AFMode, bool)
	AEMode(raw int) (AEMode, bool)
	AWBMode(raw int) (AWBMode, bool)
	DigitalStabilization(raw int) (DigitalStabilization, bool)
	OpticalStabilization(raw int) (OpticalStabilization, bool)
	StreamStabilization(raw int) (StabilizationMode, bool)
	HdrProfile(raw int64) (HdrProfile, bool)
	PixelFormat(raw int) (PixelFormat, bool)
	ProcessingQuality(raw int) (ProcessingQuality, bool)

	// Features derives the feature flags a platform reports indirectly,
	// through capability lists, scene modes or version gates.
	Features(raw *RawCharacteristics) Features
}

// Features are device flags derived by a Vocabulary.
type Features struct {
	SupportsZsl                 bool
	SupportsSnapshotCapture     bool
	SupportsDepthCapture        bool
	SupportsLowLightBoost       bool
	SupportsPhotoHdr            bool
	SupportsZoomRatio           bool
	PreviewStabilizationAllowed bool
	VideoHdrAllowed             bool
	AutoFocusSystem             AutoFocusSystem
}

var (
	vocabMu      sync.RWMutex
	vocabularies = make(map[string]Vocabulary)
)

// RegisterVocabulary makes a platform vocabulary available to Resolve.
func RegisterVocabulary(v Vocabulary) {
	vocabMu.Lock()
	defer vocabMu.Unlock()
	vocabularies[v.Name()] = v
}

// LookupVocabulary returns a vocabulary by platform name.
func LookupVocabulary(name string) (Vocabulary, bool) {
	vocabMu.RLock()
	defer vocabMu.RUnlock()
	v, ok := vocabularies[name]
	return v, ok
}

// Vocabularies returns the registered platform names, sorted.
func Vocabularies() []string {
	vocabMu.RLock()
	defer vocabMu.RUnlock()
	names := make([]string, 0, len(vocabularies))
	for name := range vocabularies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	RegisterVocabulary(Camera2{})
	RegisterVocabulary(AVFoundation{})
}

func lookup[K comparable, V any](table map[K]V, raw K) (V, bool) {
	v, ok := table[raw]
	return v, ok
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// Camera2 speaks the Android camera2 constants.
type Camera2 struct{}

// camera2 REQUEST_AVAILABLE_CAPABILITIES values.
const (
	camera2CapBackwardCompatible  = 0
	camera2CapPrivateReprocessing = 4
	camera2CapYUVReprocessing     = 7
	camera2CapDepthOutput         = 8
	camera2CapTenBitOutput        = 18
)

// camera2 scene modes and extension ids.
const (
	camera2SceneNight     = 5
	camera2SceneHDR       = 18
	camera2ExtensionHDR   = 3
	camera2ExtensionNight = 4
)

// camera2 LENS_INFO_FOCUS_DISTANCE_CALIBRATION_CALIBRATED.
const camera2FocusCalibrated = 2

// camera2 platform versions.
const (
	camera2VersionR        = 30
	camera2VersionTiramisu = 33
)

var (
	camera2Positions = map[int]Position{0: PositionFront, 1: PositionBack, 2: PositionExternal}
	camera2Levels    = map[int]HardwareLevel{
		0: HardwareLevelLimited,
		1: HardwareLevelFull,
		2: HardwareLevelLegacy,
		3: HardwareLevel3,
		4: HardwareLevelLimited, // external
	}
	camera2AF = map[int]AFMode{
		0: AFModeOff,
		1: AFModeAuto,
		2: AFModeMacro,
		3: AFModeContinuousVideo,
		4: AFModeContinuousPicture,
		5: AFModeExtendedDepthField,
	}
	camera2AE = map[int]AEMode{
		0: AEModeOff,
		1: AEModeOn,
		2: AEModeOnAutoFlash,
		3: AEModeOnAlwaysFlash,
		4: AEModeOnAutoFlashRedEye,
		5: AEModeOnExternalFlash,
	}
	camera2AWB = map[int]AWBMode{
		0: AWBModeOff,
		1: AWBModeAuto,
		2: AWBModeIncandescent,
		3: AWBModeFluorescent,
		5: AWBModeDaylight,
		6: AWBModeCloudy,
		8: AWBModeShade,
	}
	camera2Digital = map[int]DigitalStabilization{
		0: DigitalStabilizationOff,
		1: DigitalStabilizationOn,
		2: DigitalStabilizationPreview,
	}
	camera2Optical = map[int]OpticalStabilization{0: OpticalStabilizationOff, 1: OpticalStabilizationOn}
	camera2Stream  = map[int]StabilizationMode{
		0: StabilizationOff,
		1: StabilizationStandard,
		2: StabilizationCinematic,
	}
	camera2Hdr = map[int64]HdrProfile{
		0x2:   HdrProfileHLG10,
		0x4:   HdrProfileHDR10,
		0x8:   HdrProfileHDR10Plus,
		0x10:  HdrProfileDolbyVision,
		0x20:  HdrProfileDolbyVision,
		0x40:  HdrProfileDolbyVision,
		0x80:  HdrProfileDolbyVision,
		0x100: HdrProfileDolbyVision,
		0x200: HdrProfileDolbyVision,
		0x400: HdrProfileDolbyVision,
		0x800: HdrProfileDolbyVision,
	}
	camera2Pixels = map[int]PixelFormat{
		0x23: PixelFormatYUV,    // YUV_420_888
		0x22: PixelFormatNative, // PRIVATE
		0x29: PixelFormatRGB,    // FLEX_RGB_888
		0x2a: PixelFormatRGB,    // FLEX_RGBA_8888
	}
	camera2Quality = map[int]ProcessingQuality{1: ProcessingFast, 2: ProcessingHighQuality}
)

func (Camera2) Name() string { return "camera2" }

func (Camera2) Position(raw int) (Position, bool) { return lookup(camera2Positions, raw) }

func (Camera2) HardwareLevel(raw int) (HardwareLevel, bool) { return lookup(camera2Levels, raw) }

func (Camera2) AFMode(raw int) (AFMode, bool) { return lookup(camera2AF, raw) }

func (Camera2) AEMode(raw int) (AEMode, bool) { return lookup(camera2AE, raw) }

func (Camera2) AWBMode(raw int) (AWBMode, bool) { return lookup(camera2AWB, raw) }

func (Camera2) DigitalStabilization(raw int) (DigitalStabilization, bool) {
	return lookup(camera2Digital, raw)
}

func (Camera2) OpticalStabilization(raw int) (OpticalStabilization, bool) {
	return lookup(camera2Optical, raw)
}

func (Camera2) StreamStabilization(raw int) (StabilizationMode, bool) {
	return lookup(camera2Stream, raw)
}

func (Camera2) HdrProfile(raw int64) (HdrProfile, bool) { return lookup(camera2Hdr, raw) }

func (Camera2) PixelFormat(raw int) (PixelFormat, bool) { return lookup(camera2Pixels, raw) }

func (Camera2) ProcessingQuality(raw int) (ProcessingQuality, bool) {
	return lookup(camera2Quality, raw)
}

func (Camera2) Features(raw *RawCharacteristics) Features {
	caps := raw.Capabilities
	level, _ := Camera2{}.HardwareLevel(raw.HardwareLevel)
	depth := containsInt(caps, camera2CapDepthOutput)

	f := Features{
		SupportsZsl:                 containsInt(caps, camera2CapPrivateReprocessing) || containsInt(caps, camera2CapYUVReprocessing),
		SupportsDepthCapture:        depth,
		SupportsLowLightBoost:       containsInt(raw.Extensions, camera2ExtensionNight) || containsInt(raw.SceneModes, camera2SceneNight),
		SupportsPhotoHdr:            containsInt(raw.Extensions, camera2ExtensionHDR) || containsInt(raw.SceneModes, camera2SceneHDR),
		SupportsZoomRatio:           raw.PlatformVersion >= camera2VersionR,
		PreviewStabilizationAllowed: raw.PlatformVersion >= camera2VersionTiramisu,
		VideoHdrAllowed:             raw.PlatformVersion >= camera2VersionTiramisu && containsInt(caps, camera2CapTenBitOutput),
		AutoFocusSystem:             AutoFocusNone,
	}

	// Snapshot template needs a full pipeline; depth-only sensors cannot
	// produce regular frames.
	f.SupportsSnapshotCapture = level != HardwareLevelLegacy &&
		!(depth && !containsInt(caps, camera2CapBackwardCompatible))

	if containsInt(raw.AFModes, 1) {
		if raw.FocusSystem == camera2FocusCalibrated {
			f.AutoFocusSystem = AutoFocusPhaseDetection
		} else {
			f.AutoFocusSystem = AutoFocusContrastDetection
		}
	}
	return f
}

// AVFoundation speaks the AVFoundation constants.
//
// AVFoundation has no capability list, so profiles report device
// features through the AVFoundationFeature flags in RawCharacteristics.Capabilities.
type AVFoundation struct{}

// AVFoundationFeature flags reported in RawCharacteristics.Capabilities.
const (
	AVFoundationFeatureZeroShutterLag = 1
	AVFoundationFeatureDepth          = 2
	AVFoundationFeatureLowLightBoost  = 3
	AVFoundationFeatureHighPhotoHdr   = 4
	AVFoundationFeatureVideoHdr       = 5
)

const avfoundationPreviewStabilizationVersion = 17

var (
	avfPositions = map[int]Position{0: PositionExternal, 1: PositionBack, 2: PositionFront}
	avfFocus     = map[int]AFMode{
		0: AFModeOff,
		1: AFModeAuto,
		2: AFModeContinuousPicture,
	}
	avfExposure = map[int]AEMode{
		0: AEModeOff,
		1: AEModeOn,
		2: AEModeOn,
		3: AEModeOff, // custom
	}
	avfWhiteBalance = map[int]AWBMode{
		0: AWBModeOff,
		1: AWBModeAuto,
		2: AWBModeAuto,
	}
	avfDigital = map[int]DigitalStabilization{
		0: DigitalStabilizationOff,
		1: DigitalStabilizationOn,
		4: DigitalStabilizationPreview, // previewOptimized
	}
	avfOptical = map[int]OpticalStabilization{0: OpticalStabilizationOff, 1: OpticalStabilizationOn}
	avfStream  = map[int]StabilizationMode{
		0: StabilizationOff,
		1: StabilizationStandard,
		2: StabilizationCinematic,
		3: StabilizationCinematicExtended,
	}
	avfHdr = map[int64]HdrProfile{
		1: HdrProfileHLG10,
		2: HdrProfileHDR10,
		3: HdrProfileDolbyVision,
	}
	avfPixels = map[int]PixelFormat{
		875704438:  PixelFormatYUV,    // '420v'
		875704422:  PixelFormatYUV,    // '420f'
		1111970369: PixelFormatRGB,    // 'BGRA'
		2016686640: PixelFormatNative, // 'x420'
	}
	avfQuality = map[int]ProcessingQuality{1: ProcessingFast, 2: ProcessingHighQuality}
)

func (AVFoundation) Name() string { return "avfoundation" }

func (AVFoundation) Position(raw int) (Position, bool) { return lookup(avfPositions, raw) }

// HardwareLevel is always full; the level is a camera2 concept.
func (AVFoundation) HardwareLevel(int) (HardwareLevel, bool) { return HardwareLevelFull, true }

func (AVFoundation) AFMode(raw int) (AFMode, bool) { return lookup(avfFocus, raw) }

func (AVFoundation) AEMode(raw int) (AEMode, bool) { return lookup(avfExposure, raw) }

func (AVFoundation) AWBMode(raw int) (AWBMode, bool) { return lookup(avfWhiteBalance, raw) }

func (AVFoundation) DigitalStabilization(raw int) (DigitalStabilization, bool) {
	return lookup(avfDigital, raw)
}

func (AVFoundation) OpticalStabilization(raw int) (OpticalStabilization, bool) {
	return lookup(avfOptical, raw)
}

func (AVFoundation) StreamStabilization(raw int) (StabilizationMode, bool) {
	return lookup(avfStream, raw)
}

func (AVFoundation) HdrProfile(raw int64) (HdrProfile, bool) { return lookup(avfHdr, raw) }

func (AVFoundation) PixelFormat(raw int) (PixelFormat, bool) { return lookup(avfPixels, raw) }

func (AVFoundation) ProcessingQuality(raw int) (ProcessingQuality, bool) {
	return lookup(avfQuality, raw)
}

func (AVFoundation) Features(raw *RawCharacteristics) Features {
	caps := raw.Capabilities
	f := Features{
		SupportsZsl:                 containsInt(caps, AVFoundationFeatureZeroShutterLag),
		SupportsSnapshotCapture:     true,
		SupportsDepthCapture:        containsInt(caps, AVFoundationFeatureDepth),
		SupportsLowLightBoost:       containsInt(caps, AVFoundationFeatureLowLightBoost),
		SupportsPhotoHdr:            containsInt(caps, AVFoundationFeatureHighPhotoHdr),
		SupportsZoomRatio:           true,
		PreviewStabilizationAllowed: raw.PlatformVersion >= avfoundationPreviewStabilizationVersion,
		VideoHdrAllowed:             containsInt(caps, AVFoundationFeatureVideoHdr),
	}
	switch raw.FocusSystem {
	case 1:
		f.AutoFocusSystem = AutoFocusContrastDetection
	case 2:
		f.AutoFocusSystem = AutoFocusPhaseDetection
	default:
		f.AutoFocusSystem = AutoFocusNone
	}
	return f
}

var (
	_ Vocabulary = Camera2{}
	_ Vocabulary = AVFoundation{}
)
