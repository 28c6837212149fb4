package capability

// RawCharacteristics is what the platform camera subsystem reports for one
// physical device. Enumerated fields hold platform constants and are only
// meaningful together with Platform.
type RawCharacteristics struct {
	ID              string `yaml:"id" json:"id"`
	Name            string `yaml:"name" json:"name"`
	Platform        string `yaml:"platform" json:"platform"`
	PlatformVersion int    `yaml:"platform_version" json:"platform_version"`

	LensFacing    int   `yaml:"lens_facing" json:"lens_facing"`
	HardwareLevel int   `yaml:"hardware_level" json:"hardware_level"`
	Capabilities  []int `yaml:"capabilities" json:"capabilities"`

	SensorSize        SensorSize `yaml:"sensor_size" json:"sensor_size"`
	SensorOrientation int        `yaml:"sensor_orientation" json:"sensor_orientation"`
	ActiveArraySize   Size       `yaml:"active_array_size" json:"active_array_size"`
	FocalLengths      []float64  `yaml:"focal_lengths" json:"focal_lengths"`

	MinZoom float64 `yaml:"min_zoom" json:"min_zoom"`
	MaxZoom float64 `yaml:"max_zoom" json:"max_zoom"`
	MinISO  int     `yaml:"min_iso" json:"min_iso"`
	MaxISO  int     `yaml:"max_iso" json:"max_iso"`

	// Exposure compensation is reported as an index range times a step.
	MinExposureIndex int     `yaml:"min_exposure_index" json:"min_exposure_index"`
	MaxExposureIndex int     `yaml:"max_exposure_index" json:"max_exposure_index"`
	ExposureStep     float64 `yaml:"exposure_step" json:"exposure_step"`

	// MinFocusDistance is in diopters; 0 means a fixed-focus lens.
	MinFocusDistance float64 `yaml:"min_focus_distance" json:"min_focus_distance"`
	// FocusSystem is the focus calibration (camera2) or auto-focus system (avfoundation).
	FocusSystem    int  `yaml:"focus_system" json:"focus_system"`
	FlashAvailable bool `yaml:"flash_available" json:"flash_available"`

	AFModes                   []int   `yaml:"af_modes" json:"af_modes"`
	AEModes                   []int   `yaml:"ae_modes" json:"ae_modes"`
	AWBModes                  []int   `yaml:"awb_modes" json:"awb_modes"`
	VideoStabilizationModes   []int   `yaml:"video_stabilization_modes" json:"video_stabilization_modes"`
	OpticalStabilizationModes []int   `yaml:"optical_stabilization_modes" json:"optical_stabilization_modes"`
	SceneModes                []int   `yaml:"scene_modes" json:"scene_modes"`
	Extensions                []int   `yaml:"extensions" json:"extensions"`
	DynamicRangeProfiles      []int64 `yaml:"dynamic_range_profiles" json:"dynamic_range_profiles"`

	// ProcessingModes lists the available modes per processing stage name.
	ProcessingModes map[string][]int `yaml:"processing_modes" json:"processing_modes"`

	VideoStreams []RawStream `yaml:"video_streams" json:"video_streams"`
	PhotoSizes   []Size      `yaml:"photo_sizes" json:"photo_sizes"`
	PixelFormats []int       `yaml:"pixel_formats" json:"pixel_formats"`
}

// RawStream is one entry of the minimum-frame-duration table.
type RawStream struct {
	Width              int   `yaml:"width" json:"width"`
	Height             int   `yaml:"height" json:"height"`
	MinFrameDurationNs int64 `yaml:"min_frame_duration_ns" json:"min_frame_duration_ns"`
	// MaxEncoderFps is the media encoder limit for this size; 0 if unreported.
	MaxEncoderFps int `yaml:"max_encoder_fps" json:"max_encoder_fps"`
	// StabilizationModes is per-format stabilization support, when the
	// platform reports it. Empty means the device-wide modes apply.
	StabilizationModes []int `yaml:"stabilization_modes" json:"stabilization_modes"`
}
