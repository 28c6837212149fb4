// Package camerror defines the structured errors raised while negotiating
// camera capabilities and resolving capture requests.
//
// Every error carries a code of the form "domain/id" (for example
// "format/invalid-fps"), the name of the offending parameter, the value that
// was requested and, where applicable, the precondition that was not met.
// Errors are raised synchronously at build time, before any hardware call.
package camerror

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error by who has to act on it.
type Kind int

const (
	// KindParameter is a malformed or out-of-range intent: invalid fps,
	// unsupported stabilization mode, missing format.
	KindParameter Kind = iota
	// KindDevice is a feature the device physically does not have.
	KindDevice
	// KindSession is a submission failure reported by the capture session.
	KindSession
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindParameter:
		return "parameter"
	case KindDevice:
		return "device"
	case KindSession:
		return "session"
	default:
		return "unknown"
	}
}

// Error domains.
const (
	DomainParameter = "parameter"
	DomainFormat    = "format"
	DomainDevice    = "device"
	DomainSession   = "session"
)

// Error is a negotiation failure tagged with the originating parameter.
type Error struct {
	Kind   Kind
	Domain string
	ID     string

	// Param is the intent or filter field that caused the failure.
	Param string
	// Value is the requested value, if any.
	Value any
	// Precondition describes the unmet requirement.
	Precondition string
	// Message is a human readable description.
	Message string

	// Err is the wrapped cause. Session errors keep the collaborator error here.
	Err error
}

// Code returns "domain/id".
func (e *Error) Code() string {
	return e.Domain + "/" + e.ID
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(e.Code())
	b.WriteString("]")
	if e.Param != "" {
		b.WriteString(" ")
		b.WriteString(e.Param)
		if e.Value != nil {
			fmt.Fprintf(&b, "=%v", e.Value)
		}
		b.WriteString(":")
	}
	if e.Message != "" {
		b.WriteString(" ")
		b.WriteString(e.Message)
	}
	if e.Precondition != "" {
		b.WriteString(" (")
		b.WriteString(e.Precondition)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Domain == t.Domain && e.ID == t.ID
}

// Sentinels for errors.Is comparisons. They carry only a code.
var (
	ErrInvalidFps                = &Error{Kind: KindParameter, Domain: DomainFormat, ID: "invalid-fps"}
	ErrInvalidStabilizationMode  = &Error{Kind: KindParameter, Domain: DomainFormat, ID: "invalid-video-stabilization-mode"}
	ErrFormatRequired            = &Error{Kind: KindParameter, Domain: DomainFormat, ID: "format-required"}
	ErrInvalidVideoHdr           = &Error{Kind: KindParameter, Domain: DomainFormat, ID: "invalid-video-hdr"}
	ErrInvalidPhotoHdr           = &Error{Kind: KindParameter, Domain: DomainFormat, ID: "invalid-photo-hdr"}
	ErrInvalidZoom               = &Error{Kind: KindParameter, Domain: DomainParameter, ID: "invalid-zoom"}
	ErrInvalidExposure           = &Error{Kind: KindParameter, Domain: DomainParameter, ID: "invalid-exposure"}
	ErrInvalidFocusDistance      = &Error{Kind: KindParameter, Domain: DomainParameter, ID: "invalid-focus-distance"}
	ErrInvalidFilter             = &Error{Kind: KindParameter, Domain: DomainParameter, ID: "invalid-filter"}
	ErrInvalidParameter          = &Error{Kind: KindParameter, Domain: DomainParameter, ID: "invalid-parameter"}
	ErrLowLightBoostNotSupported = &Error{Kind: KindDevice, Domain: DomainDevice, ID: "low-light-boost-not-supported"}
	ErrFlashUnavailable          = &Error{Kind: KindDevice, Domain: DomainDevice, ID: "flash-unavailable"}
	ErrFocusNotSupported         = &Error{Kind: KindDevice, Domain: DomainDevice, ID: "focus-not-supported"}
	ErrNoFormats                 = &Error{Kind: KindDevice, Domain: DomainDevice, ID: "no-formats"}
	ErrInvalidCharacteristics    = &Error{Kind: KindDevice, Domain: DomainDevice, ID: "invalid-characteristics"}
	ErrUnknownDevice             = &Error{Kind: KindDevice, Domain: DomainDevice, ID: "no-device"}
	ErrSession                   = &Error{Kind: KindSession, Domain: DomainSession, ID: "submission-failed"}
)

func from(sentinel *Error, param string, value any, precondition, message string) *Error {
	return &Error{
		Kind:         sentinel.Kind,
		Domain:       sentinel.Domain,
		ID:           sentinel.ID,
		Param:        param,
		Value:        value,
		Precondition: precondition,
		Message:      message,
	}
}

// InvalidFps reports an fps the active format cannot run at.
func InvalidFps(fps, maxFps int) *Error {
	return from(ErrInvalidFps, "fps", fps,
		fmt.Sprintf("fps must be greater than 0 and at most format.maxFps (%d)", maxFps),
		"the given format cannot run at the requested frame rate")
}

// InvalidStabilizationMode reports a stabilization mode that cannot be used.
// precondition names the check that failed.
func InvalidStabilizationMode(mode, precondition string) *Error {
	return from(ErrInvalidStabilizationMode, "videoStabilizationMode", mode, precondition,
		"request one of the stabilization modes the device and format advertise")
}

// FormatRequired reports a parameter that needs an active format.
func FormatRequired(param string) *Error {
	return from(ErrFormatRequired, param, nil,
		fmt.Sprintf("format must be set before requesting %s", param),
		"the parameter requires a format to be set, but format was nil")
}

// InvalidVideoHdr reports video HDR on a format without HDR support.
func InvalidVideoHdr() *Error {
	return from(ErrInvalidVideoHdr, "videoHdr", true,
		"format.supportsVideoHdr must be true",
		"the given format does not support video HDR")
}

// InvalidPhotoHdr reports photo HDR on a format without HDR support.
func InvalidPhotoHdr() *Error {
	return from(ErrInvalidPhotoHdr, "photoHdr", true,
		"format.supportsPhotoHdr must be true",
		"the given format does not support photo HDR")
}

// LowLightBoostNotSupported reports low-light boost on a device without it.
func LowLightBoostNotSupported() *Error {
	return from(ErrLowLightBoostNotSupported, "lowLightBoost", true,
		"device.supportsLowLightBoost must be true",
		"the camera device does not support low-light boost")
}

// FlashUnavailable reports torch or flash use on a device without a flash unit.
func FlashUnavailable(param string, value any) *Error {
	return from(ErrFlashUnavailable, param, value,
		"device.hasFlash must be true",
		"the camera device does not have a flash unit")
}

// FocusNotSupported reports manual focus on a device that cannot focus.
func FocusNotSupported(param string, value any) *Error {
	return from(ErrFocusNotSupported, param, value,
		"device must support manual focus",
		"the camera device does not support focusing")
}

// InvalidFocusDistance reports a focus distance outside the lens range.
func InvalidFocusDistance(distance, max float64) *Error {
	return from(ErrInvalidFocusDistance, "focusDistance", distance,
		fmt.Sprintf("focus distance must be within [0, %g] diopters", max),
		"the lens cannot focus at the requested distance")
}

// InvalidZoom reports a zoom factor outside the device zoom range.
func InvalidZoom(zoom, min, max float64) *Error {
	return from(ErrInvalidZoom, "zoom", zoom,
		fmt.Sprintf("zoom must be within [%g, %g]", min, max),
		"the zoom factor is outside the device zoom range")
}

// InvalidExposure reports an exposure bias that is not a number.
func InvalidExposure(bias float64) *Error {
	return from(ErrInvalidExposure, "exposure", bias,
		"exposure bias must be a number",
		"the exposure bias cannot be applied")
}

// InvalidParameter reports an intent field outside its enumeration.
func InvalidParameter(param string, value any, precondition string) *Error {
	return from(ErrInvalidParameter, param, value, precondition,
		"the parameter value is not recognized")
}

// InvalidFilter reports a malformed format filter entry.
func InvalidFilter(index int, reason string) *Error {
	return from(ErrInvalidFilter, fmt.Sprintf("filter[%d]", index), nil, reason,
		"the format filter is invalid")
}

// NoFormats reports a device without any formats.
func NoFormats(deviceID string) *Error {
	return from(ErrNoFormats, "device", deviceID, "",
		"the camera device does not have any formats")
}

// InvalidCharacteristics reports raw characteristics that violate an invariant.
func InvalidCharacteristics(field, reason string) *Error {
	return from(ErrInvalidCharacteristics, field, nil, reason,
		"the reported device characteristics are invalid")
}

// UnknownDevice reports a device id without an open snapshot.
func UnknownDevice(deviceID string) *Error {
	return from(ErrUnknownDevice, "device", deviceID, "device must be opened first",
		"no camera device with this id is open")
}

// Session wraps a capture-session failure. The original error is kept
// unmodified and stays reachable through errors.Is and errors.As.
func Session(op string, err error) *Error {
	e := from(ErrSession, op, nil, "", "")
	e.Err = err
	return e
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, and false when err is not a negotiation error.
func KindOf(err error) (Kind, bool) {
	e, ok := As(err)
	if !ok {
		return 0, false
	}
	return e.Kind, true
}
