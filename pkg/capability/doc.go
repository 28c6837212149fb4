// Package capability models what a physical camera device can do.
//
// A DeviceCapabilities value is built once per device open by Resolve, from
// the raw characteristics the platform camera subsystem reports. Platform
// enumerations (camera2 integer constants, AVFoundation integer constants)
// are converted at this boundary by a Vocabulary into abstract tagged sets,
// so nothing past Resolve depends on one operating system's vocabulary.
//
// # Immutability
//
// A DeviceCapabilities is never modified after Resolve returns it. Sets are
// Set values with unexported storage and slices are copied in and out, so a
// single snapshot can be read concurrently, without locking, by every request
// builder attached to the device. Changing device or format means resolving a
// fresh snapshot; there are no incremental updates.
package capability
