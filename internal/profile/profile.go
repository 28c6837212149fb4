// Package profile reads device characteristic profiles: YAML files holding
// what a platform camera subsystem reports for each device.
package profile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/video-system/go-capture-negotiation/pkg/capability"
)

// Load reads every YAML document in the file at path. Each document
// describes one device. Unknown keys are an error.
func Load(path string) ([]capability.RawCharacteristics, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profile: %w", err)
	}
	defer f.Close()

	devices, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return devices, nil
}

// Decode reads every YAML document from r.
func Decode(r io.Reader) ([]capability.RawCharacteristics, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var devices []capability.RawCharacteristics
	for {
		var raw capability.RawCharacteristics
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", len(devices), err)
		}
		devices = append(devices, raw)
	}
	if len(devices) == 0 {
		return nil, errors.New("no devices")
	}
	return devices, nil
}

// LoadAll reads every profile in paths, in order.
func LoadAll(paths []string) ([]capability.RawCharacteristics, error) {
	var devices []capability.RawCharacteristics
	for _, p := range paths {
		loaded, err := Load(p)
		if err != nil {
			return nil, err
		}
		devices = append(devices, loaded...)
	}
	return devices, nil
}
