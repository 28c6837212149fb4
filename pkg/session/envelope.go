// Package session hands resolved capture requests to the capture session.
//
// The engine never drives hardware itself. A Submitter receives each resolved
// request wrapped in an Envelope; StreamSubmitter encodes envelopes as
// canonical CBOR onto a byte stream (a pipe to the session process or a
// request log file).
package session

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/video-system/go-capture-negotiation/pkg/request"
)

// Envelope is one request handed to the capture session.
type Envelope struct {
	ID         string              `cbor:"1,keyasint" json:"id"`
	Kind       request.Kind        `cbor:"2,keyasint" json:"kind"`
	DeviceID   string              `cbor:"3,keyasint" json:"device_id"`
	SnapshotID string              `cbor:"4,keyasint" json:"snapshot_id"`
	CreatedAt  time.Time           `cbor:"5,keyasint" json:"created_at"`
	Params     *request.Parameters `cbor:"6,keyasint" json:"params"`
}

// NewEnvelope wraps params resolved against snapshotID.
func NewEnvelope(snapshotID string, params *request.Parameters) *Envelope {
	return &Envelope{
		ID:         uuid.NewString(),
		Kind:       params.Kind,
		DeviceID:   params.DeviceID,
		SnapshotID: snapshotID,
		CreatedAt:  time.Now().UTC(),
		Params:     params,
	}
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create session CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create session CBOR decoder mode: %v", err))
	}
}

// Encode returns the canonical CBOR form of env.
func Encode(env *Envelope) ([]byte, error) {
	return encMode.Marshal(env)
}

// Decode parses one CBOR envelope.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &env, nil
}

// Reader reads a stream of envelopes written by StreamSubmitter.
type Reader struct {
	dec *cbor.Decoder
}

// NewReader creates a Reader on r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: decMode.NewDecoder(r)}
}

// Next returns the next envelope, or io.EOF at the end of the stream.
func (r *Reader) Next() (*Envelope, error) {
	var env Envelope
	if err := r.dec.Decode(&env); err != nil {
		return nil, err
	}
	return &env, nil
}
