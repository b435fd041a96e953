// Package codec encodes texture state snapshots as CBOR.
//
// Encoding is deterministic: the same snapshot always produces the same
// bytes, so dumps can be diffed and hashed. Usage flags are written by name
// through their text marshalers.
package codec

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/gogpu/texstate"
)

// ErrDecode wraps every failure to read a snapshot.
var ErrDecode = errors.New("codec: decode snapshot")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// EncodeSnapshot writes one tracker snapshot to w.
func EncodeSnapshot(w io.Writer, snap texstate.TrackerSnapshot) error {
	if err := encMode.NewEncoder(w).Encode(snap); err != nil {
		return fmt.Errorf("codec: encode snapshot %s: %w", snap.Scope, err)
	}
	return nil
}

// DecodeSnapshot reads one tracker snapshot from r.
func DecodeSnapshot(r io.Reader) (texstate.TrackerSnapshot, error) {
	var snap texstate.TrackerSnapshot
	if err := decMode.NewDecoder(r).Decode(&snap); err != nil {
		return texstate.TrackerSnapshot{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return snap, nil
}

// DecodeSnapshots reads every snapshot of a CBOR sequence until r is
// exhausted.
func DecodeSnapshots(r io.Reader) ([]texstate.TrackerSnapshot, error) {
	dec := decMode.NewDecoder(r)

	var snaps []texstate.TrackerSnapshot
	for {
		var snap texstate.TrackerSnapshot
		err := dec.Decode(&snap)
		if errors.Is(err, io.EOF) {
			return snaps, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: snapshot %d: %w", ErrDecode, len(snaps), err)
		}
		snaps = append(snaps, snap)
	}
}

// Restore builds a tracker holding a decoded snapshot. The tracker gets a
// fresh scope id; the snapshot label is applied unless opts set another one.
func Restore(snap texstate.TrackerSnapshot, opts ...texstate.TrackerOption) (*texstate.Tracker, error) {
	opts = append([]texstate.TrackerOption{texstate.WithLabel(snap.Label)}, opts...)
	t := texstate.NewTracker(opts...)
	if err := t.Restore(snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return t, nil
}

// DecodeTracker reads one snapshot from r and restores it into a new
// tracker. See Restore.
func DecodeTracker(r io.Reader, opts ...texstate.TrackerOption) (*texstate.Tracker, error) {
	snap, err := DecodeSnapshot(r)
	if err != nil {
		return nil, err
	}
	return Restore(snap, opts...)
}

// Diagnose returns the CBOR diagnostic notation of data.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
