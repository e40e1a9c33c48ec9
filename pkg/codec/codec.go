package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cfoust/dipwatch/pkg/game"

	"github.com/fxamacker/cbor/v2"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

func ParseFormat(value string) (Format, error) {
	switch Format(value) {
	case FormatJSON, FormatCBOR:
		return Format(value), nil
	}
	return "", fmt.Errorf("unknown format: %s", value)
}

type Options struct {
	// Leave absent optional fields out instead of writing null.
	OmitMissing bool
	// Write timestamps as RFC 3339 strings instead of unix milliseconds.
	ISOTimestamps bool
	// Keep the offset a timestamp was written with instead of converting
	// it to UTC.
	PreserveZone bool
}

func DefaultOptions() Options {
	return Options{
		OmitMissing:   true,
		ISOTimestamps: true,
		PreserveZone:  true,
	}
}

// Codec turns snapshots into bytes and back. It holds no global state, so
// differently configured codecs can be used side by side.
type Codec struct {
	format  Format
	options Options
	encMode cbor.EncMode
	decMode cbor.DecMode
}

func New(format Format, options Options) (*Codec, error) {
	codec := &Codec{
		format:  format,
		options: options,
	}

	switch format {
	case FormatJSON:
	case FormatCBOR:
		encMode, err := cbor.CanonicalEncOptions().EncMode()
		if err != nil {
			return nil, err
		}
		decMode, err := cbor.DecOptions{}.DecMode()
		if err != nil {
			return nil, err
		}
		codec.encMode = encMode
		codec.decMode = decMode
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}

	return codec, nil
}

func Default() *Codec {
	codec, _ := New(FormatJSON, DefaultOptions())
	return codec
}

func (c *Codec) Format() Format {
	return c.format
}

func (c *Codec) Options() Options {
	return c.options
}

func (c *Codec) ContentType() string {
	if c.format == FormatCBOR {
		return "application/cbor"
	}
	return "application/json"
}

func (c *Codec) marshal(value interface{}) ([]byte, error) {
	if c.format == FormatCBOR {
		return c.encMode.Marshal(value)
	}
	return json.Marshal(value)
}

func (c *Codec) unmarshal(data []byte, value interface{}) error {
	if c.format == FormatCBOR {
		return c.decMode.Unmarshal(data, value)
	}
	return json.Unmarshal(data, value)
}

func (c *Codec) EncodeSnapshot(snapshot game.Snapshot) ([]byte, error) {
	return c.marshal(c.encodeSnapshot(snapshot))
}

func (c *Codec) DecodeSnapshot(data []byte) (game.Snapshot, error) {
	var wire wireSnapshot
	err := c.unmarshal(data, &wire)
	if err != nil {
		return game.Snapshot{}, err
	}
	return c.decodeSnapshot(wire)
}

// EncodeList wraps already encoded records into a single list.
func (c *Codec) EncodeList(records [][]byte) ([]byte, error) {
	if c.format == FormatCBOR {
		raw := make([]cbor.RawMessage, len(records))
		for i, record := range records {
			raw[i] = record
		}
		return c.encMode.Marshal(raw)
	}

	raw := make([]json.RawMessage, len(records))
	for i, record := range records {
		raw[i] = record
	}
	return json.Marshal(raw)
}

// SplitList is the inverse of EncodeList. Records are not decoded, so one
// bad record does not spoil the rest.
func (c *Codec) SplitList(data []byte) ([][]byte, error) {
	var records [][]byte
	if c.format == FormatCBOR {
		var raw []cbor.RawMessage
		err := c.decMode.Unmarshal(data, &raw)
		if err != nil {
			return nil, err
		}
		for _, record := range raw {
			records = append(records, record)
		}
		return records, nil
	}

	var raw []json.RawMessage
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return nil, err
	}
	for _, record := range raw {
		records = append(records, record)
	}
	return records, nil
}

func (c *Codec) EncodeSnapshots(snapshots []game.Snapshot) ([]byte, error) {
	records := make([][]byte, 0, len(snapshots))
	for _, snapshot := range snapshots {
		record, err := c.EncodeSnapshot(snapshot)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return c.EncodeList(records)
}

// DecodeSnapshots decodes a whole list and fails on the first bad record.
func (c *Codec) DecodeSnapshots(data []byte) ([]game.Snapshot, error) {
	records, err := c.SplitList(data)
	if err != nil {
		return nil, err
	}

	snapshots := make([]game.Snapshot, 0, len(records))
	for i, record := range records {
		snapshot, err := c.DecodeSnapshot(record)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

func (c *Codec) encodeTime(t time.Time) interface{} {
	if !c.options.PreserveZone {
		t = t.UTC()
	}
	if c.options.ISOTimestamps {
		return t.Format(time.RFC3339Nano)
	}
	return t.UnixMilli()
}

func (c *Codec) decodeTime(t rawTime) time.Time {
	value := time.Time(t)
	if !c.options.PreserveZone {
		return value.UTC()
	}
	return value
}
