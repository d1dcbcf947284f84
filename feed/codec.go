package feed

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Encoding is the frame encoding negotiated with the enc query parameter.
type Encoding string

const (
	EncMsgpack Encoding = ""
	EncZstd    Encoding = "zstd"
)

// ParseEncoding maps a query value to an Encoding. Unknown values fall back
// to plain msgpack.
func ParseEncoding(s string) Encoding {
	if s == string(EncZstd) {
		return EncZstd
	}
	return EncMsgpack
}

// MarshalFrame encodes f as msgpack.
func MarshalFrame(f *Frame) ([]byte, error) {
	return msgpack.Marshal(f)
}

// Codec compresses and decompresses frames. EncodeAll and DecodeAll are safe
// for concurrent use, so one Codec serves every connection.
type Codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewCodec creates a codec tuned for small, frequent frames.
func NewCodec() (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	return &Codec{enc: enc, dec: dec}, nil
}

// Compress zstd-compresses an encoded frame.
func (c *Codec) Compress(b []byte) []byte {
	return c.enc.EncodeAll(b, make([]byte, 0, len(b)))
}

// Decode reverses MarshalFrame, first decompressing when enc is EncZstd.
func (c *Codec) Decode(b []byte, enc Encoding) (*Frame, error) {
	if enc == EncZstd {
		raw, err := c.dec.DecodeAll(b, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress frame: %w", err)
		}
		b = raw
	}
	var f Frame
	if err := msgpack.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return &f, nil
}

// Close releases the zstd state.
func (c *Codec) Close() {
	c.enc.Close()
	c.dec.Close()
}
