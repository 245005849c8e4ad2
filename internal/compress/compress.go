// Package compress wraps zstd for paste payloads. The level is fixed
// at best compression: pastes live for days, so ratio beats speed.
package compress

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Encoding is the Content-Encoding token for stored payloads.
const Encoding = "zstd"

// Decompressed payloads are capped to guard against corrupt or hostile
// input claiming an absurd size.
const maxDecodedSize = 1 << 30

var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error
	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		panic(fmt.Sprintf("compress: init zstd encoder: %v", err))
	}
	decoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecodedSize))
	if err != nil {
		panic(fmt.Sprintf("compress: init zstd decoder: %v", err))
	}
}

// Compress returns src compressed as a zstd frame.
func Compress(src []byte) []byte {
	return encoder.EncodeAll(src, make([]byte, 0, len(src)/2))
}

// Decompress decodes a zstd frame. An error means the payload is not a
// valid frame, which for stored pastes indicates corruption at rest.
func Decompress(src []byte) ([]byte, error) {
	out, err := decoder.DecodeAll(src, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}
	return out, nil
}
