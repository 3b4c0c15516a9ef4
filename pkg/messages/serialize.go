package messages

import (
	"fmt"

	envelopefb "github.com/cbodonnell/angelreaper/flatbuffers/envelope"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/klauspost/compress/zstd"
)

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(1<<24))
)

// SerializeEnvelope encodes e as a zstd-compressed flatbuffer.
func SerializeEnvelope(e *Envelope) ([]byte, error) {
	b, err := SerializeEnvelopeFlatbuffer(e)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize envelope: %v", err)
	}
	return encoder.EncodeAll(b, nil), nil
}

func DeserializeEnvelope(data []byte) (*Envelope, error) {
	b, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress envelope: %v", err)
	}

	e, err := DeserializeEnvelopeFlatbuffer(b)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize envelope: %v", err)
	}

	return e, nil
}

func SerializeEnvelopeFlatbuffer(e *Envelope) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("envelope is nil")
	}
	builder := flatbuffers.NewBuilder(len(e.Payload) + 64)

	matchID := builder.CreateString(e.MatchID)
	payload := builder.CreateByteVector(e.Payload)

	envelopefb.EnvelopeStart(builder)
	envelopefb.EnvelopeAddType(builder, byte(e.Type))
	envelopefb.EnvelopeAddMatchId(builder, matchID)
	envelopefb.EnvelopeAddVersion(builder, e.Version)
	envelopefb.EnvelopeAddPayload(builder, payload)
	offset := envelopefb.EnvelopeEnd(builder)
	envelopefb.FinishEnvelopeBuffer(builder, offset)

	return builder.FinishedBytes(), nil
}

func DeserializeEnvelopeFlatbuffer(b []byte) (e *Envelope, err error) {
	if len(b) < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("buffer too short")
	}
	// the flatbuffers accessors panic on malformed input
	defer func() {
		if r := recover(); r != nil {
			e, err = nil, fmt.Errorf("malformed envelope: %v", r)
		}
	}()

	fb := envelopefb.GetRootAsEnvelope(b, 0)
	e = &Envelope{
		Type:    MessageType(fb.Type()),
		MatchID: string(fb.MatchId()),
		Version: fb.Version(),
	}
	if payload := fb.PayloadBytes(); len(payload) > 0 {
		e.Payload = append([]byte(nil), payload...)
	}
	return e, nil
}
