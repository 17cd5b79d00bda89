package mqtt

import (
	"fmt"

	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes/wrappers"
)

// Codec maps frame payloads to MQTT message payloads.
type Codec interface {
	Name() string
	Encode(frame []byte) ([]byte, error)
	Decode(msg []byte) ([]byte, error)
}

// RawCodec publishes frame payloads as they are.
type RawCodec struct{}

// Name implements Codec.
func (RawCodec) Name() string { return "raw" }

// Encode implements Codec.
func (RawCodec) Encode(frame []byte) ([]byte, error) { return frame, nil }

// Decode implements Codec.
func (RawCodec) Decode(msg []byte) ([]byte, error) { return msg, nil }

// ProtoCodec wraps frame payloads in google.protobuf.BytesValue, for
// consumers which expect protobuf messages on every topic.
type ProtoCodec struct{}

// Name implements Codec.
func (ProtoCodec) Name() string { return "proto" }

// Encode implements Codec.
func (ProtoCodec) Encode(frame []byte) ([]byte, error) {
	return proto.Marshal(&wrappers.BytesValue{Value: frame})
}

// Decode implements Codec.
func (ProtoCodec) Decode(msg []byte) ([]byte, error) {
	var v wrappers.BytesValue
	if err := proto.Unmarshal(msg, &v); err != nil {
		return nil, err
	}
	return v.Value, nil
}

// CodecByName returns the codec registered as name.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "raw":
		return RawCodec{}, nil
	case "proto":
		return ProtoCodec{}, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}
