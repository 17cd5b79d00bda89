package dlcf

// PDU is a caller-owned buffer holding one frame payload.
//
// For transmission Len is the number of valid bytes in Data.
// For reception len(Data) is the capacity and Len is set
// when the frame finishes.
type PDU struct {
	Data []byte
	Len  int
}

// NewPDU wraps payload for transmission.
func NewPDU(payload []byte) *PDU {
	return &PDU{Data: payload, Len: len(payload)}
}

// NewBuffer wraps buf for reception.
func NewBuffer(buf []byte) *PDU {
	return &PDU{Data: buf}
}

// Cap returns the capacity of the buffer.
func (p *PDU) Cap() int {
	return len(p.Data)
}

// Payload returns the valid bytes.
func (p *PDU) Payload() []byte {
	return p.Data[:p.Len]
}
