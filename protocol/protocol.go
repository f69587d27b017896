// Package protocol implements addressed framing for a multidrop serial line
// (RS-485 style) on which several devices, each with its own driver, share
// one UART.
//
// Frame layout, modelled on the Klipper message block:
//
//	[len][addr][payload ...][crc_hi][crc_lo][0x7E]
//
// len counts the whole frame. The CRC covers len, addr and payload.
package protocol

// Frame constants
const (
	FrameHeaderSize  = 2 // len + addr
	FrameTrailerSize = 3 // crc16 + sync
	FrameLengthMin   = FrameHeaderSize + FrameTrailerSize
	FrameLengthMax   = 64
	FramePayloadMax  = FrameLengthMax - FrameLengthMin
	FrameValueSync   = 0x7E

	// BroadcastAddress is accepted by every node; nodes never reply to it
	BroadcastAddress = 0xFF
)

// Frame is one decoded message on the line
type Frame struct {
	Addr    uint8
	Payload []byte
}
