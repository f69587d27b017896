package protocol

import "errors"

var (
	ErrShortFrame    = errors.New("frame incomplete")
	ErrBadSync       = errors.New("frame missing sync byte")
	ErrBadCRC        = errors.New("frame crc mismatch")
	ErrFrameTooLarge = errors.New("frame payload too large")
	ErrBadLength     = errors.New("frame length out of range")
)

// EncodeFrame appends the frame for payload addressed to addr to dst.
func EncodeFrame(dst []byte, addr uint8, payload []byte) ([]byte, error) {
	if len(payload) > FramePayloadMax {
		return dst, ErrFrameTooLarge
	}

	start := len(dst)
	dst = append(dst, uint8(len(payload)+FrameLengthMin), addr)
	dst = append(dst, payload...)

	crc := CRC16(dst[start:])
	dst = append(dst, uint8(crc>>8), uint8(crc), FrameValueSync)
	return dst, nil
}

// DecodeFrame parses the frame at the start of data.
// It returns the frame and the number of bytes consumed. On ErrShortFrame
// nothing is consumed and the caller should wait for more data; on any other
// error n bytes should be dropped before trying again.
func DecodeFrame(data []byte) (f Frame, n int, err error) {
	if len(data) == 0 {
		return Frame{}, 0, ErrShortFrame
	}

	// Skip leading sync bytes left over from a previous frame
	if data[0] == FrameValueSync {
		return Frame{}, 1, ErrBadSync
	}

	length := int(data[0])
	if length < FrameLengthMin || length > FrameLengthMax {
		return Frame{}, 1, ErrBadLength
	}
	if len(data) < length {
		return Frame{}, 0, ErrShortFrame
	}

	if data[length-1] != FrameValueSync {
		return Frame{}, resync(data), ErrBadSync
	}

	body := data[:length-FrameTrailerSize]
	crc := uint16(data[length-3])<<8 | uint16(data[length-2])
	if CRC16(body) != crc {
		return Frame{}, resync(data), ErrBadCRC
	}

	payload := make([]byte, length-FrameLengthMin)
	copy(payload, data[FrameHeaderSize:])
	return Frame{Addr: data[1], Payload: payload}, length, nil
}

// resync returns how many bytes to drop to get past the next sync byte
func resync(data []byte) int {
	for i, b := range data {
		if b == FrameValueSync {
			return i + 1
		}
	}
	return len(data)
}
