package protocol

import (
	"errors"

	"tinygo.org/x/drivers"
)

var (
	ErrNoReply      = errors.New("no reply from node")
	ErrWrongAddress = errors.New("reply from unexpected address")
)

// DefaultPollBudget is how many times Request checks the line for a reply
const DefaultPollBudget = 10

// Node is the driver for one addressed device on a shared serial line.
// All line traffic goes through the drivers.UART it was created with,
// normally a proxy acquired from the gate owning the line.
type Node struct {
	line drivers.UART
	addr uint8

	// PollBudget bounds the number of Buffered checks while waiting for a reply
	PollBudget int

	tx []byte
	rx []byte
}

// NewNode creates the driver for the device at addr
func NewNode(line drivers.UART, addr uint8) *Node {
	return &Node{
		line:       line,
		addr:       addr,
		PollBudget: DefaultPollBudget,
		tx:         make([]byte, 0, FrameLengthMax),
		rx:         make([]byte, 0, 2*FrameLengthMax),
	}
}

// Address returns the node address
func (n *Node) Address() uint8 {
	return n.addr
}

// Send transmits payload to the node without waiting for a reply
func (n *Node) Send(payload []byte) error {
	frame, err := EncodeFrame(n.tx[:0], n.addr, payload)
	if err != nil {
		return err
	}
	n.tx = frame

	written := 0
	for written < len(frame) {
		w, err := n.line.Write(frame[written:])
		if err != nil {
			return err
		}
		written += w
	}
	return nil
}

// Request transmits payload and returns the payload of the node's reply.
// Garbage and corrupted frames on the line are skipped. A read error from the
// line ends the request and is returned unchanged.
func (n *Node) Request(payload []byte) ([]byte, error) {
	n.rx = n.rx[:0]
	if err := n.Send(payload); err != nil {
		return nil, err
	}

	var buf [FrameLengthMax]byte
	for poll := 0; poll < n.PollBudget; poll++ {
		avail := n.line.Buffered()
		if avail == 0 {
			// An empty read reports a line error held back by the port
			if _, err := n.line.Read(buf[:0]); err != nil {
				return nil, err
			}
			continue
		}
		if avail > len(buf) {
			avail = len(buf)
		}
		read, err := n.line.Read(buf[:avail])
		if err != nil {
			return nil, err
		}
		n.rx = append(n.rx, buf[:read]...)

		for len(n.rx) > 0 {
			f, consumed, err := DecodeFrame(n.rx)
			if errors.Is(err, ErrShortFrame) {
				break
			}
			n.rx = n.rx[consumed:]
			if err != nil {
				continue
			}
			if f.Addr != n.addr {
				return nil, ErrWrongAddress
			}
			return f.Payload, nil
		}
	}
	return nil, ErrNoReply
}
