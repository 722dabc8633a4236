package traci

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// command ids
const (
	CmdGetVersion = 0x00
	CmdSimStep    = 0x02
	CmdClose      = 0x7F

	CmdGetTLVariable   = 0xa2
	CmdGetEdgeVariable = 0xaa
	CmdGetSimVariable  = 0xab
	CmdSetEdgeVariable = 0xca

	responseOffset = 0x10
)

// variable ids
const (
	VarIDList            = 0x00
	VarHaltingNumber     = 0x14
	VarTLRedYellowGreen  = 0x20
	VarTLControlledLanes = 0x26
	VarMaxSpeed          = 0x41
	VarCurrentTravelTime = 0x5a
	VarTime              = 0x66
)

// value types
const (
	TypeUByte      = 0x07
	TypeInteger    = 0x09
	TypeDouble     = 0x0B
	TypeString     = 0x0C
	TypeStringList = 0x0E
	TypeCompound   = 0x0F
)

// status results
const (
	RTypeOK             = 0x00
	RTypeNotImplemented = 0x01
	RTypeErr            = 0xFF
)

var (
	ErrProtocol = errors.New("traci protocol error")
	ErrCommand  = errors.New("traci command failed")
)

// writer builds the content of one command.
type writer struct {
	buf bytes.Buffer
}

func (w *writer) putUbyte(v uint8) *writer {
	w.buf.WriteByte(v)
	return w
}

func (w *writer) putInt(v int32) *writer {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	w.buf.Write(b[:])
	return w
}

func (w *writer) putDouble(v float64) *writer {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	w.buf.Write(b[:])
	return w
}

func (w *writer) putString(s string) *writer {
	w.putInt(int32(len(s)))
	w.buf.WriteString(s)
	return w
}

func (w *writer) putStringList(list []string) *writer {
	w.putInt(int32(len(list)))
	for _, s := range list {
		w.putString(s)
	}
	return w
}

func (w *writer) payload() []byte {
	return w.buf.Bytes()
}

// encodeCommand frames one command: short form when it fits in a byte, extended form otherwise.
func encodeCommand(id uint8, content []byte) []byte {
	var out bytes.Buffer
	if 1+1+len(content) <= 255 {
		out.WriteByte(uint8(1 + 1 + len(content)))
	} else {
		out.WriteByte(0)
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(1+4+1+len(content)))
		out.Write(b[:])
	}
	out.WriteByte(id)
	out.Write(content)
	return out.Bytes()
}

// encodeMessage prefixes the commands with the total message length.
func encodeMessage(cmds ...[]byte) []byte {
	total := 4
	for _, c := range cmds {
		total += len(c)
	}
	out := make([]byte, 4, total)
	binary.BigEndian.PutUint32(out, uint32(total))
	for _, c := range cmds {
		out = append(out, c...)
	}
	return out
}

// readMessage reads one length-prefixed message and returns its body.
func readMessage(r io.Reader) (*storage, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := int(binary.BigEndian.Uint32(hdr[:]))
	if n < 4 {
		return nil, fmt.Errorf("%w: message length %d", ErrProtocol, n)
	}
	body := make([]byte, n-4)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return &storage{r: bytes.NewReader(body)}, nil
}

// storage decodes values from a received message body.
type storage struct {
	r *bytes.Reader
}

func (s *storage) remaining() int {
	return s.r.Len()
}

func (s *storage) readUbyte() (uint8, error) {
	b, err := s.r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return b, nil
}

func (s *storage) readInt() (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(s.r, b[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return int32(binary.BigEndian.Uint32(b[:])), nil
}

func (s *storage) readDouble() (float64, error) {
	var b [8]byte
	if _, err := io.ReadFull(s.r, b[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b[:])), nil
}

func (s *storage) readString() (string, error) {
	n, err := s.readInt()
	if err != nil {
		return "", err
	}
	if n < 0 || int(n) > s.r.Len() {
		return "", fmt.Errorf("%w: string length %d", ErrProtocol, n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(s.r, b); err != nil {
		return "", fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return string(b), nil
}

func (s *storage) readStringList() ([]string, error) {
	n, err := s.readInt()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: list length %d", ErrProtocol, n)
	}
	list := make([]string, 0, n)
	for i := int32(0); i < n; i++ {
		v, err := s.readString()
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, nil
}

// length reads a command length in short or extended form and returns the number of bytes
// left in the command after the length field.
func (s *storage) readLength() (int, error) {
	b, err := s.readUbyte()
	if err != nil {
		return 0, err
	}
	if b != 0 {
		return int(b) - 1, nil
	}
	n, err := s.readInt()
	if err != nil {
		return 0, err
	}
	return int(n) - 5, nil
}

// status reads one status response and checks it belongs to cmd and succeeded.
func (s *storage) readStatus(cmd uint8) error {
	if _, err := s.readLength(); err != nil {
		return err
	}
	id, err := s.readUbyte()
	if err != nil {
		return err
	}
	result, err := s.readUbyte()
	if err != nil {
		return err
	}
	desc, err := s.readString()
	if err != nil {
		return err
	}
	if id != cmd {
		return fmt.Errorf("%w: status for 0x%02x, expected 0x%02x", ErrProtocol, id, cmd)
	}
	if result != RTypeOK {
		return fmt.Errorf("%w: 0x%02x result 0x%02x: %s", ErrCommand, cmd, result, desc)
	}
	return nil
}
