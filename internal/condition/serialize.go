package condition

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Persisted condition layout: magic, version byte, flags byte, marker,
// ordinal, then the tree as a pre-order node stream. All integers are
// little-endian; byte strings are length-prefixed.
var conditionMagic = [4]byte{'C', 'U', 'B', 'Q'}

const conditionVersion = 1

const flagHasTree = 1 << 0

const (
	nodeTagValue = 0
	nodeTagExpr  = 1
)

// ErrBadEncoding is returned when a persisted condition fails to decode.
var ErrBadEncoding = errors.New("malformed condition encoding")

var zstdMagic = [4]byte{0x28, 0xB5, 0x2F, 0xFD}

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil,
		zstd.WithDecoderLowmem(true),
		zstd.WithDecoderMaxWindow(32<<20),
		zstd.WithDecoderConcurrency(1))
)

// Encode serializes the condition.
func (c *Condition) Encode() []byte {
	var buf bytes.Buffer
	buf.Write(conditionMagic[:])
	buf.WriteByte(conditionVersion)
	var flags byte
	if !c.Empty() {
		flags |= flagHasTree
	}
	buf.WriteByte(flags)
	writeBytes16(&buf, []byte(c.marker))
	writeUint64(&buf, c.ordinal)
	if flags&flagHasTree != 0 {
		encodeNode(&buf, c.tree)
	}
	return buf.Bytes()
}

// EncodeCompressed serializes the condition and compresses the result.
func (c *Condition) EncodeCompressed() []byte {
	return zstdEncoder.EncodeAll(c.Encode(), nil)
}

// Decode reconstructs a condition from its serialized form, transparently
// decompressing zstd-framed input.
func Decode(data []byte) (*Condition, error) {
	if isZstdCompressed(data) {
		raw, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadEncoding, err)
		}
		data = raw
	}
	r := bytes.NewReader(data)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil || magic != conditionMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrBadEncoding)
	}
	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: truncated header", ErrBadEncoding)
	}
	if version != conditionVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadEncoding, version)
	}
	flags, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: truncated header", ErrBadEncoding)
	}

	c := &Condition{}
	marker, err := readBytes16(r)
	if err != nil {
		return nil, err
	}
	c.marker = string(marker)
	if c.ordinal, err = readUint64(r); err != nil {
		return nil, err
	}
	if flags&flagHasTree != 0 {
		if c.tree, err = decodeNode(r, 0); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func encodeNode(buf *bytes.Buffer, n *ASTNode) {
	if n.IsExpr() {
		buf.WriteByte(nodeTagExpr)
		buf.WriteByte(byte(n.Combination))
		writeUint32(buf, uint32(len(n.Children)))
		for _, child := range n.Children {
			encodeNode(buf, child)
		}
		return
	}
	buf.WriteByte(nodeTagValue)
	writeBytes16(buf, []byte(n.FieldName))
	buf.WriteByte(byte(n.Op))
	if n.Value == nil {
		buf.WriteByte(0)
	} else {
		buf.WriteByte(1)
		writeUint32(buf, uint32(len(n.Value)))
		buf.Write(n.Value)
	}
	writeUint32(buf, uint32(len(n.Offsets)))
	for _, off := range n.Offsets {
		writeUint64(buf, off)
	}
	if n.EnumerationLookup {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

// maxTreeDepth bounds recursion while decoding untrusted input.
const maxTreeDepth = 256

func decodeNode(r *bytes.Reader, depth int) (*ASTNode, error) {
	if depth > maxTreeDepth {
		return nil, fmt.Errorf("%w: tree too deep", ErrBadEncoding)
	}
	tag, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: truncated node", ErrBadEncoding)
	}
	switch tag {
	case nodeTagExpr:
		comb, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: truncated node", ErrBadEncoding)
		}
		n := &ASTNode{kind: exprNode, Combination: CombinationOp(comb)}
		if !n.Combination.IsValid() {
			return nil, fmt.Errorf("%w: combination op %d", ErrBadEncoding, comb)
		}
		count, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		if uint64(count) > uint64(r.Len()) {
			return nil, fmt.Errorf("%w: child count %d exceeds input", ErrBadEncoding, count)
		}
		for i := uint32(0); i < count; i++ {
			child, err := decodeNode(r, depth+1)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		}
		return n, nil
	case nodeTagValue:
		name, err := readBytes16(r)
		if err != nil {
			return nil, err
		}
		op, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: truncated node", ErrBadEncoding)
		}
		n := &ASTNode{kind: valueNode, FieldName: string(name), Op: Op(op)}
		if !n.Op.IsValid() {
			return nil, fmt.Errorf("%w: operator %d", ErrBadEncoding, op)
		}
		hasValue, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: truncated node", ErrBadEncoding)
		}
		if hasValue != 0 {
			size, err := readUint32(r)
			if err != nil {
				return nil, err
			}
			if uint64(size) > uint64(r.Len()) {
				return nil, fmt.Errorf("%w: value length %d exceeds input", ErrBadEncoding, size)
			}
			n.Value = make([]byte, size)
			if _, err := io.ReadFull(r, n.Value); err != nil {
				return nil, fmt.Errorf("%w: truncated value", ErrBadEncoding)
			}
		}
		offCount, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		if uint64(offCount)*8 > uint64(r.Len()) {
			return nil, fmt.Errorf("%w: offset count %d exceeds input", ErrBadEncoding, offCount)
		}
		var prev uint64
		for i := uint32(0); i < offCount; i++ {
			off, err := readUint64(r)
			if err != nil {
				return nil, err
			}
			if off < prev || off > uint64(len(n.Value)) {
				return nil, fmt.Errorf("%w: member offset %d out of range", ErrBadEncoding, off)
			}
			prev = off
			n.Offsets = append(n.Offsets, off)
		}
		enumLookup, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: truncated node", ErrBadEncoding)
		}
		n.EnumerationLookup = enumLookup != 0
		return n, nil
	default:
		return nil, fmt.Errorf("%w: node tag %d", ErrBadEncoding, tag)
	}
}

func isZstdCompressed(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], zstdMagic[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], v)
	buf.Write(scratch[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], v)
	buf.Write(scratch[:])
}

func writeBytes16(buf *bytes.Buffer, b []byte) {
	var scratch [2]byte
	binary.LittleEndian.PutUint16(scratch[:], uint16(len(b)))
	buf.Write(scratch[:])
	buf.Write(b)
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var scratch [4]byte
	if _, err := io.ReadFull(r, scratch[:]); err != nil {
		return 0, fmt.Errorf("%w: truncated uint32", ErrBadEncoding)
	}
	return binary.LittleEndian.Uint32(scratch[:]), nil
}

func readUint64(r *bytes.Reader) (uint64, error) {
	var scratch [8]byte
	if _, err := io.ReadFull(r, scratch[:]); err != nil {
		return 0, fmt.Errorf("%w: truncated uint64", ErrBadEncoding)
	}
	return binary.LittleEndian.Uint64(scratch[:]), nil
}

func readBytes16(r *bytes.Reader) ([]byte, error) {
	var scratch [2]byte
	if _, err := io.ReadFull(r, scratch[:]); err != nil {
		return nil, fmt.Errorf("%w: truncated length", ErrBadEncoding)
	}
	size := binary.LittleEndian.Uint16(scratch[:])
	b := make([]byte, size)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("%w: truncated bytes", ErrBadEncoding)
	}
	return b, nil
}
