package bytecode

import "encoding/binary"

// PC is a bytecode program counter, wide enough to address any offset in
// an Image.
type PC uint32

// Image is the contiguous byte sequence the interpreter fetches
// instructions from. Offset 0 always holds a bare RETN (Offset0Retn),
// the safe halt target the short-circuit interrupt redirects fetch to.
type Image struct {
	Code []byte
}

// NewImage returns an empty image with the mandatory offset-0 RETN
// already written.
func NewImage() *Image {
	return &Image{Code: []byte{Offset0Retn}}
}

// WriteHead appends a single opcode head byte and returns its offset.
func (im *Image) WriteHead(op Op, cond Cond, invert bool) PC {
	at := PC(len(im.Code))
	im.Code = append(im.Code, EncodeHead(op, cond, invert))
	return at
}

// WriteBranchTarget appends a 4-byte big-endian PC operand.
func (im *Image) WriteBranchTarget(target PC) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(target))
	im.Code = append(im.Code, buf[:]...)
}

// WriteRepeatOperands appends the 4-byte loop-top PC and 2-byte
// iteration count operands of a REPEAT instruction.
func (im *Image) WriteRepeatOperands(loopTop PC, count uint16) {
	var buf [6]byte
	binary.BigEndian.PutUint32(buf[0:4], uint32(loopTop))
	binary.BigEndian.PutUint16(buf[4:6], count)
	im.Code = append(im.Code, buf[:]...)
}

// DecodeHeadAt reads and decodes the head byte at pc.
func (im *Image) DecodeHeadAt(pc PC) (op Op, cond Cond, invert bool) {
	return DecodeHead(im.Code[pc])
}

// ReadBranchTarget reads the 4-byte operand immediately following the
// head byte at pc (a BRANCH/BRANCH_LINKED instruction).
func (im *Image) ReadBranchTarget(pc PC) PC {
	return PC(binary.BigEndian.Uint32(im.Code[pc+1 : pc+5]))
}

// ReadRepeat reads the loop-top PC and iteration count operands
// following the head byte at pc (a REPEAT instruction).
func (im *Image) ReadRepeat(pc PC) (loopTop PC, count uint16) {
	loopTop = PC(binary.BigEndian.Uint32(im.Code[pc+1 : pc+5]))
	count = binary.BigEndian.Uint16(im.Code[pc+5 : pc+7])
	return
}

// Len reports the image size in bytes.
func (im *Image) Len() int {
	return len(im.Code)
}
