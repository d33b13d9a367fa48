package bytecode

import (
	"encoding/binary"
	"fmt"
)

// Container is the on-disk shape a compiled program takes between the
// (out-of-scope) compiler and this VM: a symbol table followed by the
// code it indexes into. It has no relationship to the in-memory Image
// format beyond carrying the same bytes.
//
// Layout: magic "KVM1" (4 bytes) | symbol count (uint32 BE) | for each
// symbol: name length (uint16 BE), name bytes, entry PC (uint32 BE) |
// code length (uint32 BE) | code bytes.
var magic = [4]byte{'K', 'V', 'M', '1'}

// EncodeContainer serializes an image and its symbol table.
func EncodeContainer(im *Image, st *SymbolTable) []byte {
	buf := make([]byte, 0, len(im.Code)+64)
	buf = append(buf, magic[:]...)

	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(st.Len()))
	buf = append(buf, countBuf[:]...)

	st.Iterate(func(name string, pc PC) {
		var nameLen [2]byte
		binary.BigEndian.PutUint16(nameLen[:], uint16(len(name)))
		buf = append(buf, nameLen[:]...)
		buf = append(buf, name...)
		var pcBuf [4]byte
		binary.BigEndian.PutUint32(pcBuf[:], uint32(pc))
		buf = append(buf, pcBuf[:]...)
	})

	var codeLen [4]byte
	binary.BigEndian.PutUint32(codeLen[:], uint32(len(im.Code)))
	buf = append(buf, codeLen[:]...)
	buf = append(buf, im.Code...)
	return buf
}

// DecodeContainer parses bytes produced by EncodeContainer.
func DecodeContainer(data []byte) (*Image, *SymbolTable, error) {
	if len(data) < 8 || [4]byte(data[:4]) != magic {
		return nil, nil, fmt.Errorf("bytecode: not a KVM1 container")
	}
	off := 4
	count := binary.BigEndian.Uint32(data[off : off+4])
	off += 4

	st := NewSymbolTable()
	for i := uint32(0); i < count; i++ {
		if off+2 > len(data) {
			return nil, nil, fmt.Errorf("bytecode: truncated symbol table")
		}
		nameLen := int(binary.BigEndian.Uint16(data[off : off+2]))
		off += 2
		if off+nameLen+4 > len(data) {
			return nil, nil, fmt.Errorf("bytecode: truncated symbol entry")
		}
		name := string(data[off : off+nameLen])
		off += nameLen
		pc := binary.BigEndian.Uint32(data[off : off+4])
		off += 4
		st.Insert(name, PC(pc))
	}

	if off+4 > len(data) {
		return nil, nil, fmt.Errorf("bytecode: truncated code length")
	}
	codeLen := int(binary.BigEndian.Uint32(data[off : off+4]))
	off += 4
	if off+codeLen > len(data) {
		return nil, nil, fmt.Errorf("bytecode: truncated code")
	}
	im := &Image{Code: append([]byte(nil), data[off:off+codeLen]...)}
	if im.Len() == 0 || im.Code[0] != Offset0Retn {
		return nil, nil, fmt.Errorf("bytecode: offset 0 must be RETN")
	}
	return im, st, nil
}
