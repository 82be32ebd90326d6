// Package image serializes a compiled program into the binary image format
// consumed by the virtual machine. All multi-byte fields are big-endian.
package image

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"goc0/pkg/compiler"
)

const (
	// Magic identifies the image format.
	Magic uint32 = 0x72303b3e
	// Version of the image layout.
	Version uint32 = 0x00000001
)

// Write serializes prog to w:
//
//	magic, version,
//	nglobals, { is_const u8; len u32; bytes }...,
//	nfunctions, { name_idx, return_slots, param_slots, local_slots,
//	              ninstrs, { op u8; operand u32|u64 }... }...
func Write(w io.Writer, prog *compiler.Program) error {
	bw := bufio.NewWriter(w)

	writeU32(bw, Magic)
	writeU32(bw, Version)

	writeU32(bw, uint32(len(prog.Globals)))
	for _, g := range prog.Globals {
		if g.IsConst {
			bw.WriteByte(1)
		} else {
			bw.WriteByte(0)
		}
		writeU32(bw, uint32(len(g.Bytes)))
		bw.Write(g.Bytes)
	}

	writeU32(bw, uint32(len(prog.Functions)))
	for i, fn := range prog.Functions {
		if fn.ID != i {
			return fmt.Errorf("function %s: id %d at position %d", fn.Name, fn.ID, i)
		}
		writeU32(bw, uint32(fn.NameGlobal))
		writeU32(bw, uint32(fn.ReturnSlots))
		writeU32(bw, uint32(len(fn.Params)))
		writeU32(bw, uint32(fn.LocalSlots))
		writeU32(bw, uint32(len(fn.Instructions)))
		for _, ins := range fn.Instructions {
			bw.WriteByte(byte(ins.Op))
			switch ins.Op.OperandWidth() {
			case compiler.Width4:
				writeU32(bw, uint32(int32(ins.X)))
			case compiler.Width8:
				writeU64(bw, uint64(ins.X))
			}
		}
	}

	return bw.Flush()
}

// Bytes serializes prog into a byte slice.
func Bytes(prog *compiler.Program) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, prog); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeU32(w *bufio.Writer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

func writeU64(w *bufio.Writer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.Write(b[:])
}
