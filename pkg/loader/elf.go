// Package loader loads a statically linked RV32I executable image into
// a flat byte buffer ready to back an rv32.Ram, and resolves the entry
// point and stack pointer the core should be seeded with.
//
// This is the "executable-image loading" collaborator spec.md keeps
// external to the interpreter core: it never touches a Register, Bus
// or CPU, only produces the Image (RAM bytes, initial PC and initial SP)
// the driver is seeded with.
package loader

import (
	"bytes"
	"debug/elf"
	"fmt"
)

// DefaultStackSize is added on top of the image's required span when
// the caller does not request an explicit RAM size.
const DefaultStackSize = 1 << 20 // 1 MiB

// LoadError reports a fatal problem with the input executable: bad
// magic, wrong machine, not 32-bit, non-executable type, no loadable
// segment, a segment whose bytes cannot be read, or a requested RAM
// size too small for the image. Segments other than PT_LOAD are
// skipped, not rejected.
type LoadError struct {
	Reason string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loader: %s", e.Reason)
}

// Image is a loaded executable ready to seed a Driver: a flat byte
// buffer and the entry point/stack pointer to write into PC and x2.
type Image struct {
	Ram       []byte
	InitialPC uint32
	InitialSP uint32
}

// Load parses the ELF file in data, verifies it targets RV32I and is
// executable, copies every PT_LOAD segment's file bytes to its virtual
// address and zero-fills the gap up to its memory size, and returns
// the resulting flat image. ramSize, if non-zero, fixes the RAM size;
// it must be at least the image's required span or Load fails.
// defaultSP, if zero, defaults to the top of the allocated RAM.
func Load(data []byte, ramSize uint32, defaultSP uint32) (*Image, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, &LoadError{Reason: fmt.Sprintf("invalid ELF file: %s", err)}
	}
	defer f.Close()

	if f.Machine != elf.EM_RISCV {
		return nil, &LoadError{Reason: fmt.Sprintf("unsupported machine type %s", f.Machine)}
	}
	if f.Class != elf.ELFCLASS32 {
		return nil, &LoadError{Reason: "not a 32-bit ELF"}
	}
	if f.Type != elf.ET_EXEC {
		return nil, &LoadError{Reason: "not an executable object"}
	}

	var maxSpan uint64
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		span := prog.Vaddr + prog.Memsz
		if span > maxSpan {
			maxSpan = span
		}
	}
	if maxSpan == 0 {
		return nil, &LoadError{Reason: "no loadable segments"}
	}

	size := uint64(ramSize)
	if size == 0 {
		size = (maxSpan + DefaultStackSize + 3) &^ 3 // 4-byte alignment
	} else if size < maxSpan {
		return nil, &LoadError{Reason: "RAM size is too small for the image"}
	}

	ram := make([]byte, size)
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		fileBytes := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(fileBytes, 0); err != nil {
			return nil, &LoadError{Reason: fmt.Sprintf("failed reading segment: %s", err)}
		}
		off := prog.Vaddr
		copy(ram[off:off+prog.Filesz], fileBytes)
		// bytes [Filesz, Memsz) are already zero from make([]byte, size)
	}

	sp := defaultSP
	if sp == 0 {
		sp = uint32(len(ram))
	}

	return &Image{
		Ram:       ram,
		InitialPC: uint32(f.Entry),
		InitialSP: sp,
	}, nil
}
