package loader

import (
	"encoding/binary"
	"testing"
)

const (
	elfHeaderSize = 52
	phdrSize      = 32
)

// buildELF32 assembles a minimal little-endian ELF32 executable with a
// single PT_LOAD segment: code at file offset elfHeaderSize+phdrSize,
// mapped to vaddr, of length len(code), zero-filled up to memsz.
func buildELF32(t *testing.T, entry, vaddr uint32, code []byte, memsz uint32) []byte {
	t.Helper()
	le := binary.LittleEndian
	dataOff := uint32(elfHeaderSize + phdrSize)

	header := make([]byte, elfHeaderSize)
	copy(header[0:4], []byte{0x7f, 'E', 'L', 'F'})
	header[4] = 1 // ELFCLASS32
	header[5] = 1 // ELFDATA2LSB
	header[6] = 1 // EV_CURRENT
	// header[7:16] OSABI/ABIVERSION/padding left zero

	le.PutUint16(header[16:18], 2)           // e_type = ET_EXEC
	le.PutUint16(header[18:20], 243)         // e_machine = EM_RISCV
	le.PutUint32(header[20:24], 1)           // e_version
	le.PutUint32(header[24:28], entry)       // e_entry
	le.PutUint32(header[28:32], elfHeaderSize) // e_phoff
	le.PutUint32(header[32:36], 0)           // e_shoff
	le.PutUint32(header[36:40], 0)           // e_flags
	le.PutUint16(header[40:42], elfHeaderSize) // e_ehsize
	le.PutUint16(header[42:44], phdrSize)    // e_phentsize
	le.PutUint16(header[44:46], 1)           // e_phnum
	le.PutUint16(header[46:48], 0)           // e_shentsize
	le.PutUint16(header[48:50], 0)           // e_shnum
	le.PutUint16(header[50:52], 0)           // e_shstrndx

	phdr := make([]byte, phdrSize)
	le.PutUint32(phdr[0:4], 1)                   // p_type = PT_LOAD
	le.PutUint32(phdr[4:8], dataOff)              // p_offset
	le.PutUint32(phdr[8:12], vaddr)               // p_vaddr
	le.PutUint32(phdr[12:16], vaddr)              // p_paddr
	le.PutUint32(phdr[16:20], uint32(len(code)))  // p_filesz
	le.PutUint32(phdr[20:24], memsz)              // p_memsz
	le.PutUint32(phdr[24:28], 5)                  // p_flags = R|X
	le.PutUint32(phdr[28:32], 4)                  // p_align

	out := append(header, phdr...)
	out = append(out, code...)
	return out
}

func TestLoadValidImage(t *testing.T) {
	code := []byte{0x01, 0x02, 0x03, 0x04}
	data := buildELF32(t, 0x1000, 0x1000, code, 16)

	image, err := Load(data, 0, 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if image.InitialPC != 0x1000 {
		t.Fatalf("InitialPC = 0x%x, want 0x1000", image.InitialPC)
	}
	wantSize := uint32(0x1000+16+DefaultStackSize+3) &^ 3
	if uint32(len(image.Ram)) != wantSize {
		t.Fatalf("len(Ram) = %d, want %d", len(image.Ram), wantSize)
	}
	for i, b := range code {
		if image.Ram[0x1000+i] != b {
			t.Fatalf("Ram[0x%x] = 0x%x, want 0x%x", 0x1000+i, image.Ram[0x1000+i], b)
		}
	}
	// bytes beyond Filesz up to Memsz are zero-filled.
	for i := len(code); i < 16; i++ {
		if image.Ram[0x1000+i] != 0 {
			t.Fatalf("Ram[0x%x] = 0x%x, want 0 (zero-fill past Filesz)", 0x1000+i, image.Ram[0x1000+i])
		}
	}
	if image.InitialSP != uint32(len(image.Ram)) {
		t.Fatalf("InitialSP = %d, want top of RAM %d", image.InitialSP, len(image.Ram))
	}
}

func TestLoadExplicitRamSizeAndSP(t *testing.T) {
	code := []byte{0xaa, 0xbb}
	data := buildELF32(t, 0x2000, 0x2000, code, 4)

	image, err := Load(data, 0x10000, 0xfff0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(image.Ram) != 0x10000 {
		t.Fatalf("len(Ram) = %d, want 0x10000", len(image.Ram))
	}
	if image.InitialSP != 0xfff0 {
		t.Fatalf("InitialSP = 0x%x, want 0xfff0", image.InitialSP)
	}
}

func TestLoadRejectsRamSizeSmallerThanImageSpan(t *testing.T) {
	code := []byte{0x01, 0x02, 0x03, 0x04}
	data := buildELF32(t, 0x1000, 0x1000, code, 16)

	if _, err := Load(data, 0x100, 0); err == nil {
		t.Fatal("Load succeeded with a RAM size smaller than the image span; want an error")
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	data := []byte("not an elf file at all, padded out long enough to parse")
	if _, err := Load(data, 0, 0); err == nil {
		t.Fatal("Load succeeded on non-ELF data; want an error")
	}
}

func TestLoadRejectsNonRiscvMachine(t *testing.T) {
	code := []byte{0x00}
	data := buildELF32(t, 0x1000, 0x1000, code, 4)
	// e_machine is at byte offset 18-19; corrupt it to x86 (EM_386 = 3).
	binary.LittleEndian.PutUint16(data[18:20], 3)

	if _, err := Load(data, 0, 0); err == nil {
		t.Fatal("Load succeeded on an EM_386 image; want an error")
	}
}
