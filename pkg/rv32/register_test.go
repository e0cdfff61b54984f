package rv32

import (
	"errors"
	"testing"
)

func TestRegisterFileX0HardwiredToZero(t *testing.T) {
	var rf RegisterFile
	if err := rf.Store(0, 0xdeadbeef); err != nil {
		t.Fatalf("store to x0: %v", err)
	}
	got, err := rf.Load(0)
	if err != nil {
		t.Fatalf("load x0: %v", err)
	}
	if got != 0 {
		t.Fatalf("x0 = 0x%x, want 0", got)
	}
}

func TestRegisterFileStoreLoadRoundTrip(t *testing.T) {
	var rf RegisterFile
	if err := rf.Store(5, 0x12345678); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, err := rf.Load(5)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != 0x12345678 {
		t.Fatalf("x5 = 0x%x, want 0x12345678", got)
	}
}

func TestRegisterFileOutOfRangeIsBoundsError(t *testing.T) {
	var rf RegisterFile
	if _, err := rf.Load(32); !errors.Is(err, ErrBounds) {
		t.Fatalf("Load(32) error = %v, want ErrBounds", err)
	}
	if err := rf.Store(-1, 0); !errors.Is(err, ErrBounds) {
		t.Fatalf("Store(-1, _) error = %v, want ErrBounds", err)
	}
}

func TestRegisterFileReset(t *testing.T) {
	var rf RegisterFile
	rf.Store(3, 42)
	rf.Reset()
	got, _ := rf.Load(3)
	if got != 0 {
		t.Fatalf("x3 after Reset = %d, want 0", got)
	}
}

func TestProgramCounterIncrementWraps(t *testing.T) {
	var pc ProgramCounter
	pc.Store(0xfffffffc)
	pc.Increment()
	if pc.Load() != 0 {
		t.Fatalf("PC after wrap-around increment = 0x%x, want 0", pc.Load())
	}
}

func TestProgramCounterIncrementByFour(t *testing.T) {
	var pc ProgramCounter
	pc.Store(100)
	pc.Increment()
	if pc.Load() != 104 {
		t.Fatalf("PC = %d, want 104", pc.Load())
	}
}
