package block

import (
	"testing"
	"unsafe"
)

func TestAlignUp(t *testing.T) {
	cases := []struct{ in, want uintptr }{
		{0, 0},
		{1, PointerWidth},
		{PointerWidth, PointerWidth},
		{PointerWidth + 1, 2 * PointerWidth},
		{2 * PointerWidth, 2 * PointerWidth},
	}

	for _, c := range cases {
		if got := AlignUp(c.in); got != c.want {
			t.Errorf("AlignUp(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestPayloadHeaderRoundTrip(t *testing.T) {
	backing := make([]byte, HeaderSize+64)
	h := (*Header)(unsafe.Pointer(&backing[0]))
	h.Size = 64
	h.State = Allocated

	p := PayloadOf(h)
	if uintptr(p) != Addr(h)+HeaderSize {
		t.Fatalf("PayloadOf offset wrong: got %#x want %#x", uintptr(p), Addr(h)+HeaderSize)
	}

	back := HeaderOf(p)
	if back != h {
		t.Fatalf("HeaderOf(PayloadOf(h)) != h: got %p want %p", back, h)
	}
}

func TestEndAccountsForHeaderAndSize(t *testing.T) {
	backing := make([]byte, HeaderSize+128)
	h := (*Header)(unsafe.Pointer(&backing[0]))
	h.Size = 128

	if want := Addr(h) + HeaderSize + 128; End(h) != want {
		t.Fatalf("End(h) = %#x, want %#x", End(h), want)
	}
}

func TestHeaderSizeIsPointerAligned(t *testing.T) {
	if HeaderSize%PointerWidth != 0 {
		t.Fatalf("HeaderSize %d is not a multiple of PointerWidth %d", HeaderSize, PointerWidth)
	}
}
