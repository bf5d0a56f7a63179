package memory_test

import (
	"testing"
	"unsafe"

	"github.com/cindervane/forge/memory"
	"github.com/cindervane/forge/reflection"
)

type vec2 struct{ X, Y float64 }

func TestAnyVectorPushAndSwapErase(t *testing.T) {
	ty := reflection.Reflect[vec2]()
	av, err := memory.NewAnyVector(ty)
	if err != nil {
		t.Fatalf("NewAnyVector: %v", err)
	}

	for i := 0; i < 5; i++ {
		v := vec2{X: float64(i), Y: float64(i) * 2}
		if err := av.PushCopy(unsafe.Pointer(&v)); err != nil {
			t.Fatalf("PushCopy: %v", err)
		}
	}
	if av.Size() != 5 {
		t.Fatalf("expected size 5, got %d", av.Size())
	}

	// swap-erase index 1: last element (index 4) should move into slot 1.
	if err := av.SwapErase(1); err != nil {
		t.Fatalf("SwapErase: %v", err)
	}
	if av.Size() != 4 {
		t.Fatalf("expected size 4 after erase, got %d", av.Size())
	}
	ptr, err := av.At(1)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	got := (*vec2)(ptr)
	if got.X != 4 {
		t.Fatalf("expected last element swapped into slot 1, got X=%v", got.X)
	}
}

func TestAnyVectorSwapMove(t *testing.T) {
	ty := reflection.Reflect[vec2]()
	src, _ := memory.NewAnyVector(ty)
	dst, _ := memory.NewAnyVector(ty)

	v := vec2{X: 1, Y: 2}
	_ = src.PushCopy(unsafe.Pointer(&v))

	if err := src.SwapMove(0, dst); err != nil {
		t.Fatalf("SwapMove: %v", err)
	}
	if src.Size() != 0 {
		t.Fatalf("expected src emptied, got size %d", src.Size())
	}
	if dst.Size() != 1 {
		t.Fatalf("expected dst to have 1 element, got %d", dst.Size())
	}
	ptr, _ := dst.At(0)
	got := (*vec2)(ptr)
	if got.X != 1 || got.Y != 2 {
		t.Fatalf("expected moved value preserved, got %+v", got)
	}
}
