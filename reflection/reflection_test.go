package reflection_test

import (
	"testing"
	"unsafe"

	"github.com/cindervane/forge/reflection"
)

type position struct {
	X, Y, Z float64
}

type named struct {
	Name string
}

func TestReflectFields(t *testing.T) {
	ty := reflection.Reflect[position]()
	fields, ok := reflection.Trait[reflection.FieldsTrait](ty)
	if !ok {
		t.Fatalf("expected FieldsTrait on %s", ty.Name())
	}
	if len(fields.Fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields.Fields))
	}
	if _, ok := fields.ByName("Y"); !ok {
		t.Fatalf("expected field Y")
	}
}

func TestCompareStructural(t *testing.T) {
	ty := reflection.Reflect[position]()
	a := position{1, 2, 3}
	b := position{1, 2, 3}
	c := position{1, 2, 4}

	eq, err := reflection.Compare(ty, unsafe.Pointer(&a), unsafe.Pointer(&b))
	if err != nil || !eq {
		t.Fatalf("expected a == b, got eq=%v err=%v", eq, err)
	}
	eq, err = reflection.Compare(ty, unsafe.Pointer(&a), unsafe.Pointer(&c))
	if err != nil || eq {
		t.Fatalf("expected a != c, got eq=%v err=%v", eq, err)
	}
}

func TestRegistryNameCollision(t *testing.T) {
	r := reflection.NewRegistry()
	t1 := reflection.NewType("dup")
	t2 := reflection.NewType("dup")

	if err := r.Register(t1); err != nil {
		t.Fatalf("unexpected error registering t1: %v", err)
	}
	if err := r.Register(t1); err != nil {
		t.Fatalf("re-registering the same descriptor should be idempotent: %v", err)
	}
	if err := r.Register(t2); err == nil {
		t.Fatalf("expected name collision error")
	}
}

func TestConstructibleRoundTrip(t *testing.T) {
	ty := reflection.Reflect[named]()
	con := reflection.MustTrait[reflection.ConstructibleTrait](ty)

	var a, b named
	a.Name = "player"

	con.Copy(unsafe.Pointer(&b), unsafe.Pointer(&a))
	if b.Name != "player" {
		t.Fatalf("expected copy to carry value, got %q", b.Name)
	}

	con.Destruct(unsafe.Pointer(&b))
	if b.Name != "" {
		t.Fatalf("expected destruct to clear value, got %q", b.Name)
	}
}
