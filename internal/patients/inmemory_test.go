package patients

import (
	"context"
	"errors"
	"testing"
)

func testInput() Input {
	return Input{
		Name:           "Maria Ionescu",
		Age:            "73",
		Address:        "12 Strada Lunga",
		MedicalHistory: "hypertension, prior stroke",
		CaretakerName:  "Andrei Ionescu",
		CaretakerPhone: "+40700000000",
	}
}

func TestInMemoryCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	created, err := s.Create(ctx, testInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" {
		t.Fatalf("created patient should have an id")
	}

	got, err := s.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "Maria Ionescu" {
		t.Fatalf("Name = %q, want Maria Ionescu", got.Name)
	}

	in := testInput()
	in.Address = "44 Strada Noua"
	updated, err := s.Update(ctx, created.ID, in)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Address != "44 Strada Noua" {
		t.Fatalf("Address = %q, want updated address", updated.Address)
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("List() len = %d, want 1", len(all))
	}

	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

func TestInMemoryNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
	if _, err := s.Update(ctx, "missing", testInput()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update() error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestInputValidate(t *testing.T) {
	if err := testInput().Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
	in := testInput()
	in.CaretakerPhone = ""
	if err := in.Validate(); err == nil {
		t.Fatalf("Validate() should fail when a field is missing")
	}
}
