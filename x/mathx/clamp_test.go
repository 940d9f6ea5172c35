package mathx

import "testing"

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 10); got != 5 {
		t.Fatalf("Clamp(5,0,10) = %d", got)
	}
	if got := Clamp(-3, 0, 10); got != 0 {
		t.Fatalf("Clamp(-3,0,10) = %d", got)
	}
	if got := Clamp(42, 0, 10); got != 10 {
		t.Fatalf("Clamp(42,0,10) = %d", got)
	}
	// Swapped bounds behave the same.
	if got := Clamp(42, 10, 0); got != 10 {
		t.Fatalf("Clamp(42,10,0) = %d", got)
	}
	if got := Clamp(float32(1.5), -1, 1); got != 1 {
		t.Fatalf("Clamp(1.5,-1,1) = %v", got)
	}
}

func TestBetween(t *testing.T) {
	if !Between(1500, 1000, 2000) {
		t.Fatal("Between(1500,1000,2000) = false")
	}
	if Between(999, 1000, 2000) {
		t.Fatal("Between(999,1000,2000) = true")
	}
	if !Between(1500, 2000, 1000) {
		t.Fatal("Between swapped bounds = false")
	}
}
