package tensor

import "testing"

func TestNewShape(t *testing.T) {
	t1 := New(2, 3)
	if len(t1.Data) != 6 {
		t.Fatalf("expected 6 elements, got %d", len(t1.Data))
	}
	if len(t1.Shape) != 2 || t1.Shape[0] != 2 || t1.Shape[1] != 3 {
		t.Fatalf("unexpected shape: %v", t1.Shape)
	}
}

func TestAdd(t *testing.T) {
	a := &Tensor{Data: []float64{1, 2, 3}, Shape: []int{3}}
	b := &Tensor{Data: []float64{4, 5, 6}, Shape: []int{3}}
	c, err := Add(a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{5, 7, 9}
	for i := range want {
		if c.Data[i] != want[i] {
			t.Errorf("at %d, got %f, want %f", i, c.Data[i], want[i])
		}
	}
}

func TestMatMul(t *testing.T) {
	a := &Tensor{Data: []float64{1, 2, 3, 4}, Shape: []int{2, 2}}
	b := &Tensor{Data: []float64{5, 6, 7, 8}, Shape: []int{2, 2}}
	c, err := MatMul(a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{19, 22, 43, 50}
	for i := range want {
		if c.Data[i] != want[i] {
			t.Errorf("at %d, got %f, want %f", i, c.Data[i], want[i])
		}
	}
}

func TestReluPlain(t *testing.T) {
	a := &Tensor{Data: []float64{-1, 0, 3}, Shape: []int{3}}
	c := ReluPlain(a)
	want := []float64{0, 0, 3}
	for i := range want {
		if c.Data[i] != want[i] {
			t.Errorf("at %d, got %f, want %f", i, c.Data[i], want[i])
		}
	}
}

func TestMatVec(t *testing.T) {
	a := &Tensor{Data: []float64{1, 2, 3, 4}, Shape: []int{2, 2}}
	v := &Tensor{Data: []float64{5, 6}, Shape: []int{2}}
	c, err := MatVec(a, v)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{17, 39}
	for i := range want {
		if c.Data[i] != want[i] {
			t.Errorf("at %d, got %f, want %f", i, c.Data[i], want[i])
		}
	}
}

func TestMatVecDimMismatch(t *testing.T) {
	a := &Tensor{Data: []float64{1, 2, 3, 4}, Shape: []int{2, 2}}
	v := &Tensor{Data: []float64{5, 6, 7}, Shape: []int{3}}
	if _, err := MatVec(a, v); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestSameShape(t *testing.T) {
	a := New(2, 3)
	b := New(2, 3)
	c := New(3, 2)
	if !SameShape(a, b) {
		t.Error("expected same shape for (2,3) vs (2,3)")
	}
	if SameShape(a, c) {
		t.Error("expected different shape for (2,3) vs (3,2)")
	}
}

func TestClone(t *testing.T) {
	a := NewWithData([]float64{1, 2, 3})
	b := a.Clone()
	b.Data[0] = 9
	if a.Data[0] != 1 {
		t.Error("Clone must not share backing data")
	}
}
