package slicex

import (
	"errors"
	"testing"
)

func TestFirstLast(t *testing.T) {
	s := []int{1, 2, 3}

	v, err := First(s)
	if err != nil || v != 1 {
		t.Fatalf("First(%v) = %d, %v", s, v, err)
	}
	v, err = Last(s)
	if err != nil || v != 3 {
		t.Fatalf("Last(%v) = %d, %v", s, v, err)
	}

	var empty []int
	if _, err := First(empty); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("First(empty) err = %v, want ErrOutOfBounds", err)
	}
	if _, err := Last(empty); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("Last(empty) err = %v, want ErrOutOfBounds", err)
	}
}

func TestSplitFirstLast(t *testing.T) {
	s := []int{1, 2, 3}

	head, tail, err := SplitFirst(s)
	if err != nil || head != 1 || len(tail) != 2 {
		t.Fatalf("SplitFirst(%v) = %d, %v, %v", s, head, tail, err)
	}

	init, last, err := SplitLast(s)
	if err != nil || last != 3 || len(init) != 2 {
		t.Fatalf("SplitLast(%v) = %v, %d, %v", s, init, last, err)
	}

	var empty []int
	if _, _, err := SplitFirst(empty); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("SplitFirst(empty) err = %v, want ErrOutOfBounds", err)
	}
	if _, _, err := SplitLast(empty); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("SplitLast(empty) err = %v, want ErrOutOfBounds", err)
	}
}

func TestGet(t *testing.T) {
	s := []byte{10, 20, 30}

	cases := []struct {
		i       int
		want    byte
		wantErr bool
	}{
		{0, 10, false},
		{2, 30, false},
		{3, 0, true},
		{-1, 0, true},
	}
	for _, c := range cases {
		v, err := Get(s, c.i)
		if c.wantErr {
			if !errors.Is(err, ErrOutOfBounds) {
				t.Errorf("Get(s, %d) err = %v, want ErrOutOfBounds", c.i, err)
			}
			continue
		}
		if err != nil || v != c.want {
			t.Errorf("Get(s, %d) = %d, %v, want %d, nil", c.i, v, err, c.want)
		}
	}
}

func TestGetRange(t *testing.T) {
	s := []byte{1, 2, 3, 4, 5}

	got, err := GetRange(s, 1, 4)
	if err != nil {
		t.Fatalf("GetRange(1,4) err = %v", err)
	}
	want := []byte{2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("GetRange(1,4) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("GetRange(1,4) = %v, want %v", got, want)
		}
	}

	badCases := [][2]int{{-1, 2}, {3, 1}, {0, 6}}
	for _, bc := range badCases {
		if _, err := GetRange(s, bc[0], bc[1]); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("GetRange(%d,%d) err = %v, want ErrOutOfBounds", bc[0], bc[1], err)
		}
	}
}
