// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package handle_test

import (
	"testing"

	"github.com/gviegas/wsiandroid/internal/handle"
)

func TestInsertGetRemove(t *testing.T) {
	var tab handle.Table[string]

	h1 := tab.Insert("a")
	h2 := tab.Insert("b")
	h3 := tab.Insert("c")

	if h1 == 0 || h2 == 0 || h3 == 0 {
		t.Fatal("Insert: zero handle must never be returned for a live entry")
	}
	if h1 == h2 || h2 == h3 || h1 == h3 {
		t.Fatal("Insert: handles must be distinct")
	}

	if got := *tab.Get(h2); got != "b" {
		t.Fatalf("Get(h2): have %q, want %q", got, "b")
	}

	tab.Remove(h2)
	if tab.Valid(h2) {
		t.Fatal("Valid(h2): want false after Remove")
	}
	if got := *tab.Get(h1); got != "a" {
		t.Fatalf("Get(h1) after removing h2: have %q, want %q", got, "a")
	}
	if got := *tab.Get(h3); got != "c" {
		t.Fatalf("Get(h3) after removing h2: have %q, want %q", got, "c")
	}
	if tab.Len() != 2 {
		t.Fatalf("Len: have %d, want 2", tab.Len())
	}
}

func TestZeroHandleNeverValid(t *testing.T) {
	var tab handle.Table[int]
	if tab.Valid(0) {
		t.Fatal("Valid(0): want false, zero handle must never name a live entry")
	}
	if tab.Get(0) != nil {
		t.Fatal("Get(0): want nil")
	}
}

func TestInsertAfterRemoveReusesSlotWithFreshHandle(t *testing.T) {
	var tab handle.Table[int]
	h1 := tab.Insert(1)
	tab.Remove(h1)
	h2 := tab.Insert(2)
	if tab.Valid(h1) {
		t.Fatal("Valid(h1): want false, h1 was removed")
	}
	if !tab.Valid(h2) {
		t.Fatal("Valid(h2): want true")
	}
	if got := *tab.Get(h2); got != 2 {
		t.Fatalf("Get(h2): have %d, want 2", got)
	}
}

func TestManyInsertionsGrowTable(t *testing.T) {
	var tab handle.Table[int]
	var hs []handle.H
	for i := 0; i < 100; i++ {
		hs = append(hs, tab.Insert(i))
	}
	for i, h := range hs {
		if got := *tab.Get(h); got != i {
			t.Fatalf("Get(hs[%d]): have %d, want %d", i, got, i)
		}
	}
	if tab.Len() != 100 {
		t.Fatalf("Len: have %d, want 100", tab.Len())
	}
}
