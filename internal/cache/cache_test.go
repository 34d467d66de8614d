package cache

import (
	"reflect"
	"testing"
)

func TestEvictsOldestInserted(t *testing.T) {
	c := New[int, string](2)
	c.Put(1, "a")
	c.Put(2, "b")
	if _, ok := c.Get(1); !ok {
		t.Fatalf("missing 1")
	}
	if evicted := c.Put(3, "c"); !evicted {
		t.Fatalf("expected eviction")
	}
	if _, ok := c.Get(1); ok {
		t.Errorf("1 should be evicted even though it was read")
	}
	if got := c.Keys(); !reflect.DeepEqual(got, []int{2, 3}) {
		t.Errorf("keys %v", got)
	}
}

func TestPutMovesToNewest(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("a", 3)
	c.Put("c", 4)
	if _, ok := c.Get("b"); ok {
		t.Errorf("b should be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 3 {
		t.Errorf("a = %d %v", v, ok)
	}
}

func TestRemoveAndSizeFloor(t *testing.T) {
	c := New[int, int](0)
	c.Put(1, 1)
	c.Put(2, 2)
	if c.Len() != 1 {
		t.Fatalf("len %d", c.Len())
	}
	c.Remove(2)
	if c.Len() != 0 {
		t.Errorf("len after remove %d", c.Len())
	}
}
