package pagination

import (
	"net/url"
	"testing"
)

func TestNew_ComputesMetadata(t *testing.T) {
	p := New([]int{1, 2, 3}, 1, 3, 7)
	if p.TotalPages != 3 {
		t.Fatalf("expected 3 pages, got %d", p.TotalPages)
	}
	if !p.HasNext || !p.HasPrevious {
		t.Fatalf("middle page must have next and previous: %+v", p)
	}

	last := New([]int{7}, 2, 3, 7)
	if last.HasNext {
		t.Fatalf("last page must not have next")
	}

	empty := New[int](nil, 0, 0, 0)
	if empty.Items == nil || empty.Size != DefaultSize || empty.TotalPages != 0 || empty.HasNext {
		t.Fatalf("unexpected empty page: %+v", empty)
	}
}

func TestNormalize_ClampsSize(t *testing.T) {
	page, size := Normalize(-3, 1000)
	if page != 0 || size != MaxSize {
		t.Fatalf("got page=%d size=%d", page, size)
	}
	if Offset(2, 10) != 20 {
		t.Fatalf("expected offset 20")
	}
}

func TestFromQuery(t *testing.T) {
	page, size := FromQuery(url.Values{"page": {"2"}, "size": {"abc"}})
	if page != 2 || size != DefaultSize {
		t.Fatalf("got page=%d size=%d", page, size)
	}
}

func TestMap_KeepsMetadata(t *testing.T) {
	p := Map(New([]int{1, 2}, 0, 2, 5), func(i int) string { return string(rune('a' + i)) })
	if p.TotalItems != 5 || len(p.Items) != 2 || p.Items[0] != "b" {
		t.Fatalf("unexpected mapped page: %+v", p)
	}
}
