package paging

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/hugr-lab/dynfilter/schema"
)

func TestRemap(t *testing.T) {
	remap := schema.Remap{"authorName": "author.fullName", "postType": "postType.id"}

	in := Pageable{
		Page: 3,
		Size: 25,
		Sort: Sort{
			By("authorName").WithDirection(Desc),
			By("title").WithNulls(NullsFirst),
		},
	}

	got := Remap(in, remap)

	want := Pageable{
		Page: 3,
		Size: 25,
		Sort: Sort{
			{Property: "author.fullName", Direction: Desc, Nulls: NullsLast},
			{Property: "title", Direction: Asc, Nulls: NullsLast},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	// The input is left untouched.
	if in.Sort[0].Property != "authorName" || in.Sort[1].Nulls != NullsFirst {
		t.Errorf("input was modified: %+v", in)
	}
}

func TestRemapIsStable(t *testing.T) {
	remap := schema.Remap{"authorName": "author.fullName"}
	p := Pageable{Size: 10, Sort: Sort{By("authorName")}}

	once := Remap(p, remap)
	again := Remap(p, remap)
	if !reflect.DeepEqual(once, again) {
		t.Errorf("remapping the same request twice differs: %+v vs %+v", once, again)
	}
	if once.Sort[0].Property != remap.Resolve("authorName") {
		t.Errorf("unexpected property %q", once.Sort[0].Property)
	}
}

func TestRemapUnsorted(t *testing.T) {
	got := Remap(Pageable{Page: 1, Size: 5}, nil)
	if got.Page != 1 || got.Size != 5 || len(got.Sort) != 0 {
		t.Errorf("unexpected result %+v", got)
	}
}

func TestNormalize(t *testing.T) {
	defaultSort := Sort{By("updatedAt").WithDirection(Desc)}

	tests := []struct {
		name string
		in   Pageable
		want Pageable
	}{
		{"defaults", Pageable{}, Pageable{Page: 0, Size: DefaultSize, Sort: defaultSort}},
		{"negative page", Pageable{Page: -2, Size: 5}, Pageable{Page: 0, Size: 5, Sort: defaultSort}},
		{"size clamp", Pageable{Size: MaxSize + 1}, Pageable{Size: MaxSize, Sort: defaultSort}},
		{"explicit sort kept", Pageable{Page: 2, Size: 10, Sort: Sort{By("title")}},
			Pageable{Page: 2, Size: 10, Sort: Sort{By("title")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(defaultSort); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	tests := []struct {
		in   Pageable
		want int64
	}{
		{Pageable{Page: 0, Size: 20}, 0},
		{Pageable{Page: 3, Size: 20}, 60},
		{Pageable{Page: -1, Size: 20}, 0},
		{Pageable{Page: 5, Size: 0}, 0},
		{Pageable{Page: 1<<62 + 1, Size: 2}, math.MaxInt64},
		{Pageable{Page: math.MaxInt, Size: MaxSize}, math.MaxInt64},
	}

	for _, tt := range tests {
		if got := tt.in.Offset(); got != tt.want {
			t.Errorf("%+v: expected offset %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestParseSort(t *testing.T) {
	got, err := ParseSort([]string{"title", "updatedAt,desc", "author.fullName, ASC", "views,"})
	if err != nil {
		t.Fatalf("ParseSort failed: %v", err)
	}

	want := Sort{
		By("title"),
		By("updatedAt").WithDirection(Desc),
		By("author.fullName"),
		By("views"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	for _, bad := range []string{",desc", "title,sideways"} {
		if _, err := ParseSort([]string{bad}); !errors.Is(err, ErrInvalidSort) {
			t.Errorf("%q: expected ErrInvalidSort, got %v", bad, err)
		}
	}
}

func TestOrderString(t *testing.T) {
	o := By("author.fullName").WithDirection(Desc).WithNulls(NullsLast)
	if o.String() != "author.fullName: DESC NULLS_LAST" {
		t.Errorf("unexpected %q", o.String())
	}
}

func TestPageTotals(t *testing.T) {
	tests := []struct {
		size  int
		total int64
		want  int
	}{
		{10, 0, 0},
		{10, 1, 1},
		{10, 10, 1},
		{10, 11, 2},
		{0, 5, 1},
	}

	for _, tt := range tests {
		p := Page[int]{Size: tt.size, TotalElements: tt.total}
		if got := p.TotalPages(); got != tt.want {
			t.Errorf("size %d total %d: expected %d pages, got %d", tt.size, tt.total, tt.want, got)
		}
	}
}

func TestNewResponse(t *testing.T) {
	page := NewPage([]string{"a", "b"}, Pageable{Page: 2, Size: 2}, 7)

	r := NewResponse(page)
	if r.CurrentPage != 3 {
		t.Errorf("expected 1-based page 3, got %d", r.CurrentPage)
	}
	if r.PageSize != 2 || r.TotalPages != 4 || r.TotalElements != 7 {
		t.Errorf("unexpected envelope %+v", r)
	}
	if got, ok := r.Results.([]string); !ok || len(got) != 2 {
		t.Errorf("unexpected results %#v", r.Results)
	}

	empty := NewResponse(Page[string]{Size: 20})
	if got, ok := empty.Results.([]string); !ok || got == nil {
		t.Errorf("expected an empty non-nil result list, got %#v", empty.Results)
	}
}
