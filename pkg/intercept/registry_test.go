package intercept

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type orderedComponent struct {
	name  string
	order int
}

func (c orderedComponent) Order() int { return c.order }

type unorderedComponent struct {
	name string
}

func TestSortByOrder(t *testing.T) {
	items := []any{
		unorderedComponent{name: "first-unordered"},
		orderedComponent{name: "late", order: 100},
		unorderedComponent{name: "second-unordered"},
		orderedComponent{name: "highest", order: HighestPrecedence},
		orderedComponent{name: "early", order: -5},
		orderedComponent{name: "tie-a", order: 10},
		orderedComponent{name: "tie-b", order: 10},
	}

	SortByOrder(items)

	got := make([]string, 0, len(items))
	for _, item := range items {
		switch typed := item.(type) {
		case orderedComponent:
			got = append(got, typed.name)
		case unorderedComponent:
			got = append(got, typed.name)
		}
	}

	want := []string{"highest", "early", "tie-a", "tie-b", "late", "first-unordered", "second-unordered"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sort order mismatch (-want +got):\n%s", diff)
	}
}

func TestSimpleRegistry(t *testing.T) {
	registry := NewSimpleRegistry()
	registry.Register("alpha", orderedComponent{name: "alpha", order: 2}, "widgets")
	registry.Register("beta", orderedComponent{name: "beta", order: 1}, "widgets")
	registry.Register("gamma", unorderedComponent{name: "gamma"}, "widgets", "others")

	component, ok := registry.Get("alpha")
	if !ok {
		t.Fatal("Get(alpha) reported missing")
	}
	if component.(orderedComponent).name != "alpha" {
		t.Errorf("Get(alpha) = %v", component)
	}

	if _, ok := registry.Get("ghost"); ok {
		t.Error("Get(ghost) reported a component")
	}

	widgets := registry.AllOf("widgets")
	names := make([]string, 0, len(widgets))
	for _, item := range widgets {
		switch typed := item.(type) {
		case orderedComponent:
			names = append(names, typed.name)
		case unorderedComponent:
			names = append(names, typed.name)
		}
	}
	want := []string{"beta", "alpha", "gamma"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("AllOf order mismatch (-want +got):\n%s", diff)
	}

	if got := registry.AllOf("unknown"); len(got) != 0 {
		t.Errorf("AllOf(unknown) = %v, want empty", got)
	}
}

func TestGetAs(t *testing.T) {
	registry := NewSimpleRegistry()
	registry.Register("gen", SimpleKeyGenerator{})

	if _, ok := GetAs[KeyGenerator](registry, "gen"); !ok {
		t.Error("GetAs[KeyGenerator] failed for a registered generator")
	}
	if _, ok := GetAs[Condition](registry, "gen"); ok {
		t.Error("GetAs[Condition] matched a key generator")
	}
	if _, ok := GetAs[KeyGenerator](registry, "ghost"); ok {
		t.Error("GetAs matched an unknown name")
	}
	if _, ok := GetAs[KeyGenerator](nil, "gen"); ok {
		t.Error("GetAs matched against a nil registry")
	}
}

func TestSimpleKeyGenerator(t *testing.T) {
	generator := SimpleKeyGenerator{}
	method := NewSimpleMethod("LoadUser", nil)

	tests := []struct {
		name string
		args []any
		want any
	}{
		{name: "no args uses method name", args: nil, want: "LoadUser"},
		{name: "single arg is the key", args: []any{"u:1"}, want: "u:1"},
		{name: "single non-string arg", args: []any{42}, want: 42},
		{name: "multiple args join", args: []any{"u:1", 7}, want: "LoadUser:u:1:7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := generator.Generate(nil, method, tt.args)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if key != tt.want {
				t.Errorf("Generate() = %v, want %v", key, tt.want)
			}
		})
	}
}
