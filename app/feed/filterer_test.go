package feed

import (
	"reflect"
	"testing"
)

type stubPlaceFilter map[string]bool

func (s stubPlaceFilter) Tracked(name string) bool {
	return s[name]
}

func TestFilterer_TrackedOnly(t *testing.T) {
	filterer := NewFilterer(stubPlaceFilter{"Paris": true, "London": true}, true)

	got := filterer.Run([]string{"Paris", "Springfield", "London", "Paris"})
	expected := PlaceSet{"Paris", "London"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestFilterer_KeepAll(t *testing.T) {
	filterer := NewFilterer(stubPlaceFilter{}, false)

	got := filterer.Run([]string{"Springfield", "Kyiv"})
	if len(got) != 2 {
		t.Errorf("Expected both places kept, got %v", got)
	}
}

func TestFilterer_NoSurvivors(t *testing.T) {
	filterer := NewFilterer(stubPlaceFilter{"Paris": true}, true)

	if got := filterer.Run([]string{"Springfield"}); len(got) != 0 {
		t.Errorf("Expected empty set, got %v", got)
	}
}

func TestPlaceSetUnion(t *testing.T) {
	a := NewPlaceSet("Paris", "London")
	b := NewPlaceSet("London", "Tokyo", "")

	got := a.Union(b)
	expected := PlaceSet{"Paris", "London", "Tokyo"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}

	if len(a) != 2 {
		t.Errorf("Union must not modify the receiver, got %v", a)
	}
}
