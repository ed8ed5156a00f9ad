package resource

import (
	"testing"

	werrors "github.com/wippyai/canonabi/errors"
)

func TestStore_Tables(t *testing.T) {
	s := NewStore(testNames)
	obs := &testObserver{}
	s.Subscribe(obs)

	a := s.New(floatRes, NewInstance(1.0, nil))
	b := s.New(fileRes, NewInstance("f", nil))
	if a.ID != 1 || b.ID != 1 {
		t.Errorf("per-resource ids: %v %v", a, b)
	}
	if s.Table(floatRes) != s.Table(floatRes) {
		t.Error("Table must return the same table")
	}
	if got := s.Resources(); len(got) != 2 || got[0] != floatRes || got[1] != fileRes {
		t.Errorf("Resources = %v", got)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d", s.Len())
	}

	inst, err := s.Get(b)
	if err != nil || inst.Rep() != "f" {
		t.Fatalf("Get = %v, %v", inst, err)
	}
	if err := s.Drop(a); err != nil {
		t.Fatal(err)
	}
	wantKind(t, s.Drop(a), werrors.KindUseAfterDrop)

	if len(obs.events) != 3 {
		t.Errorf("observer saw %d events, want 3", len(obs.events))
	}
}

func TestStore_Close(t *testing.T) {
	s := NewStore(testNames)
	n := 0
	s.New(floatRes, NewInstance(1.0, func(any) { n++ }))
	s.New(fileRes, NewInstance(2.0, func(any) { n++ }))
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if n != 2 || s.Len() != 0 {
		t.Errorf("destroyed=%d len=%d", n, s.Len())
	}
}
