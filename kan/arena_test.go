package kan

import "testing"

func TestArenaLookupOrRegisterStable(t *testing.T) {
	a := NewReleaseArena()
	r := release("RemoteTech", "1.8.0")

	ref1 := a.LookupOrRegister(r)
	ref2 := a.LookupOrRegister(r)
	if ref1 != ref2 {
		t.Errorf("expected stable ref for repeated registration: %v vs %v", ref1, ref2)
	}

	got, ok := a.Resolve(ref1)
	if !ok || got != r {
		t.Errorf("Resolve: got %v, %v", got, ok)
	}
}

func TestArenaResetInvalidatesRefs(t *testing.T) {
	a := NewReleaseArena()
	r := release("RemoteTech", "1.8.0")
	ref := a.LookupOrRegister(r)

	a.Reset()

	if _, ok := a.Resolve(ref); ok {
		t.Errorf("expected stale ref to fail resolution after Reset")
	}

	ref2 := a.LookupOrRegister(r)
	if ref2 == ref {
		t.Errorf("expected new ref after reset to differ from the old one")
	}
	if got, ok := a.Resolve(ref2); !ok || got != r {
		t.Errorf("Resolve after reset: got %v, %v", got, ok)
	}
}

func TestArenaZeroRefNeverResolves(t *testing.T) {
	a := NewReleaseArena()
	var zero ReleaseRef
	if !zero.IsZero() {
		t.Errorf("expected zero value to report IsZero")
	}
	if _, ok := a.Resolve(zero); ok {
		t.Errorf("expected zero ref to never resolve")
	}
}
