package medcode

import "testing"

func TestNDCToATC(t *testing.T) {
	cm, err := New("NDC", "ATC")
	if err != nil {
		t.Fatal(err)
	}

	if cm.Len() < 1 {
		t.Fatal("expected a nonempty NDC->ATC table")
	}

	targets, ok := cm.Map("00045049650")
	if !ok {
		t.Fatal("expected a mapping for acetaminophen's NDC")
	}
	if len(targets) != 1 || targets[0] != "N02BE01" {
		t.Fatalf("expected [N02BE01], got %v", targets)
	}

	if got := ATCLevel(targets[0], 3); got != "N02B" {
		t.Fatalf("expected N02B at ATC level 3, got %s", got)
	}
}

func TestICD9ToICD10(t *testing.T) {
	cm, err := New("ICD9CM", "ICD10CM")
	if err != nil {
		t.Fatal(err)
	}

	targets, ok := cm.Map("41401")
	if !ok || len(targets) != 1 || targets[0] != "I2510" {
		t.Fatalf("expected [I2510], got %v (ok=%v)", targets, ok)
	}

	// One-to-many source codes return every target
	targets, ok = cm.Map("99681")
	if !ok || len(targets) != 2 {
		t.Fatalf("expected two targets for 99681, got %v (ok=%v)", targets, ok)
	}
}

func TestUnmappedCodePassesThrough(t *testing.T) {
	cm, err := New("ICD9CM", "ICD10CM")
	if err != nil {
		t.Fatal(err)
	}

	targets, ok := cm.Map("99999")
	if ok {
		t.Fatal("did not expect a mapping for 99999")
	}
	if len(targets) != 1 || targets[0] != "99999" {
		t.Fatalf("expected verbatim passthrough, got %v", targets)
	}
}

func TestUnregisteredPair(t *testing.T) {
	if _, err := New("ICD10CM", "ICD9CM"); err == nil {
		t.Fatal("expected an error for an unregistered pair")
	}
}

func TestATCLevels(t *testing.T) {
	code := "C07AB02"

	for level, want := range map[int]string{1: "C", 2: "C07", 3: "C07A", 4: "C07AB", 5: "C07AB02"} {
		if got := ATCLevel(code, level); got != want {
			t.Errorf("level %d: expected %s, got %s", level, want, got)
		}
	}

	// Short or oddly leveled codes come back unchanged
	if got := ATCLevel("N02", 3); got != "N02" {
		t.Errorf("expected N02, got %s", got)
	}
	if got := ATCLevel(code, 9); got != code {
		t.Errorf("expected %s, got %s", code, got)
	}
}
