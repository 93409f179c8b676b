package stackmd

import "testing"

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint([]byte("# Title\n\nBody.\n"))
	b := Fingerprint([]byte("# Title\n\nBody.\n"))
	if a != b {
		t.Errorf("same content hashed differently: %q vs %q", a, b)
	}
	if a == "" {
		t.Error("Fingerprint() returned empty string")
	}
}

func TestFingerprintSensitiveToContent(t *testing.T) {
	a := Fingerprint([]byte("one"))
	b := Fingerprint([]byte("two"))
	if a == b {
		t.Errorf("different content collided: %q", a)
	}
}

func TestFingerprintEmpty(t *testing.T) {
	// Empty input still produces a stable non-empty digest.
	a := Fingerprint(nil)
	b := Fingerprint([]byte{})
	if a != b || a == "" {
		t.Errorf("Fingerprint(nil) = %q, Fingerprint(empty) = %q", a, b)
	}
}
