package knol

import "testing"

func TestFingerprint(t *testing.T) {
	t.Run("generates correct hash", func(t *testing.T) {
		// sha256 of "q\na\nc"
		expected := "eb2456c1ee4f36305069dd0f63a30e92d5443129f5e8fd9a5ec490fbc4d4d8a2"
		if got := Fingerprint("Q", "A", "C"); got != expected {
			t.Errorf("Expected fingerprint '%s', but got '%s'", expected, got)
		}
	})

	t.Run("normalization produces same hash", func(t *testing.T) {
		a := Fingerprint("  what is a flashover? \r\n", "Ignition of everything at once.", "Fire")
		b := Fingerprint("What Is A Flashover?", "ignition of everything at once.", "fire")
		if a != b {
			t.Error("Expected fingerprints to match after normalization, but they were different.")
		}
	})

	t.Run("field boundaries matter", func(t *testing.T) {
		if Fingerprint("ab", "c", "") == Fingerprint("a", "bc", "") {
			t.Error("Expected fingerprints to differ when content moves between fields")
		}
	})

	t.Run("different content has different hashes", func(t *testing.T) {
		if Fingerprint("Card 1", "", "") == Fingerprint("Card 2", "", "") {
			t.Error("Expected fingerprints for different cards to be different")
		}
	})
}
