package dictionary

import (
	"encoding/hex"
	"testing"
)

func TestLookup_Known(t *testing.T) {
	tests := []struct {
		name string
		aid  string
		want string
	}{
		{"u2f demo exact", "A0000006472F0001", "FIDO U2F demo authenticator"},
		{"u2f demo with extra bytes", "A0000006472F0001AA", "FIDO U2F demo authenticator"},
		{"3gpp rid only", "A000000087", "3GPP USIM / authentication demo"},
		{"3gpp usim aid", "A0000000871002", "3GPP USIM / authentication demo"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			aid, err := hex.DecodeString(tc.aid)
			if err != nil {
				t.Fatalf("hex.DecodeString() error = %v", err)
			}
			label, ok := Lookup(aid)
			if !ok {
				t.Fatalf("Lookup(%s) found = false, want true", tc.aid)
			}
			if label != tc.want {
				t.Errorf("Lookup(%s) = %q, want %q", tc.aid, label, tc.want)
			}
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	if _, ok := Lookup([]byte{0xFF, 0xFF, 0xFF}); ok {
		t.Errorf("Lookup() found = true for an unregistered AID, want false")
	}
}

func TestAll_NotEmpty(t *testing.T) {
	if len(All()) == 0 {
		t.Fatalf("All() returned no entries")
	}
}
