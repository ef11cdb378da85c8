package gate

import (
	"errors"
	"testing"
	"time"
)

func TestGate_Unlock(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		secret  string
		input   string
		wantErr error
	}{
		{name: "match", secret: "bansuri", input: "bansuri"},
		{name: "mismatch", secret: "bansuri", input: "flute", wantErr: ErrDenied},
		{name: "empty input", secret: "bansuri", input: "", wantErr: ErrDenied},
		{name: "unconfigured gate", secret: "", input: "", wantErr: ErrDenied},
		{name: "prefix only", secret: "bansuri", input: "ban", wantErr: ErrDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(tt.secret)
			g.now = func() time.Time { return fixed }
			c, err := g.Unlock(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Unlock err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if c.Valid() {
					t.Errorf("denied unlock returned valid capability")
				}
				return
			}
			if !c.Valid() || !c.GrantedAt().Equal(fixed) {
				t.Errorf("got capability %+v", c)
			}
		})
	}
}

func TestCapability_ZeroValueInvalid(t *testing.T) {
	var c Capability
	if c.Valid() {
		t.Error("zero capability should be invalid")
	}
}
