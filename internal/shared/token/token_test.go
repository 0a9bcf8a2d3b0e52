package token

import (
	"strings"
	"testing"
	"time"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestGenerateValidate(t *testing.T) {
	issuer, err := NewIssuer(secret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	signed, err := issuer.Generate("abc-123")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := issuer.Validate(signed)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.ColonyID != "abc-123" {
		t.Errorf("colony id = %q", claims.ColonyID)
	}
}

func TestValidateRejects(t *testing.T) {
	issuer, _ := NewIssuer(secret, time.Hour)
	other, _ := NewIssuer(strings.Repeat("z", 32), time.Hour)

	foreign, _ := other.Generate("abc")
	if _, err := issuer.Validate(foreign); err == nil {
		t.Error("token signed with another secret accepted")
	}

	if _, err := issuer.Validate("not-a-token"); err == nil {
		t.Error("garbage accepted")
	}

	signed, _ := issuer.Generate("abc")
	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := issuer.Validate(signed); err == nil {
		t.Error("expired token accepted")
	}
}

func TestNewIssuerShortSecret(t *testing.T) {
	if _, err := NewIssuer("short", time.Hour); err == nil {
		t.Fatal("expected error for short secret")
	}
}
