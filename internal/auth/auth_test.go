package auth

import (
	"strings"
	"testing"
)

func TestNormalizeDisplayName(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "valid", raw: "Ann Lee", want: "Ann Lee"},
		{name: "trim", raw: "  小王  ", want: "小王"},
		{name: "case kept", raw: "ANN", want: "ANN"},
		{name: "empty", raw: "   ", wantErr: true},
		{name: "control", raw: "a\tb", wantErr: true},
		{name: "too long", raw: strings.Repeat("x", 65), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDisplayName(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("NormalizeDisplayName(%q)=%q want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestAvatarURLDeterministic(t *testing.T) {
	base := "https://api.dicebear.com/9.x/micah/svg"
	first := AvatarURL(base, "Ann Lee")
	if first != AvatarURL(base, "Ann Lee") {
		t.Fatal("expected same avatar for same name")
	}
	if first != base+"?seed=Ann+Lee" {
		t.Fatalf("unexpected avatar url %q", first)
	}
	if first == AvatarURL(base, "Bob") {
		t.Fatal("expected different avatars for different names")
	}
}

func TestHashAndVerifyToken(t *testing.T) {
	hash, err := HashToken("token-0123456789ab")
	if err != nil {
		t.Fatalf("hash token: %v", err)
	}
	if !VerifyTokenHash(hash, "token-0123456789ab") {
		t.Fatal("expected token to verify")
	}
	if VerifyTokenHash(hash, "wrong") {
		t.Fatal("expected wrong token to fail")
	}
	if _, err := HashToken("short"); err == nil {
		t.Fatal("expected short token to be rejected")
	}
}

func TestTokenVerifier(t *testing.T) {
	hash, err := HashToken("hashed-token-000000")
	if err != nil {
		t.Fatalf("hash token: %v", err)
	}

	if NewTokenVerifier("", "").Enabled() {
		t.Fatal("expected verifier without tokens to be disabled")
	}

	v := NewTokenVerifier("plain-token-000000", hash)
	tests := []struct {
		candidate string
		want      bool
	}{
		{"plain-token-000000", true},
		{"hashed-token-000000", true},
		{"other", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := v.Verify(tt.candidate); got != tt.want {
			t.Fatalf("Verify(%q)=%v want %v", tt.candidate, got, tt.want)
		}
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer  abc ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := BearerToken(tt.header); got != tt.want {
			t.Fatalf("BearerToken(%q)=%q want %q", tt.header, got, tt.want)
		}
	}
}
