package telegram

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/rotisserie/eris"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	token, err := EncodeToken(PendingData{
		Topic:    "AI workflow automation",
		Pillar:   "ai-automation",
		Template: "how-to-guide",
		Keywords: []string{"automation", "workflows"},
	}, now)
	if err != nil {
		t.Fatalf("EncodeToken returned error: %v", err)
	}

	decoded, err := DecodeToken(token, now.Add(5*time.Minute))
	if err != nil {
		t.Fatalf("DecodeToken returned error: %v", err)
	}

	if decoded.Topic != "AI workflow automation" {
		t.Errorf("expected topic preserved, got %q", decoded.Topic)
	}

	if decoded.Pillar != "ai-automation" || decoded.Template != "how-to-guide" {
		t.Errorf("expected pillar and template preserved, got %q/%q", decoded.Pillar, decoded.Template)
	}

	if len(decoded.Keywords) != 2 || decoded.Keywords[0] != "automation" {
		t.Errorf("expected keywords preserved, got %v", decoded.Keywords)
	}
}

func TestDecodeTokenExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	token, err := EncodeToken(PendingData{Topic: "t", Pillar: "consulting"}, now)
	if err != nil {
		t.Fatalf("EncodeToken returned error: %v", err)
	}

	if _, err := DecodeToken(token, now.Add(TokenTTL+time.Second)); !eris.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}

	if _, err := DecodeToken(token, now.Add(TokenTTL-time.Second)); err != nil {
		t.Errorf("expected token still valid just before expiry, got %v", err)
	}
}

func TestDecodeTokenInvalid(t *testing.T) {
	t.Parallel()

	now := time.Now()

	cases := map[string]string{
		"wrong version": "v2:" + base64.StdEncoding.EncodeToString([]byte(`{"topic":"t","pillar":"p","expiresAt":9999999999}`)),
		"bad base64":    "v1:not base64!!!",
		"bad json":      "v1:" + base64.StdEncoding.EncodeToString([]byte("not json")),
		"missing topic": "v1:" + base64.StdEncoding.EncodeToString([]byte(`{"pillar":"p","expiresAt":9999999999}`)),
		"empty":         "",
	}

	for name, token := range cases {
		if _, err := DecodeToken(token, now); !eris.Is(err, ErrTokenInvalid) {
			t.Errorf("%s: expected ErrTokenInvalid, got %v", name, err)
		}
	}
}
