package session

import (
	"errors"
	"strings"
	"testing"

	"github.com/quotly/backend/internal/identity"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	codec, err := NewCodec([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}

	access := identity.AccessResponse{
		AccessToken:  "upstream-access-token",
		TokenType:    "Bearer",
		ExpiresIn:    604800,
		RefreshToken: "upstream-refresh-token",
		Scope:        "identify email",
	}

	token, err := codec.Issue(access)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	recovered, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if recovered != access {
		t.Fatalf("round trip mismatch: got %+v, want %+v", recovered, access)
	}
}

func TestIssueVerifyRoundTripWithWebhook(t *testing.T) {
	codec, err := NewCodec([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}

	access := identity.AccessResponse{
		AccessToken: "upstream-access-token",
		TokenType:   "Bearer",
		Webhook: &identity.WebhookDescriptor{
			ID:        "987654",
			Token:     "hook-token",
			ChannelID: "112233",
		},
	}

	token, err := codec.Issue(access)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	recovered, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if recovered.Webhook == nil {
		t.Fatalf("expected webhook descriptor to survive the round trip")
	}
	if *recovered.Webhook != *access.Webhook {
		t.Fatalf("webhook mismatch: got %+v, want %+v", *recovered.Webhook, *access.Webhook)
	}
}

func TestVerifyRejectsMutatedTokens(t *testing.T) {
	codec, err := NewCodec([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}

	token, err := codec.Issue(identity.AccessResponse{AccessToken: "upstream-access-token"})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	// Mutate one character in each JWT segment; every variant must fail closed.
	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		t.Fatalf("expected compact JWT with 3 segments, got %d", len(segments))
	}
	for i := range segments {
		mutated := make([]string, 3)
		copy(mutated, segments)
		segment := []byte(mutated[i])
		mid := len(segment) / 2
		if segment[mid] == 'A' {
			segment[mid] = 'B'
		} else {
			segment[mid] = 'A'
		}
		mutated[i] = string(segment)

		if _, err := codec.Verify(strings.Join(mutated, ".")); !errors.Is(err, ErrInvalidSession) {
			t.Fatalf("expected ErrInvalidSession for mutated segment %d, got %v", i, err)
		}
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	issuer, err := NewCodec([]byte("issuer-secret"))
	if err != nil {
		t.Fatalf("failed to create issuer codec: %v", err)
	}
	verifier, err := NewCodec([]byte("other-secret"))
	if err != nil {
		t.Fatalf("failed to create verifier codec: %v", err)
	}

	token, err := issuer.Issue(identity.AccessResponse{AccessToken: "upstream-access-token"})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession for wrong key, got %v", err)
	}
}

func TestVerifyRejectsMalformedToken(t *testing.T) {
	codec, err := NewCodec([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}
	if _, err := codec.Verify("not-a-token"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession for malformed token, got %v", err)
	}
}

func TestNewCodecRequiresSecret(t *testing.T) {
	if _, err := NewCodec(nil); err == nil {
		t.Fatalf("expected error for missing signing secret")
	}
}
