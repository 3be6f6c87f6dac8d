package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mesubash/library-management-system-sub000/pkg/config"
	"github.com/mesubash/library-management-system-sub000/pkg/enums"
)

var jwtCfg = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "library-test",
	ExpirationMinutes: 15,
}

func TestMintAndParseRoundTrip(t *testing.T) {
	userID := uuid.New()
	signed, err := MintAccessToken(jwtCfg, time.Now(), AccessTokenPayload{
		UserID: userID,
		Role:   enums.UserRoleMember,
		JTI:    "session-1",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	claims, err := ParseAccessToken(jwtCfg, signed)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("unexpected user id %s", claims.UserID)
	}
	if claims.Role != enums.UserRoleMember {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.ID != "session-1" {
		t.Fatalf("unexpected jti %s", claims.ID)
	}
}

func TestMintGeneratesJTIWhenMissing(t *testing.T) {
	signed, err := MintAccessToken(jwtCfg, time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	claims, err := ParseAccessToken(jwtCfg, signed)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if strings.TrimSpace(claims.ID) == "" {
		t.Fatal("expected generated jti")
	}
}

func TestMintRejectsInvalidRole(t *testing.T) {
	_, err := MintAccessToken(jwtCfg, time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRole("librarian"),
	})
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	signed, err := MintAccessToken(jwtCfg, time.Now().Add(-time.Hour), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleMember,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	if _, err := ParseAccessToken(jwtCfg, signed); err == nil {
		t.Fatal("expected expiry error")
	}
	claims, err := ParseAccessTokenAllowExpired(jwtCfg, signed)
	if err != nil {
		t.Fatalf("allow-expired parse failed: %v", err)
	}
	if claims.ID == "" {
		t.Fatal("expected jti from expired token")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	otherIssuer := jwtCfg
	otherIssuer.Issuer = "someone-else"
	signed, err := MintAccessToken(otherIssuer, time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleMember,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	if _, err := ParseAccessToken(jwtCfg, signed); err == nil {
		t.Fatal("expected issuer validation failure")
	}
}
