package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewManager("test-secret", 1)
	subject := Subject{
		UserID:       uuid.New(),
		Username:     "barista",
		Role:         "staff",
		TenantID:     uuid.New(),
		Privileges:   []string{"product:view"},
		TokenVersion: "v1",
	}

	token, err := m.GenerateToken(subject)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != subject.UserID || claims.TenantID != subject.TenantID {
		t.Errorf("ids not round-tripped: %+v", claims)
	}
	if claims.Username != "barista" || claims.Role != "staff" || claims.TokenVersion != "v1" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if len(claims.Privileges) != 1 || claims.Privileges[0] != "product:view" {
		t.Errorf("privileges: got %v", claims.Privileges)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	m := NewManager("test-secret", 1)
	token, err := m.GenerateToken(Subject{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := m.ValidateToken(""); !errors.Is(err, ErrMissingToken) {
		t.Errorf("empty token: got %v", err)
	}

	other := NewManager("another-secret", 1)
	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret: got %v", err)
	}

	expired := NewManager("test-secret", 1)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := expired.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: got %v", err)
	}

	if _, err := m.ValidateToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token: got %v", err)
	}
}
