package common

import (
	"errors"
	"testing"
)

type roleTable map[string][]byte

func (r roleTable) HasRole(role string, addr []byte) bool {
	member, ok := r[role]
	return ok && string(member) == string(addr)
}

func TestGuard(t *testing.T) {
	if err := Guard(nil, "cauldron"); err != nil {
		t.Fatalf("nil pause view must not block: %v", err)
	}
	pauses := StaticPauses{"cauldron": true}
	if err := Guard(pauses, "cauldron"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	if err := Guard(pauses, "other"); err != nil {
		t.Fatalf("unexpected error for unpaused module: %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	roles := roleTable{"ROLE_ADMIN": []byte{0x01}}
	if err := RequireRole(roles, "ROLE_ADMIN", []byte{0x01}); err != nil {
		t.Fatalf("expected member to pass, got %v", err)
	}
	if err := RequireRole(roles, "ROLE_ADMIN", []byte{0x02}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-member, got %v", err)
	}
	if err := RequireRole(nil, "ROLE_ADMIN", []byte{0x01}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("nil checker must fail closed, got %v", err)
	}
	if err := RequireRole(roles, "ROLE_ADMIN", nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("empty caller must fail closed, got %v", err)
	}
}
