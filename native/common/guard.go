package common

import "errors"

var (
	ErrModulePaused = errors.New("module paused")
	ErrUnauthorized = errors.New("caller lacks required role")
)

// PauseView reports whether a module has been paused by governance.
type PauseView interface {
	IsPaused(module string) bool
}

// RoleChecker is the capability boundary owned by the access-control layer.
type RoleChecker interface {
	HasRole(role string, addr []byte) bool
}

func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// RequireRole fails closed: a nil checker authorises nobody.
func RequireRole(checker RoleChecker, role string, caller []byte) error {
	if checker == nil || len(caller) == 0 || !checker.HasRole(role, caller) {
		return ErrUnauthorized
	}
	return nil
}

// StaticPauses is a fixed PauseView keyed by module name.
type StaticPauses map[string]bool

// IsPaused implements PauseView.
func (s StaticPauses) IsPaused(module string) bool {
	return s[module]
}
