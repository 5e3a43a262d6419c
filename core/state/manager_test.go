package state

import (
	"testing"

	"github.com/holiman/uint256"

	"cauldron/storage"
)

type testRecord struct {
	Owner  [20]byte
	Amount *uint256.Int
	Flag   bool
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	return NewManager(db)
}

func TestKVReadWrite(t *testing.T) {
	mgr := newTestManager(t)
	key := []byte("cauldron/test/1")

	var missing testRecord
	ok, err := mgr.KVGet(key, &missing)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if ok {
		t.Fatalf("expected missing key")
	}

	record := testRecord{Owner: [20]byte{0x01}, Amount: uint256.NewInt(42), Flag: true}
	if err := mgr.KVPut(key, &record); err != nil {
		t.Fatalf("put: %v", err)
	}
	var decoded testRecord
	ok, err = mgr.KVGet(key, &decoded)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if decoded.Owner != record.Owner || decoded.Amount.Cmp(record.Amount) != 0 || !decoded.Flag {
		t.Fatalf("unexpected record: %+v", decoded)
	}

	if has, _ := mgr.KVHas(key); !has {
		t.Fatalf("expected KVHas to report the key")
	}
	if err := mgr.KVDelete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if has, _ := mgr.KVHas(key); has {
		t.Fatalf("expected key to be deleted")
	}
	if err := mgr.KVPut(nil, &record); err == nil {
		t.Fatalf("expected empty key to be rejected")
	}
}

func TestStageCommitAndDiscard(t *testing.T) {
	mgr := newTestManager(t)
	key := []byte("cauldron/test/stage")

	staged := mgr.Stage()
	if err := staged.KVPut(key, uint64(7)); err != nil {
		t.Fatalf("staged put: %v", err)
	}
	if has, _ := mgr.KVHas(key); has {
		t.Fatalf("root must not observe staged writes")
	}
	var value uint64
	if ok, _ := staged.KVGet(key, &value); !ok || value != 7 {
		t.Fatalf("staged view should read its own write, got %d", value)
	}
	staged.Discard()
	if has, _ := mgr.KVHas(key); has {
		t.Fatalf("discarded write reached root")
	}

	staged = mgr.Stage()
	if err := staged.KVPut(key, uint64(9)); err != nil {
		t.Fatalf("staged put: %v", err)
	}
	if err := staged.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if ok, _ := mgr.KVGet(key, &value); !ok || value != 9 {
		t.Fatalf("expected committed value 9, got %d", value)
	}

	if err := mgr.Commit(); err == nil {
		t.Fatalf("expected commit on root manager to fail")
	}
}

func TestRoles(t *testing.T) {
	mgr := newTestManager(t)
	alice := []byte{0xaa}
	bob := []byte{0xbb}

	if mgr.HasRole("ROLE_TEST", alice) {
		t.Fatalf("unexpected role before grant")
	}
	for _, addr := range [][]byte{bob, alice, alice} {
		if err := mgr.SetRole("ROLE_TEST", addr); err != nil {
			t.Fatalf("set role: %v", err)
		}
	}
	members, err := mgr.RoleMembers("ROLE_TEST")
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 2 || members[0][0] != 0xaa || members[1][0] != 0xbb {
		t.Fatalf("unexpected members: %x", members)
	}
	if !mgr.HasRole(" ROLE_TEST ", bob) {
		t.Fatalf("expected bob to hold role")
	}

	if err := mgr.RemoveRole("ROLE_TEST", bob); err != nil {
		t.Fatalf("remove role: %v", err)
	}
	if mgr.HasRole("ROLE_TEST", bob) {
		t.Fatalf("expected bob to lose role")
	}
	if err := mgr.RemoveRole("ROLE_TEST", alice); err != nil {
		t.Fatalf("remove role: %v", err)
	}
	members, _ = mgr.RoleMembers("ROLE_TEST")
	if len(members) != 0 {
		t.Fatalf("expected empty role, got %x", members)
	}
	if err := mgr.SetRole("  ", alice); err == nil {
		t.Fatalf("expected empty role name to be rejected")
	}
	if mgr.HasRole("ROLE_TEST", nil) {
		t.Fatalf("empty address must never hold a role")
	}
}
