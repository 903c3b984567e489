package service

import (
	"testing"

	"split-bill/internal/domain"
	"split-bill/internal/models"
)

func TestCreateGroupGrantsAdminMembership(t *testing.T) {
	svc, db := newTestService(t)
	alice := createUser(t, db, "alice")

	group, err := svc.CreateGroup(asActor(alice), "Trip to Oslo")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	if group.CreatedBy != alice.ID {
		t.Errorf("created_by: expected %d, got %d", alice.ID, group.CreatedBy)
	}

	var memberships []models.Membership
	if err := db.Where("group_id = ?", group.ID).Find(&memberships).Error; err != nil {
		t.Fatalf("failed to load memberships: %v", err)
	}
	if len(memberships) != 1 {
		t.Fatalf("memberships: expected exactly 1, got %d", len(memberships))
	}
	if memberships[0].UserID != alice.ID || memberships[0].Role != models.RoleAdmin {
		t.Errorf("expected admin membership for creator, got user=%d role=%s",
			memberships[0].UserID, memberships[0].Role)
	}

	if len(group.Members) != 1 || group.Members[0].Role != models.RoleAdmin {
		t.Errorf("detail members: expected one admin, got %+v", group.Members)
	}
}

func TestCreateGroupEmptyName(t *testing.T) {
	svc, db := newTestService(t)
	alice := createUser(t, db, "alice")

	_, err := svc.CreateGroup(asActor(alice), "  ")
	wantKind(t, err, domain.KindValidation)
}

func TestGetGroupRequiresMembership(t *testing.T) {
	svc, db := newTestService(t)
	alice := createUser(t, db, "alice")
	mallory := createUser(t, db, "mallory")
	root := createSuperuser(t, db, "root")

	group, err := svc.CreateGroup(asActor(alice), "Flat 4B")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	if _, err := svc.GetGroup(asActor(alice), group.ID); err != nil {
		t.Errorf("member read failed: %v", err)
	}

	_, err = svc.GetGroup(asActor(mallory), group.ID)
	wantKind(t, err, domain.KindForbidden)

	if _, err := svc.GetGroup(asActor(root), group.ID); err != nil {
		t.Errorf("superuser read failed: %v", err)
	}

	_, err = svc.GetGroup(asActor(alice), group.ID+999)
	wantKind(t, err, domain.KindNotFound)
}

func TestListGroupsDeduplicates(t *testing.T) {
	svc, db := newTestService(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	// Alice creates two groups (creator AND member of each); Bob joins one.
	g1, err := svc.CreateGroup(asActor(alice), "Groceries")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if _, err := svc.CreateGroup(asActor(alice), "Utilities"); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if err := svc.AddMember(asActor(alice), g1.ID, bob.ID); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	groups, err := svc.ListGroups(asActor(alice))
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if len(groups) != 2 {
		t.Errorf("alice groups: expected 2, got %d", len(groups))
	}

	groups, err = svc.ListGroups(asActor(bob))
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if len(groups) != 1 || groups[0].ID != g1.ID {
		t.Errorf("bob groups: expected only group %d, got %+v", g1.ID, groups)
	}
}

func TestUpdateGroupAllowList(t *testing.T) {
	svc, db := newTestService(t)
	alice := createUser(t, db, "alice")

	group, err := svc.CreateGroup(asActor(alice), "Old name")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	updated, err := svc.UpdateGroup(asActor(alice), group.ID, map[string]any{"name": "New name"})
	if err != nil {
		t.Fatalf("UpdateGroup failed: %v", err)
	}
	if updated.Name != "New name" {
		t.Errorf("name: expected 'New name', got %q", updated.Name)
	}

	// A disallowed field rejects the whole request, even alongside a valid name.
	_, err = svc.UpdateGroup(asActor(alice), group.ID, map[string]any{
		"name":       "Another name",
		"created_by": float64(99),
	})
	wantKind(t, err, domain.KindValidation)

	fresh, err := svc.GetGroup(asActor(alice), group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if fresh.Name != "New name" {
		t.Errorf("rejected update must apply nothing; name is %q", fresh.Name)
	}
	if fresh.CreatedBy != alice.ID {
		t.Errorf("created_by must be untouched, got %d", fresh.CreatedBy)
	}
}

func TestUpdateGroupRequiresAdminGate(t *testing.T) {
	svc, db := newTestService(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	root := createSuperuser(t, db, "root")

	group, err := svc.CreateGroup(asActor(alice), "Shared")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if err := svc.AddMember(asActor(alice), group.ID, bob.ID); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	// Plain member.
	_, err = svc.UpdateGroup(asActor(bob), group.ID, map[string]any{"name": "x"})
	wantKind(t, err, domain.KindForbidden)

	// Bob promoted to admin role still fails the gate: he is not the creator.
	if err := db.Model(&models.Membership{}).
		Where("group_id = ? AND user_id = ?", group.ID, bob.ID).
		Update("role", models.RoleAdmin).Error; err != nil {
		t.Fatalf("failed to promote bob: %v", err)
	}
	_, err = svc.UpdateGroup(asActor(bob), group.ID, map[string]any{"name": "x"})
	wantKind(t, err, domain.KindForbidden)

	// The creator with a revoked admin role fails the gate too.
	if err := db.Model(&models.Membership{}).
		Where("group_id = ? AND user_id = ?", group.ID, alice.ID).
		Update("role", models.RoleMember).Error; err != nil {
		t.Fatalf("failed to demote alice: %v", err)
	}
	_, err = svc.UpdateGroup(asActor(alice), group.ID, map[string]any{"name": "x"})
	wantKind(t, err, domain.KindForbidden)

	// Superuser bypasses everything.
	if _, err := svc.UpdateGroup(asActor(root), group.ID, map[string]any{"name": "forced"}); err != nil {
		t.Errorf("superuser update failed: %v", err)
	}
}

func TestDeleteGroupCascades(t *testing.T) {
	svc, db := newTestService(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	group, err := svc.CreateGroup(asActor(alice), "Dinner club")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if err := svc.AddMember(asActor(alice), group.ID, bob.ID); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	expense, err := svc.CreateExpense(asActor(alice), group.ID, "Pizza night", nil)
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	item, err := svc.CreateItem(asActor(alice), expense.ID, "Margherita", 1200)
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if err := svc.SetShares(asActor(alice), item.ID, []uint{alice.ID, bob.ID}); err != nil {
		t.Fatalf("SetShares failed: %v", err)
	}

	if err := svc.DeleteGroup(asActor(alice), group.ID); err != nil {
		t.Fatalf("DeleteGroup failed: %v", err)
	}

	counts := map[string]any{
		"groups":      &models.Group{},
		"memberships": &models.Membership{},
		"expenses":    &models.Expense{},
		"items":       &models.Item{},
		"item_shares": &models.ItemShare{},
	}
	for table, model := range counts {
		var n int64
		if err := db.Model(model).Count(&n).Error; err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s: expected 0 rows after cascade, got %d", table, n)
		}
	}
}
