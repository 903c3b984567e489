package service

import (
	"testing"

	"split-bill/internal/domain"
	"split-bill/internal/models"
)

func shareFixture(t *testing.T) (*Service, Actor, uint, []models.User) {
	t.Helper()
	svc, db := newTestService(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")

	actor := asActor(alice)
	group, err := svc.CreateGroup(actor, "Cabin weekend")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	for _, u := range []models.User{bob, carol} {
		if err := svc.AddMember(actor, group.ID, u.ID); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}
	}
	expense, err := svc.CreateExpense(actor, group.ID, "Groceries", nil)
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	item, err := svc.CreateItem(actor, expense.ID, "Firewood", 900)
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	return svc, actor, item.ID, []models.User{alice, bob, carol}
}

func TestSetSharesEqualSplitWithRoundingDrift(t *testing.T) {
	svc, actor, itemID, users := shareFixture(t)

	err := svc.SetShares(actor, itemID, []uint{users[0].ID, users[1].ID, users[2].ID})
	if err != nil {
		t.Fatalf("SetShares failed: %v", err)
	}

	shares, err := svc.GetShares(actor, itemID)
	if err != nil {
		t.Fatalf("GetShares failed: %v", err)
	}
	if len(shares) != 3 {
		t.Fatalf("shares: expected 3, got %d", len(shares))
	}

	// round(1/3, 2) = 0.33 per share. The three shares sum to 0.99, not 1:
	// the rounding drift is the documented behavior, not a bug.
	var sum float64
	for _, s := range shares {
		if s.ShareAmount != 0.33 {
			t.Errorf("share: expected 0.33, got %v", s.ShareAmount)
		}
		sum += s.ShareAmount
	}
	if sum != 0.99 {
		t.Errorf("share sum: expected the 0.99 drift, got %v", sum)
	}
}

func TestSetSharesReplacesExisting(t *testing.T) {
	svc, actor, itemID, users := shareFixture(t)

	if err := svc.SetShares(actor, itemID, []uint{users[0].ID, users[1].ID, users[2].ID}); err != nil {
		t.Fatalf("SetShares failed: %v", err)
	}
	if err := svc.SetShares(actor, itemID, []uint{users[0].ID, users[1].ID}); err != nil {
		t.Fatalf("SetShares failed: %v", err)
	}

	shares, err := svc.GetShares(actor, itemID)
	if err != nil {
		t.Fatalf("GetShares failed: %v", err)
	}
	if len(shares) != 2 {
		t.Fatalf("shares after replace: expected 2, got %d", len(shares))
	}
	for _, s := range shares {
		if s.ShareAmount != 0.5 {
			t.Errorf("share: expected 0.5, got %v", s.ShareAmount)
		}
	}
}

func TestSetSharesEmptyListRejected(t *testing.T) {
	svc, actor, itemID, users := shareFixture(t)

	if err := svc.SetShares(actor, itemID, []uint{users[0].ID, users[1].ID}); err != nil {
		t.Fatalf("SetShares failed: %v", err)
	}

	err := svc.SetShares(actor, itemID, nil)
	wantKind(t, err, domain.KindValidation)

	// Existing shares stay untouched.
	shares, err := svc.GetShares(actor, itemID)
	if err != nil {
		t.Fatalf("GetShares failed: %v", err)
	}
	if len(shares) != 2 {
		t.Errorf("shares after rejected empty set: expected 2, got %d", len(shares))
	}
}

func TestSetSharesNonMemberRejectsWholeRequest(t *testing.T) {
	svc, actor, itemID, users := shareFixture(t)

	if err := svc.SetShares(actor, itemID, []uint{users[0].ID}); err != nil {
		t.Fatalf("SetShares failed: %v", err)
	}

	// One bad id poisons the batch: nothing is deleted, nothing created.
	err := svc.SetShares(actor, itemID, []uint{users[1].ID, 9999})
	wantKind(t, err, domain.KindValidation)

	shares, err := svc.GetShares(actor, itemID)
	if err != nil {
		t.Fatalf("GetShares failed: %v", err)
	}
	if len(shares) != 1 || shares[0].User.ID != users[0].ID {
		t.Errorf("shares after rejected set: expected the original single share, got %+v", shares)
	}
}

func TestSetSharesDuplicateIDsRejected(t *testing.T) {
	svc, actor, itemID, users := shareFixture(t)

	// Duplicates fall short of the membership count check.
	err := svc.SetShares(actor, itemID, []uint{users[0].ID, users[0].ID})
	wantKind(t, err, domain.KindValidation)
}

func TestSharesRequireMembership(t *testing.T) {
	svc, _, itemID, users := shareFixture(t)

	outsider := Actor{UserID: 9998}
	err := svc.SetShares(outsider, itemID, []uint{users[0].ID})
	wantKind(t, err, domain.KindForbidden)

	_, err = svc.GetShares(outsider, itemID)
	wantKind(t, err, domain.KindForbidden)

	root := Actor{UserID: 9997, Superuser: true}
	if _, err := svc.GetShares(root, itemID); err != nil {
		t.Errorf("superuser GetShares failed: %v", err)
	}
}

func TestSetSharesUnknownItem(t *testing.T) {
	svc, actor, itemID, users := shareFixture(t)

	err := svc.SetShares(actor, itemID+999, []uint{users[0].ID})
	wantKind(t, err, domain.KindNotFound)
}
