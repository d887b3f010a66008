package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"cafe-stock/internal/model"
)

const day = 24 * time.Hour

func TestSubscriptionLifecycleScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.newTenant(t, "owner")

	sub, err := env.billing.EnsureSubscription(ctx, owner.UserID)
	if err != nil {
		t.Fatalf("EnsureSubscription: %v", err)
	}
	if sub.Status != model.SubscriptionTrialing || !sub.TrialEndsAt.Equal(testStart.Add(14*day)) {
		t.Fatalf("new subscription: %+v", sub)
	}

	env.clock.Advance(2 * day)
	first, err := env.billing.SubmitPayment(ctx, owner, &PaymentRequest{Reference: "TXN1"})
	if err != nil {
		t.Fatalf("SubmitPayment: %v", err)
	}
	if first.Status != model.PaymentPending || first.Method != model.PaymentMethodPromptPay || !first.Amount.Equal(dec("399")) {
		t.Fatalf("payment: %+v", first)
	}
	assertSubStatus(t, env, owner, model.SubscriptionPending)

	env.clock.Advance(time.Hour)
	approvedAt := env.clock.Now()
	approved, err := env.billing.ApprovePayment(ctx, owner, first.ID)
	if err != nil {
		t.Fatalf("ApprovePayment: %v", err)
	}
	if approved.Status != model.PaymentApproved || !approved.ApprovedAt.Equal(approvedAt) || *approved.ApprovedBy != owner.UserID {
		t.Fatalf("approved payment: %+v", approved)
	}
	sub = assertSubStatus(t, env, owner, model.SubscriptionActive)
	wantPaidUntil := approvedAt.Add(30 * day)
	if !sub.PaidUntil.Equal(wantPaidUntil) {
		t.Fatalf("paid until: got %v, want %v", sub.PaidUntil, wantPaidUntil)
	}

	env.clock.Advance(day)
	second, err := env.billing.SubmitPayment(ctx, owner, &PaymentRequest{Reference: "TXN2"})
	if err != nil {
		t.Fatalf("second SubmitPayment: %v", err)
	}
	rejected, err := env.billing.RejectPayment(ctx, owner, second.ID)
	if err != nil {
		t.Fatalf("RejectPayment: %v", err)
	}
	if rejected.Status != model.PaymentRejected {
		t.Fatalf("rejected payment status: %s", rejected.Status)
	}

	sub = assertSubStatus(t, env, owner, model.SubscriptionPastDue)
	if !sub.PaidUntil.Equal(wantPaidUntil) {
		t.Fatalf("rejection moved paid until to %v", sub.PaidUntil)
	}

	overview, err := env.billing.Overview(ctx, owner)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if len(overview.Payments) != 2 || overview.Payments[0].ID != second.ID {
		t.Fatalf("overview payments: %+v", overview.Payments)
	}
	if overview.Payments[1].Status != model.PaymentApproved {
		t.Fatalf("first payment changed: %+v", overview.Payments[1])
	}
	if !overview.Active {
		t.Error("still inside the paid period, should be active")
	}

	if _, err := env.billing.ApprovePayment(ctx, owner, first.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("approving an approved payment: got %v", err)
	}
}

func assertSubStatus(t *testing.T, env *testEnv, actor Actor, want model.SubscriptionStatus) *model.Subscription {
	t.Helper()
	sub, err := env.billing.EnsureSubscription(context.Background(), actor.UserID)
	if err != nil {
		t.Fatalf("EnsureSubscription: %v", err)
	}
	if sub.Status != want {
		t.Fatalf("subscription status: got %s, want %s", sub.Status, want)
	}
	return sub
}

func TestRenewalDoesNotStack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.newTenant(t, "owner")

	p1, err := env.billing.SubmitPayment(ctx, owner, &PaymentRequest{Reference: "A"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.billing.ApprovePayment(ctx, owner, p1.ID); err != nil {
		t.Fatal(err)
	}

	env.clock.Advance(5 * day)
	p2, err := env.billing.SubmitPayment(ctx, owner, &PaymentRequest{Reference: "B"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.billing.ApprovePayment(ctx, owner, p2.ID); err != nil {
		t.Fatal(err)
	}

	sub := assertSubStatus(t, env, owner, model.SubscriptionActive)
	want := testStart.Add(5 * day).Add(30 * day)
	if !sub.PaidUntil.Equal(want) {
		t.Fatalf("paid until: got %v, want %v (no stacking)", sub.PaidUntil, want)
	}
}

func TestSubmitPaymentRequiresProof(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.newTenant(t, "owner")

	if _, err := env.billing.SubmitPayment(ctx, owner, &PaymentRequest{Reference: "   "}); !errors.Is(err, ErrMissingProof) {
		t.Fatalf("no proof: got %v", err)
	}

	p, err := env.billing.SubmitPayment(ctx, owner, &PaymentRequest{Method: "bank", SlipPath: "data/slips/1-slip.png"})
	if err != nil {
		t.Fatalf("slip only: %v", err)
	}
	if !p.HasSlip() || p.Reference != nil || p.Method != "bank" {
		t.Fatalf("payment: %+v", p)
	}

	path, err := env.billing.SlipPath(ctx, owner, p.ID)
	if err != nil || path != "data/slips/1-slip.png" {
		t.Fatalf("SlipPath: %q, %v", path, err)
	}
}

func TestFirstPaymentsRacingForTheTrialRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.newTenant(t, "owner")

	const requests = 5
	errs := make(chan error, requests)
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.billing.SubmitPayment(ctx, owner, &PaymentRequest{Reference: fmt.Sprintf("TXN%d", i)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("SubmitPayment: %v", err)
		}
	}

	var subs int64
	env.db.Model(&model.Subscription{}).Where("user_id = ?", owner.UserID).Count(&subs)
	if subs != 1 {
		t.Fatalf("subscriptions for owner: got %d, want 1", subs)
	}
	sub, err := env.billing.EnsureSubscription(ctx, owner.UserID)
	if err != nil || sub.Status != model.SubscriptionPending {
		t.Fatalf("subscription after payments: %+v, %v", sub, err)
	}
}

func TestReviewGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.newTenant(t, "owner")
	staff := env.newMember(t, owner, "barista", model.RoleStaff)
	other := env.newTenant(t, "other-cafe")

	p, err := env.billing.SubmitPayment(ctx, staff, &PaymentRequest{Reference: "STAFF-1"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := env.billing.ApprovePayment(ctx, staff, p.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("staff approving: got %v", err)
	}
	if _, err := env.billing.ApprovePayment(ctx, other, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign admin approving: got %v", err)
	}
	if _, err := env.billing.SlipPath(ctx, other, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign admin reading slip: got %v", err)
	}

	payments, err := env.billing.ListTenantPayments(ctx, owner)
	if err != nil || len(payments) != 1 || payments[0].User == nil || payments[0].User.Username != "barista" {
		t.Fatalf("tenant payments: %+v, %v", payments, err)
	}
	if list, _ := env.billing.ListTenantPayments(ctx, other); len(list) != 0 {
		t.Fatalf("other tenant sees %d payments", len(list))
	}

	if _, err := env.billing.ApprovePayment(ctx, owner, p.ID); err != nil {
		t.Fatalf("owner approving staff payment: %v", err)
	}
	if active, err := env.billing.IsActive(ctx, staff.UserID); err != nil || !active {
		t.Fatalf("staff subscription should be active: %v, %v", active, err)
	}
}

func TestTrialExpiryBoundary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.newTenant(t, "owner")

	if active, _ := env.billing.IsActive(ctx, owner.UserID); active {
		t.Fatal("no subscription yet, must be inactive")
	}
	if _, err := env.billing.EnsureSubscription(ctx, owner.UserID); err != nil {
		t.Fatal(err)
	}

	env.clock.Set(testStart.Add(14 * day))
	if active, _ := env.billing.IsActive(ctx, owner.UserID); !active {
		t.Fatal("active at trial end instant")
	}
	env.clock.Set(testStart.Add(14*day + time.Second))
	if active, _ := env.billing.IsActive(ctx, owner.UserID); active {
		t.Fatal("inactive after trial end")
	}

	// The trial is never restarted.
	sub, err := env.billing.EnsureSubscription(ctx, owner.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if !sub.TrialStartedAt.Equal(testStart) {
		t.Fatalf("trial restarted at %v", sub.TrialStartedAt)
	}
}

func TestEnsureSubscriptionBackfillsLegacyRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.newTenant(t, "owner")

	legacy := &model.Subscription{UserID: owner.UserID, PlanName: "Cafe", Price: dec("399"), Status: model.SubscriptionActive}
	if err := env.db.Create(legacy).Error; err != nil {
		t.Fatal(err)
	}

	sub, err := env.billing.EnsureSubscription(ctx, owner.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if sub.ID != legacy.ID || sub.TrialStartedAt == nil || !sub.TrialEndsAt.Equal(testStart.Add(14*day)) {
		t.Fatalf("backfill: %+v", sub)
	}
}

func TestInvoice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.newTenant(t, "owner")
	staff := env.newMember(t, owner, "barista", model.RoleStaff)
	other := env.newTenant(t, "other-cafe")

	p, err := env.billing.SubmitPayment(ctx, owner, &PaymentRequest{Reference: "TXN1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.billing.Invoice(ctx, owner, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("invoice for pending payment: got %v", err)
	}
	if _, err := env.billing.ApprovePayment(ctx, owner, p.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := env.billing.Invoice(ctx, owner, p.ID); !errors.Is(err, ErrProfileRequired) {
		t.Fatalf("invoice without profile: got %v", err)
	}

	if _, err := env.billing.SaveInvoiceProfile(ctx, owner, &InvoiceProfileRequest{BusinessName: "Owner Cafe"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("profile without address: got %v", err)
	}
	if _, err := env.billing.SaveInvoiceProfile(ctx, owner, &InvoiceProfileRequest{BusinessName: "Old name", Address: "1 Road"}); err != nil {
		t.Fatal(err)
	}
	profile, err := env.billing.SaveInvoiceProfile(ctx, owner, &InvoiceProfileRequest{BusinessName: " Owner Cafe ", Address: "2 Road", TaxID: "0105"})
	if err != nil {
		t.Fatal(err)
	}
	if profile.BusinessName != "Owner Cafe" || profile.Address != "2 Road" || profile.TaxID == nil || *profile.TaxID != "0105" {
		t.Fatalf("profile upsert: %+v", profile)
	}

	inv, err := env.billing.Invoice(ctx, owner, p.ID)
	if err != nil {
		t.Fatalf("Invoice: %v", err)
	}
	if !inv.Subtotal.Equal(dec("372.90")) || !inv.VAT.Equal(dec("26.10")) || !inv.Total.Equal(dec("399")) {
		t.Fatalf("vat split: subtotal=%s vat=%s total=%s", inv.Subtotal, inv.VAT, inv.Total)
	}
	if inv.Buyer.BusinessName != "Owner Cafe" || inv.Seller.BusinessName == "" || inv.Number == "" {
		t.Fatalf("invoice parties: %+v", inv)
	}

	if _, err := env.billing.Invoice(ctx, staff, p.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("staff reading owner's invoice: got %v", err)
	}
	if _, err := env.billing.Invoice(ctx, other, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign tenant reading invoice: got %v", err)
	}
}
