// Package billing is the subscription state machine. Each payment event has
// one transition function that checks the current subscription and payment
// state before mutating either.
//
//	trialing ──submit──▶ pending ──approve──▶ active
//	                      ▲   │                 │
//	                submit│   │reject     reject│
//	                      │   ▼                 ▼
//	                     past_due ◀─────────────┘
//
// Nothing ever moves back to trialing.
package billing

import (
	"errors"
	"fmt"
	"time"

	"cafe-stock/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrInvalidTransition = errors.New("subscription state transition is not allowed")

const day = 24 * time.Hour

// Plan describes what a subscription costs and how long trial and paid
// periods last.
type Plan struct {
	Name       string
	Price      decimal.Decimal
	PeriodDays int
	TrialDays  int
}

// Machine applies billing events to subscriptions and payments.
type Machine struct {
	Plan Plan
}

func NewMachine(plan Plan) *Machine {
	return &Machine{Plan: plan}
}

// NewSubscription starts a trial for userID at now.
func (m *Machine) NewSubscription(userID uuid.UUID, now time.Time) *model.Subscription {
	sub := &model.Subscription{
		UserID:   userID,
		PlanName: m.Plan.Name,
		Price:    m.Plan.Price,
	}
	m.startTrial(sub, now)
	return sub
}

// BackfillTrial starts the trial on a legacy row that never had one. It
// reports whether anything changed; a trial that was started is never
// restarted.
func (m *Machine) BackfillTrial(sub *model.Subscription, now time.Time) bool {
	if sub.TrialStartedAt != nil {
		return false
	}
	m.startTrial(sub, now)
	return true
}

func (m *Machine) startTrial(sub *model.Subscription, now time.Time) {
	start := now
	ends := now.Add(time.Duration(m.Plan.TrialDays) * day)
	sub.Status = model.SubscriptionTrialing
	sub.TrialStartedAt = &start
	sub.TrialEndsAt = &ends
}

// PaymentSubmitted moves the subscription into review. A new payment always
// reopens review, even for an active subscription.
func (m *Machine) PaymentSubmitted(sub *model.Subscription, now time.Time) error {
	switch sub.Status {
	case model.SubscriptionTrialing, model.SubscriptionPending, model.SubscriptionActive, model.SubscriptionPastDue:
		sub.Status = model.SubscriptionPending
		sub.UpdatedAt = now
		return nil
	}
	return transitionError(sub.Status, "payment_submitted")
}

// PaymentApproved marks payment approved by approver and sets paid-until to
// now plus one period. Unused time from an earlier paid-until is discarded.
func (m *Machine) PaymentApproved(sub *model.Subscription, payment *model.Payment, approver uuid.UUID, now time.Time) error {
	if payment.Status != model.PaymentPending {
		return paymentError(payment.Status, "approve")
	}
	switch sub.Status {
	case model.SubscriptionPending, model.SubscriptionPastDue, model.SubscriptionActive:
	default:
		return transitionError(sub.Status, "payment_approved")
	}

	approvedAt := now
	payment.Status = model.PaymentApproved
	payment.ApprovedAt = &approvedAt
	payment.ApprovedBy = &approver

	paidUntil := now.Add(time.Duration(m.Plan.PeriodDays) * day)
	sub.PaidUntil = &paidUntil
	sub.Status = model.SubscriptionActive
	sub.UpdatedAt = now
	return nil
}

// PaymentRejected marks payment rejected and the subscription past due.
// Trial and paid-until timestamps are left as they were.
func (m *Machine) PaymentRejected(sub *model.Subscription, payment *model.Payment, now time.Time) error {
	if payment.Status != model.PaymentPending {
		return paymentError(payment.Status, "reject")
	}
	switch sub.Status {
	case model.SubscriptionPending, model.SubscriptionPastDue, model.SubscriptionActive:
	default:
		return transitionError(sub.Status, "payment_rejected")
	}

	payment.Status = model.PaymentRejected
	sub.Status = model.SubscriptionPastDue
	sub.UpdatedAt = now
	return nil
}

// IsActive reports whether sub grants access at now. Both bounds are
// inclusive. A nil subscription is never active.
func IsActive(sub *model.Subscription, now time.Time) bool {
	if sub == nil {
		return false
	}
	if sub.TrialEndsAt != nil && !now.After(*sub.TrialEndsAt) {
		return true
	}
	if sub.PaidUntil != nil && !now.After(*sub.PaidUntil) {
		return true
	}
	return false
}

// DaysLeft is the whole number of days, rounded up, from now until t. It is
// zero for a nil or past t.
func DaysLeft(t *time.Time, now time.Time) int {
	if t == nil {
		return 0
	}
	diff := t.Sub(now)
	if diff <= 0 {
		return 0
	}
	days := int(diff / day)
	if diff%day != 0 {
		days++
	}
	return days
}

func transitionError(from model.SubscriptionStatus, event string) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, from)
}

func paymentError(status model.PaymentStatus, action string) error {
	return fmt.Errorf("%w: cannot %s a payment that is %s", ErrInvalidTransition, action, status)
}
