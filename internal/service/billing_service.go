package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cafe-stock/internal/billing"
	"cafe-stock/internal/config"
	"cafe-stock/internal/model"
	"cafe-stock/internal/repository"
	"cafe-stock/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	billingPaymentsShown = 8
	adminPaymentsShown   = 50
)

type BillingService interface {
	EnsureSubscription(ctx context.Context, userID uuid.UUID) (*model.Subscription, error)
	IsActive(ctx context.Context, userID uuid.UUID) (bool, error)
	Overview(ctx context.Context, actor Actor) (*BillingOverview, error)
	SubmitPayment(ctx context.Context, actor Actor, req *PaymentRequest) (*model.Payment, error)
	ApprovePayment(ctx context.Context, admin Actor, paymentID uuid.UUID) (*model.Payment, error)
	RejectPayment(ctx context.Context, admin Actor, paymentID uuid.UUID) (*model.Payment, error)
	ListTenantPayments(ctx context.Context, admin Actor) ([]model.Payment, error)
	SlipPath(ctx context.Context, admin Actor, paymentID uuid.UUID) (string, error)
	SaveInvoiceProfile(ctx context.Context, actor Actor, req *InvoiceProfileRequest) (*model.InvoiceProfile, error)
	Invoice(ctx context.Context, actor Actor, paymentID uuid.UUID) (*Invoice, error)
}

type PaymentRequest struct {
	Method    string `json:"method" form:"method" validate:"max=30"`
	Reference string `json:"reference" form:"reference" validate:"max=100"`
	// SlipPath is where the upload was stored; set by the transport layer.
	SlipPath string `json:"-" form:"-"`
}

type InvoiceProfileRequest struct {
	BusinessName string `json:"business_name" validate:"required,max=255"`
	TaxID        string `json:"tax_id" validate:"max=50"`
	Branch       string `json:"branch" validate:"max=100"`
	Address      string `json:"address" validate:"required"`
	Email        string `json:"email" validate:"omitempty,email,max=255"`
	Phone        string `json:"phone" validate:"max=50"`
}

type PlanInfo struct {
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	PeriodDays int             `json:"period_days"`
	TrialDays  int             `json:"trial_days"`
}

// BillingOverview is everything the billing page shows for one user.
type BillingOverview struct {
	Plan          PlanInfo              `json:"plan"`
	Subscription  *model.Subscription   `json:"subscription"`
	Active        bool                  `json:"active"`
	TrialDaysLeft int                   `json:"trial_days_left"`
	PaidUntil     *time.Time            `json:"paid_until,omitempty"`
	Profile       *model.InvoiceProfile `json:"profile,omitempty"`
	Payments      []model.Payment       `json:"payments"`
}

// Invoice is a VAT-inclusive tax invoice for one approved payment.
type Invoice struct {
	Number   string               `json:"number"`
	IssuedAt time.Time            `json:"issued_at"`
	Seller   config.SellerConfig  `json:"seller"`
	Buyer    model.InvoiceProfile `json:"buyer"`
	Payment  model.Payment        `json:"payment"`
	Plan     PlanInfo             `json:"plan"`
	Subtotal decimal.Decimal      `json:"subtotal"`
	VATRate  decimal.Decimal      `json:"vat_rate"`
	VAT      decimal.Decimal      `json:"vat"`
	Total    decimal.Decimal      `json:"total"`
}

type billingService struct {
	db          *gorm.DB
	subRepo     repository.SubscriptionRepository
	paymentRepo repository.PaymentRepository
	profileRepo repository.InvoiceProfileRepository
	machine     *billing.Machine
	vatRate     decimal.Decimal
	seller      config.SellerConfig
	notifier    Notifier
	clock       Clock
	log         *zap.Logger
}

func NewBillingService(
	db *gorm.DB,
	subRepo repository.SubscriptionRepository,
	paymentRepo repository.PaymentRepository,
	profileRepo repository.InvoiceProfileRepository,
	plan config.PlanConfig,
	seller config.SellerConfig,
	notifier Notifier,
	clock Clock,
	log *zap.Logger,
) BillingService {
	return &billingService{
		db:          db,
		subRepo:     subRepo,
		paymentRepo: paymentRepo,
		profileRepo: profileRepo,
		machine: billing.NewMachine(billing.Plan{
			Name:       plan.Name,
			Price:      plan.Price,
			PeriodDays: plan.PeriodDays,
			TrialDays:  plan.TrialDays,
		}),
		vatRate:  plan.VATRate,
		seller:   seller,
		notifier: notifier,
		clock:    clock,
		log:      log.Named("billing"),
	}
}

func (s *billingService) plan() PlanInfo {
	p := s.machine.Plan
	return PlanInfo{Name: p.Name, Price: p.Price, PeriodDays: p.PeriodDays, TrialDays: p.TrialDays}
}

// EnsureSubscription creates the user's trial on first use and backfills
// trial dates on rows that never had them.
func (s *billingService) EnsureSubscription(ctx context.Context, userID uuid.UUID) (*model.Subscription, error) {
	var sub *model.Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		sub, err = s.ensureLocked(ctx, s.subRepo.WithTx(tx), userID)
		return err
	})
	if errors.Is(err, ErrDuplicateKey) {
		// Another request created it first.
		return s.subRepo.FindByUserID(ctx, userID)
	}
	return sub, err
}

func (s *billingService) ensureLocked(ctx context.Context, subs repository.SubscriptionRepository, userID uuid.UUID) (*model.Subscription, error) {
	now := s.clock.Now()
	sub, err := subs.FindByUserIDForUpdate(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		sub = s.machine.NewSubscription(userID, now)
		sub.CreatedAt = now
		sub.UpdatedAt = now
		if err := subs.Create(ctx, sub); err != nil {
			return nil, err
		}
		s.log.Info("trial started", zap.String("user_id", userID.String()), zap.Timep("trial_ends_at", sub.TrialEndsAt))
		return sub, nil
	}
	if err != nil {
		return nil, err
	}

	if s.machine.BackfillTrial(sub, now) {
		sub.UpdatedAt = now
		if err := subs.Save(ctx, sub); err != nil {
			return nil, err
		}
		s.log.Info("trial backfilled", zap.String("user_id", userID.String()))
	}
	return sub, nil
}

// IsActive reads the subscription without creating one.
func (s *billingService) IsActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	sub, err := s.subRepo.FindByUserID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return billing.IsActive(sub, s.clock.Now()), nil
}

func (s *billingService) Overview(ctx context.Context, actor Actor) (*BillingOverview, error) {
	sub, err := s.EnsureSubscription(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.FindByUserID(ctx, actor.UserID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	payments, err := s.paymentRepo.ListByUser(ctx, actor.UserID, billingPaymentsShown)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	return &BillingOverview{
		Plan:          s.plan(),
		Subscription:  sub,
		Active:        billing.IsActive(sub, now),
		TrialDaysLeft: billing.DaysLeft(sub.TrialEndsAt, now),
		PaidUntil:     sub.PaidUntil,
		Profile:       profile,
		Payments:      payments,
	}, nil
}

// SubmitPayment records a claimed payment of the plan price and reopens
// review of the subscription.
func (s *billingService) SubmitPayment(ctx context.Context, actor Actor, req *PaymentRequest) (*model.Payment, error) {
	req.Method = strings.TrimSpace(req.Method)
	req.Reference = strings.TrimSpace(req.Reference)
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.Reference == "" && req.SlipPath == "" {
		return nil, ErrMissingProof
	}
	if req.Method == "" {
		req.Method = model.PaymentMethodPromptPay
	}

	now := s.clock.Now()
	payment := &model.Payment{
		TenantID:  actor.TenantID,
		UserID:    actor.UserID,
		Amount:    s.machine.Plan.Price,
		Method:    req.Method,
		Status:    model.PaymentPending,
		CreatedAt: now,
	}
	if req.Reference != "" {
		ref := req.Reference
		payment.Reference = &ref
	}
	if req.SlipPath != "" {
		slip := req.SlipPath
		payment.SlipPath = &slip
	}

	// Created outside the payment transaction so a concurrent first request
	// resolves the insert race in EnsureSubscription.
	if _, err := s.EnsureSubscription(ctx, actor.UserID); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subs := s.subRepo.WithTx(tx)
		sub, err := subs.FindByUserIDForUpdate(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if err := s.paymentRepo.WithTx(tx).Create(ctx, payment); err != nil {
			return err
		}
		if err := s.machine.PaymentSubmitted(sub, now); err != nil {
			return err
		}
		return subs.Save(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment submitted",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.Bool("has_slip", payment.HasSlip()),
	)
	s.notifier.Publish(actor.TenantID, ws.Event{
		Type:    ws.EventPaymentUpdate,
		Action:  "payment_submitted",
		Data:    payment,
		Message: fmt.Sprintf("%s submitted a payment of %s", actor.Username, payment.Amount.StringFixed(2)),
	})
	return payment, nil
}

func (s *billingService) ApprovePayment(ctx context.Context, admin Actor, paymentID uuid.UUID) (*model.Payment, error) {
	return s.review(ctx, admin, paymentID, "payment_approved", func(sub *model.Subscription, payment *model.Payment, now time.Time) error {
		return s.machine.PaymentApproved(sub, payment, admin.UserID, now)
	})
}

func (s *billingService) RejectPayment(ctx context.Context, admin Actor, paymentID uuid.UUID) (*model.Payment, error) {
	return s.review(ctx, admin, paymentID, "payment_rejected", func(sub *model.Subscription, payment *model.Payment, now time.Time) error {
		return s.machine.PaymentRejected(sub, payment, now)
	})
}

// review locks the payment and its owner's subscription, applies the
// transition and writes both back.
func (s *billingService) review(
	ctx context.Context,
	admin Actor,
	paymentID uuid.UUID,
	action string,
	transition func(*model.Subscription, *model.Payment, time.Time) error,
) (*model.Payment, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}

	var payment *model.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payments := s.paymentRepo.WithTx(tx)
		subs := s.subRepo.WithTx(tx)

		var err error
		payment, err = payments.FindByIDForUpdate(ctx, admin.TenantID, paymentID)
		if err != nil {
			return err
		}
		sub, err := subs.FindByUserIDForUpdate(ctx, payment.UserID)
		if err != nil {
			return fmt.Errorf("subscription of payment %s: %w", payment.ID, err)
		}

		if err := transition(sub, payment, s.clock.Now()); err != nil {
			return err
		}
		if err := payments.UpdateReview(ctx, payment); err != nil {
			return err
		}
		return subs.Save(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(strings.ReplaceAll(action, "_", " "),
		zap.String("tenant_id", admin.TenantID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("reviewer_id", admin.UserID.String()),
	)
	s.notifier.Publish(admin.TenantID, ws.Event{
		Type:    ws.EventPaymentUpdate,
		Action:  action,
		Data:    payment,
		Message: fmt.Sprintf("%s marked payment %s as %s", admin.Username, payment.ID, payment.Status),
	})
	return payment, nil
}

func (s *billingService) ListTenantPayments(ctx context.Context, admin Actor) ([]model.Payment, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.paymentRepo.ListByTenant(ctx, admin.TenantID, adminPaymentsShown)
}

// SlipPath returns the stored slip of a payment in the admin's tenant.
func (s *billingService) SlipPath(ctx context.Context, admin Actor, paymentID uuid.UUID) (string, error) {
	if !admin.IsAdmin() {
		return "", ErrForbidden
	}
	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return "", err
	}
	if payment.TenantID != admin.TenantID || !payment.HasSlip() {
		return "", ErrNotFound
	}
	return *payment.SlipPath, nil
}

func (s *billingService) SaveInvoiceProfile(ctx context.Context, actor Actor, req *InvoiceProfileRequest) (*model.InvoiceProfile, error) {
	req.BusinessName = strings.TrimSpace(req.BusinessName)
	req.TaxID = strings.TrimSpace(req.TaxID)
	req.Branch = strings.TrimSpace(req.Branch)
	req.Address = strings.TrimSpace(req.Address)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := validate(req); err != nil {
		return nil, err
	}

	profile := &model.InvoiceProfile{
		UserID:       actor.UserID,
		BusinessName: req.BusinessName,
		TaxID:        optional(req.TaxID),
		Branch:       optional(req.Branch),
		Address:      req.Address,
		Email:        optional(req.Email),
		Phone:        optional(req.Phone),
		UpdatedAt:    s.clock.Now(),
	}
	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, err
	}
	return s.profileRepo.FindByUserID(ctx, actor.UserID)
}

// Invoice builds the tax invoice of an approved payment. The payer and
// admins of the payer's tenant may see it.
func (s *billingService) Invoice(ctx context.Context, actor Actor, paymentID uuid.UUID) (*Invoice, error) {
	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != model.PaymentApproved {
		return nil, fmt.Errorf("%w: no approved payment %s", ErrNotFound, paymentID)
	}
	if payment.TenantID != actor.TenantID {
		return nil, ErrNotFound
	}
	if payment.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	profile, err := s.profileRepo.FindByUserID(ctx, payment.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrProfileRequired
	}
	if err != nil {
		return nil, err
	}

	issued := payment.CreatedAt
	if payment.ApprovedAt != nil {
		issued = *payment.ApprovedAt
	}
	subtotal, vat := splitVAT(payment.Amount, s.vatRate)

	return &Invoice{
		Number:   invoiceNumber(payment, issued),
		IssuedAt: issued,
		Seller:   s.seller,
		Buyer:    *profile,
		Payment:  *payment,
		Plan:     s.plan(),
		Subtotal: subtotal,
		VATRate:  s.vatRate,
		VAT:      vat,
		Total:    payment.Amount,
	}, nil
}

// splitVAT breaks a VAT-inclusive total into net and tax, rounded to
// satang, so that net + tax == total.
func splitVAT(total, rate decimal.Decimal) (net, vat decimal.Decimal) {
	if !rate.IsPositive() {
		return total, decimal.Zero
	}
	net = total.Div(decimal.NewFromInt(1).Add(rate)).Round(2)
	return net, total.Sub(net)
}

// invoiceNumber is INV-<yyyymm>-<first 8 hex of the payment id>.
func invoiceNumber(payment *model.Payment, issued time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(payment.ID.String(), "-", ""))
	return fmt.Sprintf("INV-%s-%s", issued.Format("200601"), id[:8])
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
