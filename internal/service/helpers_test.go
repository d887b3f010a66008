package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"cafe-stock/internal/config"
	"cafe-stock/internal/model"
	"cafe-stock/internal/repository"
	"cafe-stock/internal/testutil"
	"cafe-stock/internal/ws"
	"cafe-stock/pkg/jwt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []ws.Event
}

func (n *recordingNotifier) Publish(_ uuid.UUID, event ws.Event) {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.mu.Unlock()
}

func (n *recordingNotifier) actions() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Action)
	}
	return out
}

type testEnv struct {
	db        *gorm.DB
	clock     *testutil.Clock
	notifier  *recordingNotifier
	users     repository.UserRepository
	inventory InventoryService
	dashboard DashboardService
	billing   BillingService
	auth      AuthService
	accounts  UserService
}

var testStart = time.Date(2026, time.February, 6, 12, 0, 0, 0, time.UTC)

func testPlan() config.PlanConfig {
	return config.PlanConfig{
		Name:       "Cafe",
		Price:      decimal.NewFromInt(399),
		PeriodDays: 30,
		TrialDays:  14,
		VATRate:    decimal.RequireFromString("0.07"),
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.OpenSQLite(t)
	clock := testutil.NewClock(testStart)
	notifier := &recordingNotifier{}
	log := zap.NewNop()

	users := repository.NewUserRepo(db)
	products := repository.NewProductRepo(db)
	movements := repository.NewMovementRepo(db)

	inventory := NewInventoryService(db, products, movements, notifier, clock, log)
	billing := NewBillingService(
		db,
		repository.NewSubscriptionRepo(db),
		repository.NewPaymentRepo(db),
		repository.NewInvoiceProfileRepo(db),
		testPlan(),
		config.SellerConfig{BusinessName: "Cafe Stock Co., Ltd.", TaxID: "0105560000000"},
		notifier,
		clock,
		log,
	)

	return &testEnv{
		db:        db,
		clock:     clock,
		notifier:  notifier,
		users:     users,
		inventory: inventory,
		dashboard: NewDashboardService(inventory, products, movements, clock),
		billing:   billing,
		auth:      NewAuthService(db, users, billing, jwt.NewManager("test-secret", 24), clock, log),
		accounts:  NewUserService(users, log),
	}
}

// newTenant stores an admin who owns a fresh tenant.
func (e *testEnv) newTenant(t *testing.T, username string) Actor {
	t.Helper()
	user := &model.User{Username: username, Password: "unused", Role: model.RoleAdmin}
	if err := e.users.Create(context.Background(), user); err != nil {
		t.Fatalf("create %s: %v", username, err)
	}
	return Actor{UserID: user.ID, TenantID: user.TenantID, Username: user.Username, Role: user.Role}
}

// newMember stores a user inside an existing tenant.
func (e *testEnv) newMember(t *testing.T, tenant Actor, username, role string) Actor {
	t.Helper()
	user := &model.User{Username: username, Password: "unused", Role: role, TenantID: tenant.TenantID}
	if err := e.users.Create(context.Background(), user); err != nil {
		t.Fatalf("create %s: %v", username, err)
	}
	return Actor{UserID: user.ID, TenantID: user.TenantID, Username: user.Username, Role: user.Role}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
