package service

import (
	"context"
	"time"

	"cafe-stock/internal/ledger"
	"cafe-stock/internal/model"
	"cafe-stock/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	dashboardPreview = 6
	maxChartDays     = 90
)

type DashboardService interface {
	GetDashboardStats(ctx context.Context, tenantID uuid.UUID) (*DashboardStats, error)
	GetStockMovement(ctx context.Context, tenantID uuid.UUID, days int) ([]StockMovementData, error)
}

// DashboardStats is the overview card set.
type DashboardStats struct {
	TotalProducts     int64                    `json:"total_products"`
	LowStockCount     int                      `json:"low_stock_count"`
	MovementsThisWeek int64                    `json:"movements_this_week"`
	RecentMovements   []model.StockMovement    `json:"recent_movements"`
	LowStock          []model.ProductWithStock `json:"low_stock"`
}

// StockMovementData is one day of the movement chart. Adjust is the net
// signed correction for the day.
type StockMovementData struct {
	Date     string          `json:"date"`
	Inbound  decimal.Decimal `json:"inbound"`
	Outbound decimal.Decimal `json:"outbound"`
	Adjust   decimal.Decimal `json:"adjust"`
}

type dashboardService struct {
	inventory    InventoryService
	productRepo  repository.ProductRepository
	movementRepo repository.MovementRepository
	clock        Clock
}

func NewDashboardService(inventory InventoryService, pRepo repository.ProductRepository, mRepo repository.MovementRepository, clock Clock) DashboardService {
	return &dashboardService{
		inventory:    inventory,
		productRepo:  pRepo,
		movementRepo: mRepo,
		clock:        clock,
	}
}

func (s *dashboardService) GetDashboardStats(ctx context.Context, tenantID uuid.UUID) (*DashboardStats, error) {
	var stats DashboardStats
	var err error

	if stats.TotalProducts, err = s.productRepo.Count(ctx, tenantID); err != nil {
		return nil, err
	}

	low, err := s.inventory.LowStock(ctx, tenantID, 0)
	if err != nil {
		return nil, err
	}
	stats.LowStockCount = len(low)
	if len(low) > dashboardPreview {
		low = low[:dashboardPreview]
	}
	stats.LowStock = low

	weekAgo := s.clock.Now().AddDate(0, 0, -7)
	if stats.MovementsThisWeek, err = s.movementRepo.CountSince(ctx, tenantID, weekAgo); err != nil {
		return nil, err
	}

	if stats.RecentMovements, err = s.movementRepo.Recent(ctx, tenantID, dashboardPreview); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetStockMovement returns one row per calendar day for the last days days,
// today included, with zero rows for quiet days.
func (s *dashboardService) GetStockMovement(ctx context.Context, tenantID uuid.UUID, days int) ([]StockMovementData, error) {
	if days <= 0 {
		days = 7
	}
	if days > maxChartDays {
		days = maxChartDays
	}

	now := s.clock.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := today.AddDate(0, 0, -(days - 1))

	movements, err := s.movementRepo.ListSince(ctx, tenantID, start)
	if err != nil {
		return nil, err
	}

	results := make([]StockMovementData, days)
	index := make(map[string]int, days)
	for i := range results {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		results[i] = StockMovementData{Date: date}
		index[date] = i
	}

	for _, m := range movements {
		i, ok := index[m.CreatedAt.In(now.Location()).Format("2006-01-02")]
		if !ok {
			continue
		}
		row := &results[i]
		switch m.Kind {
		case model.MovementIn:
			row.Inbound = row.Inbound.Add(m.Quantity)
		case model.MovementOut:
			row.Outbound = row.Outbound.Add(m.Quantity)
		case model.MovementAdjust:
			row.Adjust = row.Adjust.Add(ledger.Contribution(m.Kind, m.Quantity))
		}
	}
	return results, nil
}
