package service

import (
	"context"
	"fmt"
	"time"

	"skillarena/models"
)

type revenueStatsService struct {
	uowFactory UnitOfWorkFactory
}

// NewRevenueStatsService creates a new revenue stats service
func NewRevenueStatsService(uowFactory UnitOfWorkFactory) RevenueStatsService {
	return &revenueStatsService{
		uowFactory: uowFactory,
	}
}

// GetRevenueStats aggregates revenue by source over a time range
func (s *revenueStatsService) GetRevenueStats(ctx context.Context, from, to time.Time) (*models.RevenueStats, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	stats, err := uow.RevenueRepository().GetStats(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get revenue stats: %w", err)
	}

	return stats, nil
}

// GetRevenueHistory returns a page of ledger entries matching the filter
func (s *revenueStatsService) GetRevenueHistory(ctx context.Context, filter models.RevenueFilter, limit, offset int) ([]*models.RevenueRecord, int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	records, total, err := uow.RevenueRepository().List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get revenue history: %w", err)
	}

	return records, total, nil
}

// GetDailyRevenue buckets revenue by day
func (s *revenueStatsService) GetDailyRevenue(ctx context.Context, from, to time.Time) ([]*models.DailyRevenuePoint, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	points, err := uow.RevenueRepository().GetDailyRevenue(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily revenue: %w", err)
	}

	return points, nil
}

// GetTopPlayers ranks real users by attributed lobby revenue
func (s *revenueStatsService) GetTopPlayers(ctx context.Context, from, to time.Time, limit int) ([]*models.TopPlayerEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.RevenueRepository().GetTopPlayers(ctx, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top players: %w", err)
	}

	return entries, nil
}
