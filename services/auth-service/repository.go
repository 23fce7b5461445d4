package main

import (
	"context"
	"errors"
	"strings"

	"civisense/services/auth-service/models"

	"gorm.io/gorm"
)

var (
	ErrOfficerNotFound = errors.New("officer not found")
	ErrEmailTaken      = errors.New("email already registered")
)

type OfficerRepository interface {
	FindByEmail(ctx context.Context, email string) (models.Officer, error)
	FindByID(ctx context.Context, id string) (models.Officer, error)
	Create(ctx context.Context, o *models.Officer) error
	CountByRole(ctx context.Context) (map[string]int64, error)
	Ping(ctx context.Context) error
}

type gormOfficers struct {
	db *gorm.DB
}

func newGormOfficers(db *gorm.DB) *gormOfficers {
	return &gormOfficers{db: db}
}

func (g *gormOfficers) FindByEmail(ctx context.Context, email string) (models.Officer, error) {
	var o models.Officer
	err := g.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&o).Error
	return o, notFound(err)
}

func (g *gormOfficers) FindByID(ctx context.Context, id string) (models.Officer, error) {
	var o models.Officer
	err := g.db.WithContext(ctx).First(&o, "id = ?", id).Error
	return o, notFound(err)
}

func (g *gormOfficers) Create(ctx context.Context, o *models.Officer) error {
	o.Email = normalizeEmail(o.Email)
	err := g.db.WithContext(ctx).Create(o).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrEmailTaken
	}
	return err
}

func (g *gormOfficers) CountByRole(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Role  string
		Count int64
	}
	err := g.db.WithContext(ctx).Model(&models.Officer{}).
		Select("role, count(*) as count").Group("role").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Role] = r.Count
	}
	return counts, nil
}

func (g *gormOfficers) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrOfficerNotFound
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
