// Package seed loads categories, nominees and site content from YAML.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/emilythestrangee/anime-awards/backend/internal/awards"
	"github.com/emilythestrangee/anime-awards/backend/internal/models"
	"github.com/emilythestrangee/anime-awards/backend/internal/slug"
)

type File struct {
	Categories []Category `yaml:"categories"`
	Rules      string     `yaml:"rules"`
}

type Category struct {
	Name         string    `yaml:"name"`
	Slug         string    `yaml:"slug"`
	DisplayOrder int       `yaml:"display_order"`
	Description  string    `yaml:"description"`
	Icon         string    `yaml:"icon"`
	Color        string    `yaml:"color"`
	Gradient     string    `yaml:"gradient"`
	Nominees     []Nominee `yaml:"nominees"`
}

type Nominee struct {
	Title     string `yaml:"title"`
	AnimeName string `yaml:"anime_name"`
	ImageURL  string `yaml:"image_url"`
}

// Target is where a seed file is written.
type Target interface {
	CategoryBySlug(ctx context.Context, slug string) (models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, category *models.Category) error
	Nominees(ctx context.Context, categoryID uuid.UUID) ([]models.Nominee, error)
	CreateNominee(ctx context.Context, nominee *models.Nominee) error
	PutSetting(ctx context.Context, key, value string) error
}

type Report struct {
	CategoriesCreated int
	CategoriesUpdated int
	NomineesCreated   int
	RulesWritten      bool
}

func Load(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and normalises a seed document. Unknown keys are rejected.
func Parse(r io.Reader) (File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("decode seed: %w", err)
	}

	seen := make(map[string]bool, len(file.Categories))
	for i := range file.Categories {
		c := &file.Categories[i]
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return File{}, fmt.Errorf("%w: category %d has no name", awards.ErrInvalidInput, i+1)
		}
		if c.Slug == "" {
			c.Slug = slug.Make(c.Name)
		}
		if !slug.Valid(c.Slug) {
			return File{}, fmt.Errorf("%w: category %q has invalid slug %q", awards.ErrInvalidInput, c.Name, c.Slug)
		}
		if seen[c.Slug] {
			return File{}, fmt.Errorf("%w: duplicate category slug %q", awards.ErrInvalidInput, c.Slug)
		}
		seen[c.Slug] = true
		if c.DisplayOrder == 0 {
			c.DisplayOrder = i + 1
		}
		for j, n := range c.Nominees {
			if strings.TrimSpace(n.Title) == "" {
				return File{}, fmt.Errorf("%w: nominee %d in %q has no title", awards.ErrInvalidInput, j+1, c.Name)
			}
		}
	}
	return file, nil
}

// Apply writes the file to target. Categories are matched by slug and
// nominees by title, so applying the same file twice changes nothing.
func Apply(ctx context.Context, target Target, file File, logger *zap.Logger) (Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var report Report
	for _, sc := range file.Categories {
		cat, err := target.CategoryBySlug(ctx, sc.Slug)
		switch {
		case errors.Is(err, awards.ErrNotFound):
			cat = models.Category{Slug: sc.Slug}
			applyCategory(&cat, sc)
			if err := target.CreateCategory(ctx, &cat); err != nil {
				return report, fmt.Errorf("create category %q: %w", sc.Slug, err)
			}
			report.CategoriesCreated++
		case err != nil:
			return report, fmt.Errorf("lookup category %q: %w", sc.Slug, err)
		default:
			applyCategory(&cat, sc)
			if err := target.UpdateCategory(ctx, &cat); err != nil {
				return report, fmt.Errorf("update category %q: %w", sc.Slug, err)
			}
			report.CategoriesUpdated++
		}

		existing, err := target.Nominees(ctx, cat.ID)
		if err != nil {
			return report, fmt.Errorf("list nominees of %q: %w", sc.Slug, err)
		}
		titles := make(map[string]bool, len(existing))
		for _, n := range existing {
			titles[n.Title] = true
		}
		for _, sn := range sc.Nominees {
			title := strings.TrimSpace(sn.Title)
			if titles[title] {
				continue
			}
			nominee := models.Nominee{
				CategoryID: cat.ID,
				Title:      title,
				AnimeName:  optional(sn.AnimeName),
				ImageURL:   optional(sn.ImageURL),
			}
			if err := target.CreateNominee(ctx, &nominee); err != nil {
				return report, fmt.Errorf("create nominee %q in %q: %w", title, sc.Slug, err)
			}
			titles[title] = true
			report.NomineesCreated++
		}
		logger.Debug("seeded category", zap.String("slug", sc.Slug), zap.Int("nominees", len(sc.Nominees)))
	}

	if rules := strings.TrimSpace(file.Rules); rules != "" {
		if err := target.PutSetting(ctx, models.SettingRules, rules); err != nil {
			return report, fmt.Errorf("write rules: %w", err)
		}
		report.RulesWritten = true
	}

	logger.Info("seed applied",
		zap.Int("categories_created", report.CategoriesCreated),
		zap.Int("categories_updated", report.CategoriesUpdated),
		zap.Int("nominees_created", report.NomineesCreated),
	)
	return report, nil
}

func applyCategory(cat *models.Category, sc Category) {
	cat.Name = sc.Name
	cat.DisplayOrder = sc.DisplayOrder
	cat.Description = sc.Description
	cat.Icon = sc.Icon
	cat.Color = sc.Color
	cat.Gradient = sc.Gradient
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
