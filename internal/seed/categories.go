// Package seed loads categories and demo content into a store. Categories are
// read-only through the API, so this is the only way they are created.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/repository"

	"gopkg.in/yaml.v3"
)

// CategorySeed is one entry of a categories file. Slug defaults to Slugify(Name).
type CategorySeed struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug,omitempty"`
}

type categoriesFile struct {
	Categories []CategorySeed `yaml:"categories"`
}

// DefaultCategories is used when no categories file is given.
var DefaultCategories = []CategorySeed{
	{Name: "Entertainment"},
	{Name: "Sport"},
	{Name: "Personal Development"},
	{Name: "Business"},
	{Name: "Travel"},
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases name and collapses every run of non-alphanumerics to "-".
func Slugify(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// LoadCategories decodes a YAML document of the form
//
//	categories:
//	  - name: Travel
//	  - name: Personal Development
//	    slug: growth
func LoadCategories(r io.Reader) ([]CategorySeed, error) {
	var file categoriesFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}

	seen := make(map[string]bool, len(file.Categories))
	out := make([]CategorySeed, 0, len(file.Categories))
	for i, c := range file.Categories {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return nil, fmt.Errorf("category %d: name is required", i+1)
		}
		if c.Slug == "" {
			c.Slug = Slugify(c.Name)
		}
		if seen[c.Slug] {
			return nil, fmt.Errorf("category %q: duplicate slug %q", c.Name, c.Slug)
		}
		seen[c.Slug] = true
		out = append(out, c)
	}
	return out, nil
}

// LoadCategoriesFile reads categories from path.
func LoadCategoriesFile(path string) ([]CategorySeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return LoadCategories(f)
}

// Categories stores every seed that is not present yet. Running it twice
// leaves the store unchanged.
func Categories(ctx context.Context, repo repository.CategoryRepository, seeds []CategorySeed) ([]*models.Category, error) {
	out := make([]*models.Category, 0, len(seeds))
	for _, s := range seeds {
		slug := s.Slug
		if slug == "" {
			slug = Slugify(s.Name)
		}
		stored, err := repo.Ensure(ctx, &models.Category{Name: s.Name, Slug: slug})
		if err != nil {
			return nil, fmt.Errorf("seed category %q: %w", s.Name, err)
		}
		out = append(out, stored)
	}
	return out, nil
}
