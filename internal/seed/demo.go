package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
)

// DemoOptions sizes the demo content.
type DemoOptions struct {
	Users              int
	Articles           int
	CommentsPerArticle int
	// MaxDays spreads article creation times over the past MaxDays days.
	MaxDays int
	// Seed makes the generated content reproducible. Zero uses the clock.
	Seed int64
}

// DemoResult reports what Demo created.
type DemoResult struct {
	Users    []*models.User
	Articles []*models.Article
	Comments int
}

// Demo creates fake users, articles and comments. Categories must be seeded first.
func Demo(ctx context.Context, store repository.Store, opts DemoOptions) (*DemoResult, error) {
	if opts.Users <= 0 {
		return nil, errors.New("demo seeding needs at least one user")
	}
	categories, err := store.Categories().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if len(categories) == 0 && opts.Articles > 0 {
		return nil, errors.New("no categories found, seed categories first")
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(seed)
	maxDays := opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}

	res := &DemoResult{}
	for i := 0; i < opts.Users; i++ {
		user := &models.User{
			Auth0ID: "seed|" + faker.UUID(),
			Email:   faker.Email(),
			Name:    faker.Name(),
			Bio:     faker.Sentence(10),
		}
		if err := store.Users().Create(ctx, user); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		res.Users = append(res.Users, user)
	}

	now := time.Now()
	for i := 0; i < opts.Articles; i++ {
		author := res.Users[faker.Number(0, len(res.Users)-1)]
		category := categories[faker.Number(0, len(categories)-1)]
		back := time.Duration(faker.Number(0, maxDays*24*60)) * time.Minute

		article := &models.Article{
			AuthorID:      author.ID,
			Title:         faker.Sentence(5),
			Content:       "<p>" + faker.Paragraph(1, 3, 12, "</p><p>") + "</p>",
			CategoryID:    category.ID,
			CoverImageURL: fmt.Sprintf("https://picsum.photos/seed/%s/800/450", faker.UUID()),
			CreatedAt:     now.Add(-back),
			UpdatedAt:     now.Add(-back),
		}
		if err := store.Articles().Create(ctx, article); err != nil {
			return nil, fmt.Errorf("create article: %w", err)
		}
		res.Articles = append(res.Articles, article)

		for j := 0; j < opts.CommentsPerArticle; j++ {
			comment := &models.Comment{
				UserID:    res.Users[faker.Number(0, len(res.Users)-1)].ID,
				ArticleID: article.ID,
				Content:   faker.Sentence(8),
			}
			if err := store.Comments().Create(ctx, comment); err != nil {
				return nil, fmt.Errorf("create comment: %w", err)
			}
			res.Comments++
		}
	}

	middleware.Logger.InfoContext(ctx, "demo content seeded",
		slog.Int("users", len(res.Users)),
		slog.Int("articles", len(res.Articles)),
		slog.Int("comments", res.Comments),
	)
	return res, nil
}

// SweepOrphans removes comments whose article no longer exists. An article
// delete that stopped between removing the record and its comments leaves
// such comments behind.
func SweepOrphans(ctx context.Context, comments repository.CommentRepository) (int64, error) {
	removed, err := comments.DeleteOrphans(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep orphaned comments: %w", err)
	}
	middleware.Logger.InfoContext(ctx, "orphaned comments swept", slog.Int64("removed", removed))
	return removed, nil
}
