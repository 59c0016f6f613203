package seed

import (
	"context"
	"fmt"
	"log/slog"

	"srefhub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options configures the seeder.
type Options struct {
	NumUsers    int
	NumStyles   int
	ShouldClean bool
	SkipBcrypt  bool
	BatchSize   int
	MaxDays     int
	// RandSeed makes runs reproducible when non-zero.
	RandSeed int64
}

// Summary reports what a run created.
type Summary struct {
	Users       int
	Styles      int
	Likes       int
	Comments    int
	Follows     int
	Collections int
}

// Seeder writes a demo catalogue through a Factory.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
	log     *slog.Logger
}

// NewSeeder returns a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	return &Seeder{
		db:      db,
		opts:    opts,
		factory: NewFactory(opts.RandSeed, opts.MaxDays, opts.SkipBcrypt),
		log:     slog.Default(),
	}
}

// Seed populates the database with users, styles and engagement.
func (s *Seeder) Seed(ctx context.Context) (*Summary, error) {
	s.log.Info("starting database seeding", slog.Int("users", s.opts.NumUsers), slog.Int("styles", s.opts.NumStyles))
	db := s.db.WithContext(ctx)

	if s.opts.ShouldClean {
		if err := ClearData(db); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	summary := &Summary{}
	users, err := s.createUsers(db)
	if err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}
	summary.Users = len(users)
	if len(users) == 0 {
		return summary, nil
	}

	styles, err := s.createStyles(db, users)
	if err != nil {
		return nil, fmt.Errorf("create styles: %w", err)
	}
	summary.Styles = len(styles)

	if summary.Follows, err = s.createFollows(db, users); err != nil {
		return nil, fmt.Errorf("create follows: %w", err)
	}
	if summary.Likes, err = s.createLikes(db, users, styles); err != nil {
		return nil, fmt.Errorf("create likes: %w", err)
	}
	if summary.Comments, err = s.createComments(db, users, styles); err != nil {
		return nil, fmt.Errorf("create comments: %w", err)
	}
	if summary.Collections, err = s.createCollections(db, users, styles); err != nil {
		return nil, fmt.Errorf("create collections: %w", err)
	}
	if err := RecountCounters(db); err != nil {
		return nil, fmt.Errorf("recount counters: %w", err)
	}

	s.log.Info("database seeding completed",
		slog.Int("users", summary.Users),
		slog.Int("styles", summary.Styles),
		slog.Int("likes", summary.Likes),
		slog.Int("comments", summary.Comments),
		slog.Int("follows", summary.Follows),
		slog.Int("collections", summary.Collections),
	)
	return summary, nil
}

// ClearData deletes every row, children first.
func ClearData(db *gorm.DB) error {
	slog.Default().Info("clearing existing data")
	tables := []interface{}{
		&models.CollectionStyle{}, &models.Collection{}, &models.Comment{}, &models.Like{},
		&models.Follow{}, &models.Image{}, &models.Style{}, &models.User{},
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, model := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// RecountCounters rebuilds the denormalised like and follow counters.
func RecountCounters(db *gorm.DB) error {
	stmts := []string{
		`UPDATE styles SET likes_count = (SELECT COUNT(*) FROM likes WHERE likes.style_id = styles.id)`,
		`UPDATE users SET followers_count = (SELECT COUNT(*) FROM follows WHERE follows.following_id = users.id)`,
		`UPDATE users SET following_count = (SELECT COUNT(*) FROM follows WHERE follows.follower_id = users.id)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) createUsers(db *gorm.DB) ([]*models.User, error) {
	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		user, err := s.factory.BuildUser(i)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			user.Name = "Demo Curator"
			user.Email = "demo@example.com"
			user.Tier = models.TierPremium
		}
		users = append(users, user)
	}
	if len(users) == 0 {
		return users, nil
	}
	if err := db.CreateInBatches(users, s.opts.BatchSize).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Seeder) createStyles(db *gorm.DB, users []*models.User) ([]*models.Style, error) {
	styles := make([]*models.Style, 0, s.opts.NumStyles)
	for i := 0; i < s.opts.NumStyles; i++ {
		style, err := s.factory.BuildStyle(users[s.factory.rng.Intn(len(users))])
		if err != nil {
			return nil, err
		}
		styles = append(styles, style)
	}
	if len(styles) == 0 {
		return styles, nil
	}
	if err := db.Omit(clause.Associations).CreateInBatches(styles, s.opts.BatchSize).Error; err != nil {
		return nil, err
	}
	return styles, nil
}

// createFollows gives each user a handful of distinct followees.
func (s *Seeder) createFollows(db *gorm.DB, users []*models.User) (int, error) {
	var follows []models.Follow
	for _, follower := range users {
		n := s.factory.rng.Intn(min(len(users), 6))
		for _, i := range s.factory.rng.Perm(len(users))[:n] {
			if users[i].ID == follower.ID {
				continue
			}
			follows = append(follows, models.Follow{FollowerID: follower.ID, FollowingID: users[i].ID})
		}
	}
	return insertIgnoringDuplicates(db, follows, s.opts.BatchSize)
}

func (s *Seeder) createLikes(db *gorm.DB, users []*models.User, styles []*models.Style) (int, error) {
	var likes []models.Like
	for _, style := range styles {
		n := s.factory.rng.Intn(len(users) + 1)
		for _, i := range s.factory.rng.Perm(len(users))[:n] {
			likes = append(likes, models.Like{UserID: users[i].ID, StyleID: style.ID})
		}
	}
	return insertIgnoringDuplicates(db, likes, s.opts.BatchSize)
}

func (s *Seeder) createComments(db *gorm.DB, users []*models.User, styles []*models.Style) (int, error) {
	var comments []*models.Comment
	for _, style := range styles {
		for i := s.factory.rng.Intn(4); i > 0; i-- {
			author := users[s.factory.rng.Intn(len(users))]
			comments = append(comments, s.factory.BuildComment(author.ID, style.ID))
		}
	}
	if len(comments) == 0 {
		return 0, nil
	}
	if err := db.Omit(clause.Associations).CreateInBatches(comments, s.opts.BatchSize).Error; err != nil {
		return 0, err
	}
	return len(comments), nil
}

func (s *Seeder) createCollections(db *gorm.DB, users []*models.User, styles []*models.Style) (int, error) {
	created := 0
	for _, user := range users {
		if s.factory.rng.Intn(2) == 0 || len(styles) == 0 {
			continue
		}
		collection := s.factory.BuildCollection(user.ID)
		if err := db.Omit(clause.Associations).Create(collection).Error; err != nil {
			return created, err
		}
		created++

		n := 1 + s.factory.rng.Intn(min(len(styles), 8))
		members := make([]models.CollectionStyle, 0, n)
		for _, i := range s.factory.rng.Perm(len(styles))[:n] {
			members = append(members, models.CollectionStyle{CollectionID: collection.ID, StyleID: styles[i].ID})
		}
		if _, err := insertIgnoringDuplicates(db, members, s.opts.BatchSize); err != nil {
			return created, err
		}
	}
	return created, nil
}

func insertIgnoringDuplicates[T any](db *gorm.DB, rows []T, batchSize int) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).CreateInBatches(rows, batchSize)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}
