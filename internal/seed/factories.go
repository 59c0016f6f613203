// Package seed provides helpers to create demo data for the style catalogue.
// These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"srefhub/internal/auth"
	"srefhub/internal/models"
	"srefhub/internal/slug"

	"github.com/brianvoe/gofakeit/v6"
)

var (
	styleMoods = []string{
		"Ethereal", "Neon", "Moody", "Dreamy", "Gritty", "Pastel", "Vintage", "Cinematic",
		"Surreal", "Minimal", "Baroque", "Glitchy", "Misty", "Sunlit", "Noir", "Iridescent",
	}

	styleSubjects = []string{
		"Portraits", "Landscapes", "Cityscapes", "Watercolor", "Ink Wash", "Film Grain",
		"Botanicals", "Architecture", "Fashion", "Still Life", "Sci-Fi", "Folklore",
	}

	styleTags = []string{
		"cyberpunk", "anime", "watercolor", "photoreal", "vaporwave", "illustration",
		"cinematic", "fantasy", "retro", "minimal", "dark", "pastel", "3d", "sketch",
		"surreal", "portrait", "landscape", "architecture", "fashion", "film",
	}

	aspectRatios = []string{"1:1", "16:9", "9:16", "3:2", "2:3", "4:5", "21:9"}
	versions     = []string{"5.2", "6", "6.1", "7"}
)

// Factory builds domain entities for seeding. It never touches the database.
type Factory struct {
	rng        *rand.Rand
	maxDays    int
	skipBcrypt bool
	password   string
}

// NewFactory returns a Factory. A zero seed uses the current time.
func NewFactory(seed int64, maxDays int, skipBcrypt bool) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if maxDays <= 0 {
		maxDays = 90
	}
	gofakeit.Seed(seed)
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Factory{rng: rand.New(rand.NewSource(seed)), maxDays: maxDays, skipBcrypt: skipBcrypt}
}

// Password is the plaintext every seeded account logs in with.
const Password = "password123"

func (f *Factory) passwordHash() (string, error) {
	if f.skipBcrypt {
		return Password, nil
	}
	if f.password == "" {
		hash, err := auth.HashPassword(Password)
		if err != nil {
			return "", err
		}
		f.password = hash
	}
	return f.password, nil
}

// BuildUser returns an unsaved user with a unique email.
func (f *Factory) BuildUser(index int) (*models.User, error) {
	hash, err := f.passwordHash()
	if err != nil {
		return nil, err
	}
	first := gofakeit.FirstName()
	last := gofakeit.LastName()
	return &models.User{
		Name:     first + " " + last,
		Email:    strings.ToLower(fmt.Sprintf("%s.%s.%d@example.com", first, last, index)),
		Password: hash,
		Bio:      truncate(gofakeit.Sentence(12), 500),
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		Tier:     models.TierFree,
	}, nil
}

// BuildStyle returns an unsaved style owned by owner with plausible params.
func (f *Factory) BuildStyle(owner *models.User) (*models.Style, error) {
	title := f.pick(styleMoods) + " " + f.pick(styleSubjects)
	s, err := slug.New(title)
	if err != nil {
		return nil, err
	}

	sref := fmt.Sprintf("%d", f.rng.Int63n(9_000_000_000)+1_000_000_000)
	ar := f.pick(aspectRatios)
	stylize := f.rng.Intn(models.MaxStylize + 1)
	version := models.VersionString(f.pick(versions))
	prompt := fmt.Sprintf("%s %s --sref %s --ar %s --stylize %d --v %s",
		strings.ToLower(gofakeit.Adjective()), strings.ToLower(gofakeit.Noun()), sref, ar, stylize, version)

	images := make([]string, 1+f.rng.Intn(4))
	for i := range images {
		images[i] = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID())
	}

	created := f.pastTime()
	return &models.Style{
		Slug:           s,
		Title:          title,
		Sref:           sref,
		Images:         images,
		MainImageIndex: f.rng.Intn(len(images)),
		Params: models.MidjourneyParams{
			Sref:    &sref,
			AR:      &ar,
			Stylize: &stylize,
			Version: &version,
			Raw:     prompt,
		},
		Prompt:      prompt,
		Description: truncate(gofakeit.Paragraph(1, 2, 12, " "), 1000),
		Tags:        f.pickTags(1 + f.rng.Intn(4)),
		Views:       int64(f.rng.Intn(5000)),
		UserID:      owner.ID,
		CreatedAt:   created,
		UpdatedAt:   created,
	}, nil
}

// BuildComment returns an unsaved comment.
func (f *Factory) BuildComment(userID, styleID uint) *models.Comment {
	return &models.Comment{
		Text:      truncate(gofakeit.Sentence(8+f.rng.Intn(10)), 500),
		UserID:    userID,
		StyleID:   styleID,
		CreatedAt: f.pastTime(),
	}
}

// BuildCollection returns an unsaved collection.
func (f *Factory) BuildCollection(userID uint) *models.Collection {
	return &models.Collection{
		Name:        truncate(gofakeit.HipsterWord()+" "+f.pick(styleSubjects), 100),
		Description: truncate(gofakeit.Sentence(10), 1000),
		UserID:      userID,
	}
}

func (f *Factory) pick(options []string) string {
	return options[f.rng.Intn(len(options))]
}

func (f *Factory) pickTags(n int) []string {
	perm := f.rng.Perm(len(styleTags))
	tags := make([]string, 0, n)
	for _, i := range perm[:n] {
		tags = append(tags, styleTags[i])
	}
	return tags
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.rng.Intn(f.maxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
