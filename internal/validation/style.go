package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	TitleMinLength       = 3
	TitleMaxLength       = 100
	DescriptionMaxLength = 1000
	SrefMaxLength        = 255
	MaxImages            = 4
	MaxTags              = 20
	TagMaxLength         = 30
	CommentMaxLength     = 500
	PromptMaxLength      = 2000
	CollectionNameMax    = 100
)

var (
	tagRegex  = regexp.MustCompile(`^[\p{L}\p{M}\p{N} _\-]+$`)
	srefRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 _:\-]*$`)
	spaceRun  = regexp.MustCompile(`\s+`)
)

// ValidateTitle checks the trimmed style title.
func ValidateTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n < TitleMinLength || n > TitleMaxLength {
		return fmt.Errorf("title must be between %d and %d characters", TitleMinLength, TitleMaxLength)
	}
	return nil
}

// ValidateSref checks a style reference code.
func ValidateSref(sref string) error {
	sref = strings.TrimSpace(sref)
	if sref == "" {
		return fmt.Errorf("sref is required")
	}
	if len(sref) > SrefMaxLength {
		return fmt.Errorf("sref must be at most %d characters", SrefMaxLength)
	}
	if !srefRegex.MatchString(sref) {
		return fmt.Errorf("sref may only contain letters, numbers, spaces, ':', '-' and '_'")
	}
	return nil
}

// ValidateDescription checks the optional description length.
func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > DescriptionMaxLength {
		return fmt.Errorf("description must be at most %d characters", DescriptionMaxLength)
	}
	return nil
}

// ValidateImages checks the image list and cover index.
func ValidateImages(images []string, mainImageIndex int) error {
	if len(images) < 1 || len(images) > MaxImages {
		return fmt.Errorf("a style needs between 1 and %d images", MaxImages)
	}
	for i, img := range images {
		if err := ValidateImageURL(img); err != nil {
			return fmt.Errorf("images[%d]: %w", i, err)
		}
	}
	if mainImageIndex < 0 || mainImageIndex >= len(images) {
		return fmt.Errorf("mainImageIndex must point at one of the images")
	}
	return nil
}

// NormalizeTags trims, lower-cases, collapses whitespace and de-duplicates
// tags, preserving first occurrence order. Empty entries are dropped.
func NormalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, raw := range tags {
		tag := strings.ToLower(spaceRun.ReplaceAllString(strings.TrimSpace(raw), " "))
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > TagMaxLength {
			return nil, fmt.Errorf("tag %q must be at most %d characters", tag, TagMaxLength)
		}
		if !tagRegex.MatchString(tag) {
			return nil, fmt.Errorf("tag %q may only contain letters, numbers, spaces, hyphens and underscores", tag)
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > MaxTags {
		return nil, fmt.Errorf("at most %d tags are allowed", MaxTags)
	}
	return out, nil
}

// NormalizeCommentText trims a comment and checks its length.
func NormalizeCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("comment cannot be empty")
	}
	if utf8.RuneCountInString(text) > CommentMaxLength {
		return "", fmt.Errorf("comment must be at most %d characters", CommentMaxLength)
	}
	return text, nil
}

// ValidatePrompt checks the free-text prompt sent for parameter extraction.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("prompt is required")
	}
	if utf8.RuneCountInString(prompt) > PromptMaxLength {
		return fmt.Errorf("prompt is too long (max %d characters)", PromptMaxLength)
	}
	return nil
}

// NormalizeCollectionName trims a collection name and checks its length.
func NormalizeCollectionName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(name) > CollectionNameMax {
		return "", fmt.Errorf("name must be at most %d characters", CollectionNameMax)
	}
	return name, nil
}
