// Package prompt turns structured generation parameters into the natural
// language prompt sent to a generation backend.
package prompt

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// maxKeywords caps how many comma-separated keywords are folded into the
// niche phrase; anything past the fifth is dropped.
const maxKeywords = 5

// Templates maps each supported content type to its prompt template.
// %s is replaced with the niche phrase.
var Templates = map[string]string{
	"Blog Post":           "Write a detailed blog post about '%s' with at least 5 paragraphs, covering introduction, main points, and conclusion.",
	"Product Description": "Create a compelling product description for '%s' that highlights features, benefits, and unique selling points.",
	"Social Media":        "Create 5 engaging social media posts about '%s' suitable for platforms like Instagram, Facebook and Twitter.",
	"Email Newsletter":    "Write an email newsletter about '%s' with an engaging subject line, introduction, main content, and call to action.",
	"Landing Page":        "Create landing page copy for '%s' with headline, subheadline, features, benefits, testimonial placeholders, and call to action.",
	"SEO Article":         "Write an SEO-optimized article about '%s' with proper headings, subheadings, and keywords naturally incorporated.",
}

// Builder errors.
var (
	ErrNoCategories       = errors.New("no categories provided")
	ErrNoColor            = errors.New("no primary color provided")
	ErrUnknownContentType = errors.New("unknown content type")
)

// Input holds the structured parameters of a generation request.
type Input struct {
	Categories      []string
	Color           string
	AdditionalWords string
	ContentType     string
}

// ContentTypes returns the supported content type names, sorted.
func ContentTypes() []string {
	types := make([]string, 0, len(Templates))
	for name := range Templates {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// BuildNiche synthesizes the niche phrase: the color, the categories joined
// with ", ", and up to five trimmed keywords from the free-text field.
func BuildNiche(in Input) (string, error) {
	if len(in.Categories) == 0 {
		return "", ErrNoCategories
	}
	if in.Color == "" {
		return "", ErrNoColor
	}

	niche := in.Color + " " + strings.Join(in.Categories, ", ")

	if words := strings.TrimSpace(in.AdditionalWords); words != "" {
		keywords := strings.Split(words, ",")
		if len(keywords) > maxKeywords {
			keywords = keywords[:maxKeywords]
		}
		for i, kw := range keywords {
			keywords[i] = strings.TrimSpace(kw)
		}
		niche += " with these keywords: " + strings.Join(keywords, ", ")
	}

	return niche, nil
}

// Build produces the full prompt for the requested content type.
// Returns ErrUnknownContentType when the type is not one of Templates.
func Build(in Input) (string, error) {
	niche, err := BuildNiche(in)
	if err != nil {
		return "", err
	}

	template, ok := Templates[in.ContentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownContentType, in.ContentType)
	}

	return fmt.Sprintf(template, niche), nil
}
