// Package validate screens user input before it leaves for the CMS:
// comment text, profile fields and search terms against a small
// script-injection deny-list plus emptiness and length rules, and avatar
// uploads against the size and dimension constraints. Rejected input is
// surfaced inline to the user and never sent upstream.
package validate

import (
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"unicode/utf8"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

const (
	CommentMaxLength  = 2000
	UsernameMaxLength = 40
	SearchMaxLength   = 100

	AvatarMaxBytes = 5 * 1024 * 1024
	AvatarMinSide  = 128
	AvatarMaxSide  = 1024
)

// ErrEmpty marks input that is empty or whitespace only.
var ErrEmpty = errors.New("input is empty")

// ErrInjection marks input matching the script-injection deny-list.
var ErrInjection = errors.New("input contains disallowed markup")

// denyList holds the lowercase injection patterns checked against every
// free-text field.
var denyList = []string{
	"<script",
	"</script",
	"javascript:",
	"onerror=",
	"onload=",
	"<iframe",
	"data:text/html",
}

func screened(s string) bool {
	lower := strings.ToLower(s)
	for _, pattern := range denyList {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// CommentText validates a comment body.
func CommentText(s string) error {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ErrEmpty
	}
	if utf8.RuneCountInString(trimmed) > CommentMaxLength {
		return fmt.Errorf("comment exceeds %d characters", CommentMaxLength)
	}
	if screened(trimmed) {
		return ErrInjection
	}
	return nil
}

// Username validates a profile display name.
func Username(s string) error {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ErrEmpty
	}
	if utf8.RuneCountInString(trimmed) > UsernameMaxLength {
		return fmt.Errorf("username exceeds %d characters", UsernameMaxLength)
	}
	if screened(trimmed) {
		return ErrInjection
	}
	return nil
}

// SearchTerm validates a search-as-you-type query.
func SearchTerm(s string) error {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ErrEmpty
	}
	if utf8.RuneCountInString(trimmed) > SearchMaxLength {
		return fmt.Errorf("search term exceeds %d characters", SearchMaxLength)
	}
	if screened(trimmed) {
		return ErrInjection
	}
	return nil
}

// Avatar validates an avatar image before the upload is attempted: at
// most 5 MB, decodable as an image, square, with each side between 128
// and 1024 pixels.
func Avatar(r io.Reader, size int64) error {
	if size > AvatarMaxBytes {
		return fmt.Errorf("avatar exceeds %d bytes", AvatarMaxBytes)
	}

	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return fmt.Errorf("avatar is not a recognized image: %w", err)
	}

	if cfg.Width != cfg.Height {
		return fmt.Errorf("avatar must be square, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Width < AvatarMinSide || cfg.Width > AvatarMaxSide {
		return fmt.Errorf("avatar side must be between %d and %d pixels, got %d", AvatarMinSide, AvatarMaxSide, cfg.Width)
	}

	return nil
}
