package validate

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"
)

func TestCommentText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"valid comment", "Can't wait for the next trailer!", nil},
		{"empty", "", ErrEmpty},
		{"whitespace only", "   \t\n ", ErrEmpty},
		{"script tag", "nice <script>alert(1)</script>", ErrInjection},
		{"script tag mixed case", "nice <ScRiPt>alert(1)", ErrInjection},
		{"javascript url", `click [here](javascript:alert(1))`, ErrInjection},
		{"onerror attribute", `<img src=x onerror=alert(1)>`, ErrInjection},
		{"iframe", `<iframe src="evil">`, ErrInjection},
		{"data html url", `see data:text/html;base64,xxx`, ErrInjection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CommentText(tt.input)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCommentTextLength(t *testing.T) {
	if err := CommentText(strings.Repeat("a", CommentMaxLength)); err != nil {
		t.Fatalf("max-length comment should pass, got %v", err)
	}
	if err := CommentText(strings.Repeat("a", CommentMaxLength+1)); err == nil {
		t.Fatal("over-length comment should fail")
	}
}

func TestSearchTerm(t *testing.T) {
	if err := SearchTerm("cayo perico"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := SearchTerm("  "); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if err := SearchTerm("<script>"); !errors.Is(err, ErrInjection) {
		t.Fatalf("expected ErrInjection, got %v", err)
	}
	if err := SearchTerm(strings.Repeat("q", SearchMaxLength+1)); err == nil {
		t.Fatal("over-length term should fail")
	}
}

func TestUsername(t *testing.T) {
	if err := Username("LesterCrest"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Username(""); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if err := Username(strings.Repeat("x", UsernameMaxLength+1)); err == nil {
		t.Fatal("over-length username should fail")
	}
}

func pngImage(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return &buf
}

func TestAvatar(t *testing.T) {
	t.Run("valid square avatar", func(t *testing.T) {
		img := pngImage(t, 256, 256)
		if err := Avatar(img, int64(img.Len())); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("not square", func(t *testing.T) {
		img := pngImage(t, 256, 300)
		if err := Avatar(img, int64(img.Len())); err == nil {
			t.Fatal("non-square avatar should fail")
		}
	})

	t.Run("too small", func(t *testing.T) {
		img := pngImage(t, 64, 64)
		if err := Avatar(img, int64(img.Len())); err == nil {
			t.Fatal("64px avatar should fail")
		}
	})

	t.Run("too large dimensions", func(t *testing.T) {
		img := pngImage(t, 2048, 2048)
		if err := Avatar(img, int64(img.Len())); err == nil {
			t.Fatal("2048px avatar should fail")
		}
	})

	t.Run("oversized payload rejected before decode", func(t *testing.T) {
		if err := Avatar(bytes.NewReader(nil), AvatarMaxBytes+1); err == nil {
			t.Fatal("oversized avatar should fail")
		}
	})

	t.Run("not an image", func(t *testing.T) {
		if err := Avatar(strings.NewReader("plain text"), 10); err == nil {
			t.Fatal("non-image payload should fail")
		}
	})

	t.Run("boundary sides pass", func(t *testing.T) {
		small := pngImage(t, 128, 128)
		if err := Avatar(small, int64(small.Len())); err != nil {
			t.Fatalf("128px avatar should pass: %v", err)
		}
		large := pngImage(t, 1024, 1024)
		if err := Avatar(large, int64(large.Len())); err != nil {
			t.Fatalf("1024px avatar should pass: %v", err)
		}
	})
}
