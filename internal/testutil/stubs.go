// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"
	"time"

	"inkwell/internal/media"

	"github.com/golang-jwt/jwt/v5"
)

// MediaStub is an in-memory media.Host that records calls.
type MediaStub struct {
	mu        sync.Mutex
	uploaded  []media.File
	deleted   []string
	next      int
	UploadErr error
	DeleteErr error
}

var _ media.Host = (*MediaStub)(nil)

// NewMediaStub creates an empty media host stub.
func NewMediaStub() *MediaStub {
	return &MediaStub{}
}

// Upload records file and returns a unique fake URL.
func (s *MediaStub) Upload(_ context.Context, file media.File) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UploadErr != nil {
		return "", s.UploadErr
	}
	s.next++
	s.uploaded = append(s.uploaded, file)
	return fmt.Sprintf("https://media.test/inkwell/img%d.webp", s.next), nil
}

// Delete records url.
func (s *MediaStub) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, url)
	return s.DeleteErr
}

// Uploaded returns the files passed to Upload.
func (s *MediaStub) Uploaded() []media.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]media.File(nil), s.uploaded...)
}

// Deleted returns the URLs passed to Delete, including failed attempts.
func (s *MediaStub) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// TinyPNG returns a blank PNG of the given size.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// SignedToken returns an HS256 token for subject that expires in an hour.
func SignedToken(t interface {
	Helper()
	Fatalf(string, ...any)
}, secret, subject, issuer, audience string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	if issuer != "" {
		claims.Issuer = issuer
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}
