// Package validation holds the field validators that gin binding tags cannot
// express: the username alphabet with its reserved value, slug shape, and the
// wall-clock bound on title years.
package validation

import (
	"errors"
	"regexp"
	"time"
)

var (
	usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)
	slugRe     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

var (
	ErrUsernameReserved = errors.New(`username "me" is reserved`)
	ErrUsernameInvalid  = errors.New("username may only contain letters, digits and @/./+/-/_ characters")
	ErrSlugInvalid      = errors.New("slug may only contain letters, digits, hyphens and underscores")
	ErrYearInFuture     = errors.New("year must not be in the future")
)

// Username rejects the reserved value "me" and anything outside the
// [\w.@+-]+ alphabet. Usernames are case-sensitive, so only the exact value
// "me" collides with the self-service route. Length is bound by the dto
// binding tag.
func Username(value string) error {
	if value == "me" {
		return ErrUsernameReserved
	}
	if !usernameRe.MatchString(value) {
		return ErrUsernameInvalid
	}
	return nil
}

// Slug validates the slug-key shape shared by categories and genres.
func Slug(value string) error {
	if !slugRe.MatchString(value) {
		return ErrSlugInvalid
	}
	return nil
}

// Year checks a title's release year against the wall clock at write time.
func Year(value int) error {
	if value > time.Now().Year() {
		return ErrYearInFuture
	}
	return nil
}
