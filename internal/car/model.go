package car

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("car not found")
	ErrForbidden  = errors.New("car belongs to another user")
	ErrValidation = errors.New("invalid car")
)

type Car struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Images      []string  `json:"images"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// UpdateFields lists the fields of a partial update. Nil fields are left untouched.
type UpdateFields struct {
	Title       *string
	Description *string
	Tags        *[]string
	Images      *[]string
}

// IsEmpty reports whether the update would change nothing
func (u UpdateFields) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Tags == nil && u.Images == nil
}

// Apply copies the present fields onto c
func (u UpdateFields) Apply(c *Car) {
	if u.Title != nil {
		c.Title = *u.Title
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.Tags != nil {
		c.Tags = cloneStrings(*u.Tags)
	}
	if u.Images != nil {
		c.Images = cloneStrings(*u.Images)
	}
}

// New builds a car owned by ownerID with a fresh id
func New(ownerID, title, description string, tags, images []string) *Car {
	now := time.Now().UTC()
	return &Car{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Tags:        nonNil(tags),
		Images:      nonNil(images),
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SplitTags turns comma-joined text into tags. Items are trimmed and empty items dropped.
func SplitTags(csv string) []string {
	tags := []string{}
	for _, tag := range strings.Split(csv, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func cloneStrings(s []string) []string {
	return append([]string{}, s...)
}
