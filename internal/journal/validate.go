package journal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Badar25/Journal-backend/internal/result"
)

const (
	// MaxTitleLength is the maximum title length in Unicode code points.
	MaxTitleLength = 200

	// MaxContentLength is the maximum content length in Unicode code points.
	MaxContentLength = 1000
)

// validate is shared; validator.Validate caches struct metadata and is safe
// for concurrent use.
var validate = validator.New()

// Draft is the caller input for creating an entry.
type Draft struct {
	// Title is the optional entry heading.
	Title string `json:"title" validate:"max=200"`

	// Content is the optional entry body.
	Content string `json:"content" validate:"max=1000"`
}

// Patch is the caller input for a partial update. Nil fields are left
// unchanged.
type Patch struct {
	// Title replaces the stored title when non-nil.
	Title *string `json:"title" validate:"omitempty,max=200"`

	// Content replaces the stored content when non-nil.
	Content *string `json:"content" validate:"omitempty,max=1000"`
}

// ValidateCreate checks a Draft. At least one of title and content must be
// non-blank, and both must respect their length limits.
func ValidateCreate(d Draft) result.Result[Draft] {
	if strings.TrimSpace(d.Title) == "" && strings.TrimSpace(d.Content) == "" {
		return result.Err[Draft](result.KindEmptyFields,
			"At least one field (title or content) must be provided")
	}
	if kind, msg, ok := lengthViolation(validate.Struct(d)); !ok {
		return result.Err[Draft](kind, msg)
	}
	return result.Ok(d)
}

// ValidateUpdate checks only the fields present in p.
func ValidateUpdate(p Patch) result.Result[Patch] {
	if kind, msg, ok := lengthViolation(validate.Struct(p)); !ok {
		return result.Err[Patch](kind, msg)
	}
	return result.Ok(p)
}

// lengthViolation translates validator field errors into result kinds.
// Title is checked before content so the reported kind is stable.
func lengthViolation(err error) (result.Kind, string, bool) {
	if err == nil {
		return "", "", true
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return result.KindMissingFields, err.Error(), false
	}
	var contentErr bool
	for _, fe := range fieldErrs {
		switch fe.Field() {
		case "Title":
			return result.KindTitleTooLong,
				fmt.Sprintf("Title must not exceed %d characters", MaxTitleLength), false
		case "Content":
			contentErr = true
		}
	}
	if contentErr {
		return result.KindContentTooLong,
			fmt.Sprintf("Content must not exceed %d characters", MaxContentLength), false
	}
	return result.KindMissingFields, fieldErrs.Error(), false
}
