package application

import (
	"errors"
	"regexp"

	"github.com/dfryer1193/blogwrite/blog/domain"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9-]+$`)

// FormValues are the editable fields of the post form.
type FormValues struct {
	Title   string
	Slug    string
	Content string
	Status  domain.Status
}

// submission is the snapshot validated at submit time.
type submission struct {
	Title   string             `json:"title"`
	Slug    string             `json:"slug"`
	Content string             `json:"content"`
	Status  domain.Status      `json:"status"`
	Image   *domain.FileUpload `json:"image"`
}

func newSubmission(v FormValues, image *domain.FileUpload) submission {
	return submission{
		Title:   v.Title,
		Slug:    v.Slug,
		Content: v.Content,
		Status:  v.Status,
		Image:   image,
	}
}

func (s submission) validate(creating bool) error {
	err := validation.ValidateStruct(&s,
		validation.Field(&s.Title,
			validation.Required.Error("Title is required"),
			validation.RuneLength(5, 0).Error("Title must be at least 5 characters"),
		),
		validation.Field(&s.Slug,
			validation.Required.Error("Slug is required"),
			validation.Match(slugRegex).Error("Slug can only contain lowercase letters, numbers, and hyphens"),
		),
		validation.Field(&s.Status,
			validation.Required.Error("Status is required"),
			validation.In(domain.StatusActive, domain.StatusInactive).Error("Status must be active or inactive"),
		),
		validation.Field(&s.Image,
			validation.When(creating, validation.Required.Error("Featured image is required")),
		),
	)
	return toValidationError(err)
}

// toValidationError flattens ozzo errors into a domain.ValidationError.
func toValidationError(err error) error {
	if err == nil {
		return nil
	}

	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}

	fields := make(map[string]string, len(errs))
	for field, fieldErr := range errs {
		fields[field] = fieldErr.Error()
	}
	return &domain.ValidationError{Fields: fields}
}
