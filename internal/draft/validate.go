package draft

import (
	"regexp"
	"strings"
)

// Stage is one step of the deliverable wizard.
type Stage int

const (
	StageBasics Stage = iota
	StageContent
	StageReview
)

// String returns the stage's display name.
func (s Stage) String() string {
	switch s {
	case StageBasics:
		return "Basic Details"
	case StageContent:
		return "Content"
	case StageReview:
		return "Review"
	default:
		return "Unknown"
	}
}

// priceRe accepts currency-like text: optional leading $, digits, optional
// two-digit decimal group. "10", "10.50", "$10.50" pass; "abc", "10.5.5",
// and "" do not.
var priceRe = regexp.MustCompile(`^\$?\d+(\.\d{2})?$`)

// ValidPrice reports whether the price text is acceptable.
func ValidPrice(price string) bool {
	return priceRe.MatchString(price)
}

// Result is the outcome of validating one stage.
type Result struct {
	// Errors maps stage-qualified keys to messages.
	Errors map[string]string
	// FirstFieldID is the first invalid field in document order (content
	// stage only); the caller makes it the active edit target.
	FirstFieldID string
}

// OK reports whether validation passed.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// ValidateStage runs the stage's rule set against the draft, records every
// failure in the store's error map, and returns the collected result.
// Entered data is never modified.
func (s *Store) ValidateStage(stage Stage) Result {
	switch stage {
	case StageBasics:
		return s.validateBasics()
	case StageContent:
		return s.validateContent()
	default:
		// Review is display-only.
		return Result{Errors: map[string]string{}}
	}
}

func (s *Store) validateBasics() Result {
	result := Result{Errors: map[string]string{}}

	if strings.TrimSpace(s.d.Name) == "" {
		result.Errors["basics.name"] = "Name is required"
	}
	if strings.TrimSpace(s.d.Price) == "" {
		result.Errors["basics.price"] = "Price is required"
	} else if !ValidPrice(strings.TrimSpace(s.d.Price)) {
		result.Errors["basics.price"] = "Enter a valid price, e.g. 150 or $10.50"
	}

	for k, v := range result.Errors {
		s.SetError(k, v)
	}
	return result
}

func (s *Store) validateContent() Result {
	result := Result{Errors: map[string]string{}}

	record := func(fieldID, prop, msg string) {
		result.Errors["field."+fieldID+"."+prop] = msg
		if result.FirstFieldID == "" {
			result.FirstFieldID = fieldID
		}
	}

	// Scan in field order so the first failure found becomes the active
	// edit target.
	for _, f := range s.d.Fields {
		if strings.TrimSpace(f.Label) == "" {
			record(f.ID, "label", "Label is required")
		}

		switch body := f.Body.(type) {
		case *TextBody:
			if strings.TrimSpace(body.Content) == "" {
				record(f.ID, "content", "Content is required")
			}
		case *ListBody:
			if len(body.Items) == 0 {
				record(f.ID, "items", "Add at least one item")
			}
		case *LinkBody:
			if strings.TrimSpace(body.URL) == "" {
				record(f.ID, "url", "URL is required")
			}
		case *AttachmentBody, *DatabaseBody:
			// No hard requirement.
		}
	}

	for k, v := range result.Errors {
		s.SetError(k, v)
	}
	return result
}
