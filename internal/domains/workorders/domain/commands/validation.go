package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain"
)

var validate = validator.New()

// ValidationError is a single field-level problem.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) String() string {
	return e.Message
}

type draftFields struct {
	Number      string           `validate:"required"`
	Title       string           `validate:"required"`
	Description string           `validate:"required"`
	Creator     *domain.Employee `validate:"required"`
}

type assignmentFields struct {
	draftFields
	Assignee *domain.Employee `validate:"required"`
}

func newDraftFields(order *domain.WorkOrder) draftFields {
	return draftFields{
		Number:      strings.TrimSpace(order.Number),
		Title:       strings.TrimSpace(order.Title),
		Description: strings.TrimSpace(order.Description),
		Creator:     order.Creator,
	}
}

func validateDraft(order *domain.WorkOrder) []ValidationError {
	if order == nil {
		return missingWorkOrder()
	}
	return collect(validate.Struct(newDraftFields(order)))
}

func validateAssignment(order *domain.WorkOrder) []ValidationError {
	if order == nil {
		return missingWorkOrder()
	}
	return collect(validate.Struct(assignmentFields{draftFields: newDraftFields(order), Assignee: order.Assignee}))
}

type draftRequestFields struct {
	Title       string `validate:"required"`
	Description string `validate:"required"`
}

// ValidateDraftRequest checks the fields of a work order that has not been
// numbered yet.
func ValidateDraftRequest(title, description string) []ValidationError {
	return collect(validate.Struct(draftRequestFields{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
	}))
}

func missingWorkOrder() []ValidationError {
	return []ValidationError{{Field: "WorkOrder", Message: "WorkOrder is required"}}
}

func collect(err error) []ValidationError {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationError{{Message: err.Error()}}
	}
	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg := fmt.Sprintf("%s failed the %s rule", fe.Field(), fe.Tag())
		if fe.Tag() == "required" {
			msg = fmt.Sprintf("%s is required", fe.Field())
		}
		out = append(out, ValidationError{Field: fe.Field(), Message: msg})
	}
	return out
}
