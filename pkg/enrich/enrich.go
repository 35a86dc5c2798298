// Package enrich prepares a form for rendering: synthetic option lists,
// templated default values and resolved user references.
package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-formflow/pkg/constraint"
	"github.com/goliatone/go-formflow/pkg/identity"
	"github.com/goliatone/go-formflow/pkg/model"
)

// ConfirmationPlaceholder is replaced in the default value of fields carrying
// an IS_CONFIRMATION_NUMBER constraint.
const ConfirmationPlaceholder = "{ConfirmationNumber}"

// Apply clones the form's screen and runs decorators against the clone in
// order, so shared screen definitions are never modified.
func Apply(form *model.Form, decorators ...model.Decorator) error {
	if form == nil {
		return fmt.Errorf("enrich: form is required")
	}
	form.Screen = form.Screen.Clone()
	for _, decorator := range decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(form); err != nil {
			return fmt.Errorf("enrich: %w", err)
		}
	}
	return nil
}

// States injects the state option list into fields with an IS_STATE
// constraint.
func States() model.Decorator {
	return model.DecoratorFunc(func(form *model.Form) error {
		eachField(form, func(field *model.Field) {
			if constraint.Has(model.ConstraintState, field.Constraints) {
				field.Options = StateOptions()
			}
		})
		return nil
	})
}

// ConfirmationNumber substitutes token for ConfirmationPlaceholder in the
// default value of fields with an IS_CONFIRMATION_NUMBER constraint.
func ConfirmationNumber(token string) model.Decorator {
	return model.DecoratorFunc(func(form *model.Form) error {
		eachField(form, func(field *model.Field) {
			if constraint.Has(model.ConstraintConfirmationNumber, field.Constraints) {
				field.DefaultValue = strings.ReplaceAll(field.DefaultValue, ConfirmationPlaceholder, token)
			}
		})
		return nil
	})
}

func eachField(form *model.Form, fn func(*model.Field)) {
	if form == nil || form.Screen == nil {
		return
	}
	for sectionIdx := range form.Screen.Sections {
		fields := form.Screen.Sections[sectionIdx].Fields
		for fieldIdx := range fields {
			fn(&fields[fieldIdx])
		}
	}
}

// IsUserField reports whether a field holds identity references.
func IsUserField(field model.Field) bool {
	return field.Type == model.FieldTypePerson || constraint.Has(model.ConstraintValidUser, field.Constraints)
}

// ResolveUsers returns a copy of data where the values of user fields that
// the provider knows are replaced by model.User, so the renderer can show
// display names. Unknown references are kept as submitted.
func ResolveUsers(ctx context.Context, provider identity.Provider, screen *model.Screen, data map[string][]model.Value) map[string][]model.Value {
	out := make(map[string][]model.Value, len(data))
	for name, values := range data {
		out[name] = values
	}
	if provider == nil || screen == nil {
		return out
	}

	for _, field := range screen.Fields() {
		if !IsUserField(field) {
			continue
		}
		values, ok := data[field.Name]
		if !ok {
			continue
		}
		resolved := make([]model.Value, len(values))
		for idx, value := range values {
			resolved[idx] = value
			if value == nil {
				continue
			}
			if _, isUser := value.(model.User); isUser {
				continue
			}
			if user, found := provider.Lookup(ctx, value.Value()); found {
				resolved[idx] = user
			}
		}
		out[field.Name] = resolved
	}
	return out
}
