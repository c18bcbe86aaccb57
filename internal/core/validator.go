package core

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"ridewise/internal/types"
)

// Validator wraps go-playground/validator and reports failures as
// validation_failed AppErrors keyed by JSON field name.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator builds a validator that names fields by their json tag and
// registers the place_category rule.
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("place_category", func(fl validator.FieldLevel) bool {
		return types.PlaceCategory(fl.Field().String()).Valid()
	})
	return &Validator{validate: v, logger: logger}
}

// ValidateStruct returns nil or an AppError whose details map each failing
// field to the rule it broke.
func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		v.logger.Error("validator misuse", "error", err)
		return types.NewAppError(types.ErrCodeInternalUnexpected, "request validation failed", err)
	}

	fields := make(map[string]any, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := fieldPath(fe)
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[name] = rule
		msgs = append(msgs, name+" failed "+rule)
	}

	return types.NewAppErrorWithDetails(
		types.ErrCodeValidationFailed,
		"invalid request: "+strings.Join(msgs, "; "),
		nil,
		map[string]any{"fields": fields},
	)
}

// fieldPath drops the top-level struct name from the namespace so
// "createWaypointRequest.location.lat" becomes "location.lat".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
