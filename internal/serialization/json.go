package serialization

import (
	"encoding/json"
	"errors"

	"github.com/bench-arena/bench-arena/internal/executioncontext"
	validator "github.com/go-playground/validator/v10"
)

// Unmarshal decodes a request body into v and validates it against the
// struct tags. Each failing field is logged individually so a rejected
// tournament or participant payload can be diagnosed from the logs alone.
func Unmarshal(validate *validator.Validate, ctx *executioncontext.ExecutionContext, jsonBytes []byte, v any) error {
	if err := json.Unmarshal(jsonBytes, v); err != nil {
		return err
	}
	err := validate.StructCtx(ctx.Ctx, v)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		for _, fe := range fieldErrors {
			ctx.Logger.Info("Validation error", "field", fe.Field(), "tag", fe.Tag(), "value", fe.Value())
		}
	}
	return err
}
