package validation

import (
	validator "github.com/go-playground/validator/v10"

	"github.com/bench-arena/bench-arena/pkg/api"
)

// New builds the validator used for all inbound API payloads. Custom
// validations live here so that every caller gets the same instance shape.
func New() (*validator.Validate, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	err := validate.RegisterValidation("artifact_category", func(fl validator.FieldLevel) bool {
		_, err := api.GetArtifactCategory(fl.Field().String())
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	return validate, nil
}
