package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

// AskParams is the JSON body of POST /ask.
type AskParams struct {
	Question   string   `json:"question" validate:"required"`
	Web        bool     `json:"web"`
	WebDomains []string `json:"web_domains"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *AskParams) Validate() map[string]string {
	validate := validator.New()
	if err := validate.Struct(params); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}
