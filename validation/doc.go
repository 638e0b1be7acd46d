// Package validation provides input validation for coordkit operations.
//
// It supports struct tag validation (using the validator library) and
// programmatic validation with error collection. Struct tag validation
// covers request-shaped inputs like registry.RegisterInput:
//
//	type RegisterInput struct {
//	    Name string `json:"name" validate:"required"`
//	    Port int    `json:"port" validate:"required,min=1,max=65535"`
//	}
//	err := validation.Validate(in)
//
// Programmatic validation collects field errors:
//
//	v := validation.New()
//	v.Required("name", in.Name)
//	err := v.Validate()
package validation
