package middleware

import (
    "errors"
    "fmt"
    "net/http"
    "reflect"
    "strings"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"
)

// Validator plugs go-playground/validator into echo.Context.Validate.
type Validator struct {
    v *validator.Validate
}

// NewValidator returns a Validator using json field names in messages.
func NewValidator() *Validator {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
        if name == "-" {
            return ""
        }
        return name
    })
    return &Validator{v: v}
}

// Validate returns a 400 HTTPError describing the first failed field.
func (cv *Validator) Validate(i interface{}) error {
    err := cv.v.Struct(i)
    if err == nil {
        return nil
    }
    var verrs validator.ValidationErrors
    if errors.As(err, &verrs) && len(verrs) > 0 {
        fe := verrs[0]
        return echo.NewHTTPError(http.StatusBadRequest, describe(fe))
    }
    return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

func describe(fe validator.FieldError) string {
    field := fe.Namespace()
    if i := strings.IndexByte(field, '.'); i >= 0 {
        field = field[i+1:]
    }
    switch fe.Tag() {
    case "required":
        return fmt.Sprintf("%s is required", field)
    case "min", "gte":
        return fmt.Sprintf("%s must be at least %s", field, fe.Param())
    case "max", "lte":
        return fmt.Sprintf("%s must be at most %s", field, fe.Param())
    case "gt":
        return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
    case "email":
        return fmt.Sprintf("%s must be a valid email", field)
    case "oneof":
        return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
    }
    return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
