package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/armystay/hotels/internal/apperr"
	"github.com/armystay/hotels/internal/catalog"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by the name clients send.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// ListParams holds validated hotel list parameters.
type ListParams struct {
	City       string `query:"city" validate:"omitempty,oneof=all seoul goyang busan paju near_gwanghwamun other"`
	Category   string `query:"category" validate:"max=64"`
	Text       string `query:"q" validate:"max=100"`
	Sort       string `query:"sort" validate:"omitempty,oneof=recommended distance army_density lowest_price"`
	SafeReturn bool   `query:"safe_return"`
	Limit      int    `query:"limit" validate:"gte=0,lte=100"`
	Offset     int    `query:"offset" validate:"gte=0"`
}

// Query converts the parameters into a catalog query.
func (p *ListParams) Query() catalog.Query {
	return catalog.Query{
		City:       p.City,
		Category:   p.Category,
		Text:       p.Text,
		Sort:       p.Sort,
		SafeReturn: p.SafeReturn,
		Limit:      p.Limit,
		Offset:     p.Offset,
	}
}

// ParseListParams parses and validates list parameters from the request.
func ParseListParams(r *http.Request) (*ListParams, error) {
	query := r.URL.Query()

	p := &ListParams{
		City:     strings.ToLower(strings.TrimSpace(query.Get("city"))),
		Category: strings.TrimSpace(query.Get("category")),
		Text:     strings.TrimSpace(query.Get("q")),
		Sort:     strings.TrimSpace(query.Get("sort")),
	}

	var err error
	if p.Limit, err = intParam(query.Get("limit"), "limit"); err != nil {
		return nil, err
	}
	if p.Offset, err = intParam(query.Get("offset"), "offset"); err != nil {
		return nil, err
	}
	if s := query.Get("safe_return"); s != "" {
		if p.SafeReturn, err = strconv.ParseBool(s); err != nil {
			return nil, apperr.Invalid("safe_return must be true or false")
		}
	}

	if err := validate.Struct(p); err != nil {
		return nil, apperr.Invalid(validationMessage(err))
	}
	return p, nil
}

func intParam(s, name string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperr.Invalid(name + " must be an integer")
	}
	return n, nil
}

// decodeBody reads a JSON body into v and validates it.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return apperr.Invalid("invalid JSON body")
	}
	if err := validate.Struct(v); err != nil {
		return apperr.Invalid(validationMessage(err))
	}
	return nil
}

// validationMessage describes the first failed rule.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}

	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	}
	return field + " is invalid"
}
