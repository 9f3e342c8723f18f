package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "clientpulse/internal/errors"
)

// ContentTypeValidator rejects request bodies whose media type is not one of
// contentTypes. GET, HEAD and OPTIONS pass through.
func ContentTypeValidator(errorHandler *apierrors.ErrorHandler, contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			mediaType, _, err := mime.ParseMediaType(contentType)
			if err != nil {
				errorHandler.HandleError(w, r, apierrors.UnsupportedMediaError(contentType, contentTypes...))
				return
			}
			for _, allowed := range contentTypes {
				if strings.EqualFold(mediaType, allowed) {
					next.ServeHTTP(w, r)
					return
				}
			}
			errorHandler.HandleError(w, r, apierrors.UnsupportedMediaError(contentType, contentTypes...))
		})
	}
}

// QueryParamValidator decodes query strings into tagged structs and
// validates them. Fields are read from the `query` tag; validation uses
// `validate` tags.
type QueryParamValidator struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewQueryParamValidator creates a new query parameter validator
func NewQueryParamValidator(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *QueryParamValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(queryName)
	return &QueryParamValidator{
		validator:    v,
		logger:       logger.With(slog.String("component", "query_validator")),
		errorHandler: errorHandler,
	}
}

// Bind fills dst, a pointer to a struct of string and bool fields, from the
// request's query string and validates it. Absent parameters keep the value
// already in dst. On failure it writes a 400 problem response and returns
// false.
func (v *QueryParamValidator) Bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := v.bind(r, dst); err != nil {
		v.reject(w, r, err)
		return false
	}
	if err := v.validator.Struct(dst); err != nil {
		v.reject(w, r, err)
		return false
	}
	return true
}

func (v *QueryParamValidator) bind(r *http.Request, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("query destination must be a struct pointer, got %T", dst)
	}
	query := r.URL.Query()
	elem := rv.Elem()
	for i := 0; i < elem.NumField(); i++ {
		field := elem.Type().Field(i)
		name := queryName(field)
		if name == "" || !query.Has(name) {
			continue
		}
		raw := query.Get(name)
		fv := elem.Field(i)
		switch fv.Kind() {
		case reflect.String:
			fv.SetString(raw)
		case reflect.Bool:
			b, ok := parseBool(raw)
			if !ok {
				return apierrors.InvalidParameterError(name, raw, "true", "false")
			}
			fv.SetBool(b)
		default:
			return fmt.Errorf("unsupported query field %s of kind %s", field.Name, fv.Kind())
		}
	}
	return nil
}

func (v *QueryParamValidator) reject(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		v.errorHandler.HandleError(w, r, apiErr)
		return
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		var allowed []string
		if fe.Tag() == "oneof" {
			allowed = strings.Fields(fe.Param())
		}
		v.errorHandler.HandleError(w, r, apierrors.InvalidParameterError(fe.Field(), fmt.Sprint(fe.Value()), allowed...))
		return
	}

	v.logger.ErrorContext(r.Context(), "query binding failed", slog.String("error", err.Error()))
	v.errorHandler.HandleError(w, r, err)
}

func queryName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("query"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "yes", "on":
		return true, true
	case "0", "f", "false", "no", "off":
		return false, true
	}
	return false, false
}
