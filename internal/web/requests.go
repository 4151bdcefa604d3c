package web

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/ledgerrecon/internal/core"
)

// importForm is the non-file part of an import request.
type importForm struct {
	ClientID string   `form:"clientID" validate:"required,max=64,clientid"`
	Period   string   `form:"period" validate:"omitempty,max=32,printascii"`
	Profile  string   `form:"profile" validate:"omitempty,max=64"`
	Columns  []string `form:"columns" validate:"omitempty,max=16,dive,required,max=64"`
	Clear    bool     `form:"clear"`
}

// scopeQuery selects the entries of one client, optionally one period.
type scopeQuery struct {
	ClientID string `form:"clientID" validate:"required,max=64,clientid"`
	Period   string `form:"period" validate:"omitempty,max=32,printascii"`
	All      bool   `form:"all"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" {
			return name
		}
		return f.Name
	})
	// Client IDs end up in URLs, file names and event keys.
	_ = v.RegisterValidation("clientid", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			case r == '-', r == '_', r == '.':
			default:
				return false
			}
		}
		return true
	})
	return v
}

// check validates v and wraps failures in core.ErrInvalidRequest.
func (s *Server) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s fails %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s fails %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", core.ErrInvalidRequest, strings.Join(msgs, "; "))
}

// readImportForm reads the form fields of a parsed multipart request.
func (s *Server) readImportForm(r *http.Request) (importForm, error) {
	form := importForm{
		ClientID: chi.URLParam(r, "clientID"),
		Period:   strings.TrimSpace(r.FormValue("period")),
		Profile:  strings.TrimSpace(r.FormValue("profile")),
	}
	if cols := r.FormValue("columns"); cols != "" {
		for _, c := range strings.Split(cols, ",") {
			if c = strings.TrimSpace(c); c != "" {
				form.Columns = append(form.Columns, c)
			}
		}
	}

	var err error
	if form.Clear, err = parseBool(r.FormValue("clear")); err != nil {
		return form, fmt.Errorf("%w: clear: %v", core.ErrInvalidRequest, err)
	}

	return form, s.check(form)
}

// readScope reads the client and period of a query request.
func (s *Server) readScope(r *http.Request) (scopeQuery, error) {
	q := scopeQuery{
		ClientID: chi.URLParam(r, "clientID"),
		Period:   strings.TrimSpace(r.URL.Query().Get("period")),
	}

	var err error
	if q.All, err = parseBool(r.URL.Query().Get("all")); err != nil {
		return q, fmt.Errorf("%w: all: %v", core.ErrInvalidRequest, err)
	}

	return q, s.check(q)
}

// parseBool treats an empty value as false.
func parseBool(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
