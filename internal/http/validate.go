package httpapp

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check validates req and converts failures into the field list returned to
// clients. The message for a field comes from its msg_<rule> tag when present,
// otherwise its msg tag.
func (s *Server) check(req any) []fieldError {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []fieldError{{Msg: err.Error()}}
	}

	t := reflect.TypeOf(req)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	out := make([]fieldError, 0, len(verrs))
	seen := make(map[string]bool)
	for _, fe := range verrs {
		if seen[fe.Field()] {
			continue
		}
		seen[fe.Field()] = true
		msg := fe.Error()
		if sf, ok := t.FieldByName(fe.StructField()); ok {
			if m := sf.Tag.Get("msg_" + fe.Tag()); m != "" {
				msg = m
			} else if m := sf.Tag.Get("msg"); m != "" {
				msg = m
			}
		}
		out = append(out, fieldError{Param: fe.Field(), Msg: msg})
	}
	return out
}
