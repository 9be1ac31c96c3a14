package schema

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9()\-\s.]{5,}$`)

// Validate 校验一个解码后的 JSON 值是否符合描述符。
// 可选字段允许缺失；未声明的多余字段不报错（由引擎拆到 response_meta）。
func (d *Descriptor) Validate(value any) error {
	obj, ok := value.(map[string]any)
	if !ok {
		return fmt.Errorf("expected object, got %T", value)
	}
	return validateFields(d.Fields, obj, "")
}

func validateFields(fields []Field, obj map[string]any, path string) error {
	for _, f := range fields {
		fieldPath := f.Name
		if path != "" {
			fieldPath = path + "." + f.Name
		}

		v, present := obj[f.Name]
		if !present || v == nil {
			if f.Optional {
				continue
			}
			return fmt.Errorf("missing required field %q", fieldPath)
		}

		if err := validateType(f.Type, v, fieldPath); err != nil {
			return err
		}
	}
	return nil
}

func validateType(t TypeExpr, v any, path string) error {
	switch t.Kind {
	case KindBase:
		return validateBase(t.Base, v, path)

	case KindArray:
		arr, ok := v.([]any)
		if !ok {
			return fmt.Errorf("field %q: expected array, got %T", path, v)
		}
		for i, elem := range arr {
			if err := validateType(*t.Elem, elem, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil

	case KindObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("field %q: expected object, got %T", path, v)
		}
		return validateFields(t.Fields, obj, path)

	case KindEnum:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("field %q: expected enum string, got %T", path, v)
		}
		for _, allowed := range t.Enum {
			if s == allowed {
				return nil
			}
		}
		return fmt.Errorf("field %q: value %q not in enum(%s)", path, s, strings.Join(t.Enum, ","))
	}
	return fmt.Errorf("field %q: invalid type node", path)
}

func validateBase(base string, v any, path string) error {
	switch base {
	case "string":
		if _, ok := v.(string); !ok {
			return fmt.Errorf("field %q: expected string, got %T", path, v)
		}
		return nil

	case "int":
		// encoding/json 解码出来的数字是 float64
		f, ok := v.(float64)
		if !ok {
			return fmt.Errorf("field %q: expected integer, got %T", path, v)
		}
		if f != math.Trunc(f) {
			return fmt.Errorf("field %q: expected integer, got %v", path, f)
		}
		return nil

	case "number":
		if _, ok := v.(float64); !ok {
			return fmt.Errorf("field %q: expected number, got %T", path, v)
		}
		return nil

	case "bool":
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("field %q: expected bool, got %T", path, v)
		}
		return nil
	}

	// 语义字符串子类型：先要求是字符串，再校验格式
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("field %q: expected %s string, got %T", path, base, v)
	}

	switch base {
	case "email":
		at := strings.Index(s, "@")
		if at <= 0 || at == len(s)-1 || strings.ContainsAny(s, " \t") {
			return fmt.Errorf("field %q: %q is not a valid email", path, s)
		}
	case "url":
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("field %q: %q is not a valid http(s) url", path, s)
		}
	case "datetime":
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return fmt.Errorf("field %q: %q is not a valid RFC3339 datetime", path, s)
		}
	case "date":
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return fmt.Errorf("field %q: %q is not a valid date (YYYY-MM-DD)", path, s)
		}
	case "uuid":
		if _, err := uuid.Parse(s); err != nil {
			return fmt.Errorf("field %q: %q is not a valid uuid", path, s)
		}
	case "phone":
		if !phonePattern.MatchString(s) {
			return fmt.Errorf("field %q: %q is not a valid phone number", path, s)
		}
	}
	return nil
}
