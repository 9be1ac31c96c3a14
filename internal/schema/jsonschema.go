package schema

// JSONSchema 把描述符转换为 JSON Schema 对象，
// 用作 tools 模式下函数定义的 parameters。
func (d *Descriptor) JSONSchema() map[string]any {
	return objectSchema(d.Fields)
}

func objectSchema(fields []Field) map[string]any {
	properties := map[string]any{}
	required := []string{}

	for _, f := range fields {
		properties[f.Name] = typeSchema(f.Type)
		if !f.Optional {
			required = append(required, f.Name)
		}
	}

	out := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func typeSchema(t TypeExpr) map[string]any {
	switch t.Kind {
	case KindArray:
		return map[string]any{
			"type":  "array",
			"items": typeSchema(*t.Elem),
		}
	case KindObject:
		return objectSchema(t.Fields)
	case KindEnum:
		return map[string]any{
			"type": "string",
			"enum": t.Enum,
		}
	}

	switch t.Base {
	case "int":
		return map[string]any{"type": "integer"}
	case "number":
		return map[string]any{"type": "number"}
	case "bool":
		return map[string]any{"type": "boolean"}
	case "string":
		return map[string]any{"type": "string"}
	}

	// 语义字符串子类型序列化为带 format 的字符串
	format := t.Base
	switch t.Base {
	case "datetime":
		format = "date-time"
	case "url":
		format = "uri"
	}
	return map[string]any{"type": "string", "format": format}
}
