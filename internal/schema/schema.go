// Package schema 实现紧凑字符串 schema 的编译与校验。
//
// 语法示例：
//
//	name:str, age:int?, tags:[str], address:{city:str, zip:str?}, status:enum(a,b,c)
//
// 编译产物是带标签变体的 AST（对象/数组/枚举/基础类型），
// 字段顺序与源串一致。
package schema

import (
	"fmt"
	"strings"
	"unicode"
)

// Kind 类型节点的变体标签
type Kind int

const (
	KindBase Kind = iota
	KindArray
	KindObject
	KindEnum
)

// TypeExpr 一个类型表达式节点
type TypeExpr struct {
	Kind   Kind
	Base   string    // KindBase：规范化后的基础类型名
	Elem   *TypeExpr // KindArray：元素类型
	Fields []Field   // KindObject：子字段
	Enum   []string  // KindEnum：允许的取值
}

// Field 对象的一个字段
type Field struct {
	Name     string
	Type     TypeExpr
	Optional bool
}

// Descriptor 编译后的顶层描述符（顶层视为一个对象体）
type Descriptor struct {
	Fields []Field
	source string
}

// SyntaxError 语法错误，带出错位置与片段
type SyntaxError struct {
	Pos      int
	Fragment string
	Msg      string
}

func (e *SyntaxError) Error() string {
	if e.Fragment != "" {
		return fmt.Sprintf("schema syntax error at offset %d near %q: %s", e.Pos, e.Fragment, e.Msg)
	}
	return fmt.Sprintf("schema syntax error at offset %d: %s", e.Pos, e.Msg)
}

// 基础类型名 -> 规范名。未知类型名编译失败，不会当作 any 处理。
var baseTypes = map[string]string{
	"str":      "string",
	"string":   "string",
	"int":      "int",
	"number":   "number",
	"bool":     "bool",
	"email":    "email",
	"url":      "url",
	"datetime": "datetime",
	"date":     "date",
	"uuid":     "uuid",
	"phone":    "phone",
}

// Compile 把字符串 schema 编译为描述符。
// 空串、括号不配对、未知类型名、空枚举等都会返回 *SyntaxError。
func Compile(src string) (*Descriptor, error) {
	p := &parser{input: src}
	p.skipSpace()
	if p.eof() {
		return nil, &SyntaxError{Pos: 0, Msg: "empty schema"}
	}

	fields, err := p.parseFieldList(0)
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if !p.eof() {
		return nil, p.errHere("unexpected trailing input")
	}

	return &Descriptor{Fields: fields, source: src}, nil
}

// Source 返回原始 schema 字符串
func (d *Descriptor) Source() string {
	return d.source
}

// FieldNames 顶层字段名，按声明顺序
func (d *Descriptor) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

type parser struct {
	input string
	pos   int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.input)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func (p *parser) errHere(msg string) *SyntaxError {
	frag := p.input[p.pos:]
	if len(frag) > 20 {
		frag = frag[:20]
	}
	return &SyntaxError{Pos: p.pos, Fragment: frag, Msg: msg}
}

// parseFieldList 解析逗号分隔的字段列表，closer 为 '}' 时在右花括号前停止
func (p *parser) parseFieldList(closer byte) ([]Field, error) {
	var fields []Field
	for {
		p.skipSpace()
		if closer != 0 && p.peek() == closer {
			break
		}

		f, err := p.parseField()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)

		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		break
	}

	if len(fields) == 0 {
		return nil, p.errHere("expected at least one field")
	}
	return fields, nil
}

func (p *parser) parseField() (Field, error) {
	p.skipSpace()
	name := p.parseIdent()
	if name == "" {
		return Field{}, p.errHere("expected field name")
	}

	p.skipSpace()
	if p.peek() != ':' {
		return Field{}, p.errHere(fmt.Sprintf("expected ':' after field %q", name))
	}
	p.pos++

	typ, optional, err := p.parseTypeExpr()
	if err != nil {
		return Field{}, err
	}

	return Field{Name: name, Type: typ, Optional: optional}, nil
}

// parseTypeExpr 解析类型表达式，返回值含尾部 '?' 可选标记
func (p *parser) parseTypeExpr() (TypeExpr, bool, error) {
	p.skipSpace()

	var typ TypeExpr
	switch p.peek() {
	case '{':
		p.pos++
		fields, err := p.parseFieldList('}')
		if err != nil {
			return TypeExpr{}, false, err
		}
		p.skipSpace()
		if p.peek() != '}' {
			return TypeExpr{}, false, p.errHere("expected '}' to close object")
		}
		p.pos++
		typ = TypeExpr{Kind: KindObject, Fields: fields}

	case '[':
		p.pos++
		elem, elemOptional, err := p.parseTypeExpr()
		if err != nil {
			return TypeExpr{}, false, err
		}
		if elemOptional {
			return TypeExpr{}, false, p.errHere("array element type cannot be optional")
		}
		p.skipSpace()
		if p.peek() != ']' {
			return TypeExpr{}, false, p.errHere("expected ']' to close array")
		}
		p.pos++
		typ = TypeExpr{Kind: KindArray, Elem: &elem}

	default:
		start := p.pos
		ident := p.parseIdent()
		if ident == "" {
			return TypeExpr{}, false, p.errHere("expected type name")
		}

		p.skipSpace()
		if ident == "enum" && p.peek() == '(' {
			p.pos++
			values, err := p.parseEnumValues()
			if err != nil {
				return TypeExpr{}, false, err
			}
			typ = TypeExpr{Kind: KindEnum, Enum: values}
		} else {
			base, ok := baseTypes[strings.ToLower(ident)]
			if !ok {
				return TypeExpr{}, false, &SyntaxError{Pos: start, Fragment: ident, Msg: "unknown type name"}
			}
			typ = TypeExpr{Kind: KindBase, Base: base}
		}
	}

	p.skipSpace()
	optional := false
	if p.peek() == '?' {
		p.pos++
		optional = true
	}
	return typ, optional, nil
}

func (p *parser) parseEnumValues() ([]string, error) {
	var values []string
	for {
		p.skipSpace()
		v := p.parseEnumToken()
		if v == "" {
			return nil, p.errHere("expected enum value")
		}
		values = append(values, v)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return values, nil
		default:
			return nil, p.errHere("expected ',' or ')' in enum list")
		}
	}
}

func (p *parser) parseIdent() string {
	start := p.pos
	for !p.eof() {
		c := p.input[p.pos]
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		break
	}
	return p.input[start:p.pos]
}

// parseEnumToken 枚举值比标识符宽松，允许 '-' 和 '.'
func (p *parser) parseEnumToken() string {
	start := p.pos
	for !p.eof() {
		c := p.input[p.pos]
		if c == ',' || c == ')' || unicode.IsSpace(rune(c)) {
			break
		}
		p.pos++
	}
	return strings.TrimSpace(p.input[start:p.pos])
}

// String 把描述符还原为紧凑形式（用于提示词与日志）
func (d *Descriptor) String() string {
	var b strings.Builder
	writeFields(&b, d.Fields)
	return b.String()
}

func writeFields(b *strings.Builder, fields []Field) {
	for i, f := range fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteByte(':')
		writeType(b, f.Type)
		if f.Optional {
			b.WriteByte('?')
		}
	}
}

func writeType(b *strings.Builder, t TypeExpr) {
	switch t.Kind {
	case KindBase:
		b.WriteString(t.Base)
	case KindArray:
		b.WriteByte('[')
		writeType(b, *t.Elem)
		b.WriteByte(']')
	case KindObject:
		b.WriteByte('{')
		writeFields(b, t.Fields)
		b.WriteByte('}')
	case KindEnum:
		b.WriteString("enum(")
		b.WriteString(strings.Join(t.Enum, ","))
		b.WriteByte(')')
	}
}
