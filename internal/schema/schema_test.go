package schema

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func mustCompile(t *testing.T, src string) *Descriptor {
	t.Helper()
	d, err := Compile(src)
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", src, err)
	}
	return d
}

func TestCompileSimple(t *testing.T) {
	d := mustCompile(t, "name:str, age:int?")

	if len(d.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(d.Fields))
	}
	if d.Fields[0].Name != "name" || d.Fields[0].Type.Base != "string" || d.Fields[0].Optional {
		t.Fatalf("unexpected first field: %+v", d.Fields[0])
	}
	if d.Fields[1].Name != "age" || d.Fields[1].Type.Base != "int" || !d.Fields[1].Optional {
		t.Fatalf("unexpected second field: %+v", d.Fields[1])
	}
}

func TestCompilePreservesFieldOrder(t *testing.T) {
	d := mustCompile(t, "zeta:str, alpha:int, mid:bool")
	got := d.FieldNames()
	want := []string{"zeta", "alpha", "mid"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("field order not preserved: got %v", got)
		}
	}
}

func TestCompileNestedAndArrays(t *testing.T) {
	d := mustCompile(t, "user:{name:str, emails:[email]}, items:[{sku:str, qty:int}], status:enum(open,closed)")

	if d.Fields[0].Type.Kind != KindObject {
		t.Fatalf("expected user to be object")
	}
	if d.Fields[1].Type.Kind != KindArray || d.Fields[1].Type.Elem.Kind != KindObject {
		t.Fatalf("expected items to be array of objects")
	}
	if d.Fields[2].Type.Kind != KindEnum || len(d.Fields[2].Type.Enum) != 2 {
		t.Fatalf("expected status enum with 2 values, got %+v", d.Fields[2].Type)
	}
}

func TestCompileWhitespaceInsignificant(t *testing.T) {
	a := mustCompile(t, "user:{name:str,age:int}")
	b := mustCompile(t, "  user : { name : str , age : int }  ")
	if a.String() != b.String() {
		t.Fatalf("whitespace changed compilation: %q vs %q", a.String(), b.String())
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"unknown type", "name:varchar"},
		{"missing colon", "name str"},
		{"unbalanced brace", "user:{name:str"},
		{"unbalanced bracket", "tags:[str"},
		{"empty enum", "status:enum()"},
		{"trailing garbage", "name:str }"},
		{"missing type", "name:"},
		{"empty object", "user:{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.src)
			if err == nil {
				t.Fatalf("Compile(%q) should have failed", tt.src)
			}
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SyntaxError, got %T: %v", err, err)
			}
		})
	}
}

func TestCompileErrorNamesFragment(t *testing.T) {
	_, err := Compile("name:varchar")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "varchar") {
		t.Fatalf("error should name the offending fragment: %v", err)
	}
}

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var v map[string]any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("bad test json: %v", err)
	}
	return v
}

func TestValidateConforming(t *testing.T) {
	d := mustCompile(t, "user:{name:str, age:int}, tags:[str], score:number, active:bool")
	v := decode(t, `{"user":{"name":"ann","age":30},"tags":["a","b"],"score":1.5,"active":true}`)
	if err := d.Validate(v); err != nil {
		t.Fatalf("conforming value rejected: %v", err)
	}
}

func TestValidateMissingRequired(t *testing.T) {
	d := mustCompile(t, "name:str, age:int")
	v := decode(t, `{"name":"ann"}`)
	err := d.Validate(v)
	if err == nil {
		t.Fatal("expected missing required field error")
	}
	if !strings.Contains(err.Error(), "age") {
		t.Fatalf("error should name the missing field: %v", err)
	}
}

func TestValidateOptionalMayBeOmitted(t *testing.T) {
	d := mustCompile(t, "name:str, nickname:str?")
	if err := d.Validate(decode(t, `{"name":"ann"}`)); err != nil {
		t.Fatalf("optional field absence rejected: %v", err)
	}
}

func TestValidateExtraFieldAllowed(t *testing.T) {
	d := mustCompile(t, "name:str")
	if err := d.Validate(decode(t, `{"name":"ann","_usage":{"tokens":5}}`)); err != nil {
		t.Fatalf("extra field rejected: %v", err)
	}
}

func TestValidateTypeMismatches(t *testing.T) {
	tests := []struct {
		schema string
		value  string
	}{
		{"age:int", `{"age":"thirty"}`},
		{"age:int", `{"age":3.5}`},
		{"ok:bool", `{"ok":"yes"}`},
		{"tags:[str]", `{"tags":"a"}`},
		{"tags:[str]", `{"tags":["a",1]}`},
		{"user:{name:str}", `{"user":"ann"}`},
		{"status:enum(a,b)", `{"status":"c"}`},
	}

	for _, tt := range tests {
		d := mustCompile(t, tt.schema)
		if err := d.Validate(decode(t, tt.value)); err == nil {
			t.Errorf("schema %q accepted invalid value %s", tt.schema, tt.value)
		}
	}
}

func TestValidateSemanticStrings(t *testing.T) {
	tests := []struct {
		schema string
		good   string
		bad    string
	}{
		{"v:email", `{"v":"a@b.com"}`, `{"v":"not-an-email"}`},
		{"v:url", `{"v":"https://example.com/x"}`, `{"v":"ftp://example.com"}`},
		{"v:datetime", `{"v":"2026-08-30T12:00:00Z"}`, `{"v":"yesterday"}`},
		{"v:date", `{"v":"2026-08-30"}`, `{"v":"30/08/2026"}`},
		{"v:uuid", `{"v":"3b241101-e2bb-4255-8caf-4136c566a962"}`, `{"v":"nope"}`},
		{"v:phone", `{"v":"+1 (415) 555-0100"}`, `{"v":"call me"}`},
	}

	for _, tt := range tests {
		d := mustCompile(t, tt.schema)
		if err := d.Validate(decode(t, tt.good)); err != nil {
			t.Errorf("schema %q rejected valid value %s: %v", tt.schema, tt.good, err)
		}
		if err := d.Validate(decode(t, tt.bad)); err == nil {
			t.Errorf("schema %q accepted invalid value %s", tt.schema, tt.bad)
		}
	}
}

func TestValidateNestedArrayOfObjects(t *testing.T) {
	d := mustCompile(t, "items:[{sku:str, qty:int, note:str?}]")

	if err := d.Validate(decode(t, `{"items":[{"sku":"a","qty":1},{"sku":"b","qty":2,"note":"x"}]}`)); err != nil {
		t.Fatalf("valid nested array rejected: %v", err)
	}
	if err := d.Validate(decode(t, `{"items":[{"sku":"a"}]}`)); err == nil {
		t.Fatal("expected error for missing qty inside array element")
	}
}

func TestStringRoundTrip(t *testing.T) {
	src := "user:{name:str, age:int?}, tags:[str], status:enum(a,b,c)"
	d := mustCompile(t, src)

	d2 := mustCompile(t, d.String())
	if d.String() != d2.String() {
		t.Fatalf("compact form not stable: %q vs %q", d.String(), d2.String())
	}
}

func TestJSONSchema(t *testing.T) {
	d := mustCompile(t, "name:str, age:int?, when:datetime, status:enum(a,b)")
	js := d.JSONSchema()

	if js["type"] != "object" {
		t.Fatalf("expected object type, got %v", js["type"])
	}

	props := js["properties"].(map[string]any)
	if props["age"].(map[string]any)["type"] != "integer" {
		t.Fatalf("unexpected age schema: %v", props["age"])
	}
	if props["when"].(map[string]any)["format"] != "date-time" {
		t.Fatalf("unexpected when schema: %v", props["when"])
	}

	required := js["required"].([]string)
	for _, r := range required {
		if r == "age" {
			t.Fatal("optional field must not be required")
		}
	}
	if len(required) != 3 {
		t.Fatalf("expected 3 required fields, got %v", required)
	}
}
