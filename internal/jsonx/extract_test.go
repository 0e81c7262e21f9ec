package jsonx

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestExtract_ValidJSON(t *testing.T) {
	obj := Extract(`{"topic":"Economy","claims":[{"claim":"GDP grew 3%"}]}`)
	if obj == nil {
		t.Fatal("Expected object, got nil")
	}
	if obj["topic"] != "Economy" {
		t.Errorf("Expected topic 'Economy', got %v", obj["topic"])
	}
}

func TestExtract_IdempotentOnValidJSON(t *testing.T) {
	// Round-trip property: extracting marshaled JSON returns the same value,
	// including strings that look like delimiters
	original := map[string]any{
		"topic":   "Trade, }",
		"score":   float64(42),
		"claims":  []any{map[string]any{"claim": "Tariffs rose, [then] fell."}},
		"nothing": nil,
	}
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	got := Extract(string(data))
	if !reflect.DeepEqual(got, original) {
		t.Errorf("Expected %v, got %v", original, got)
	}
}

func TestExtract_MarkdownFences(t *testing.T) {
	text := "```json\n{\"topic\":\"Health\",\"claims\":[]}\n```"
	obj := Extract(text)
	if obj == nil {
		t.Fatal("Expected object, got nil")
	}
	if obj["topic"] != "Health" {
		t.Errorf("Expected topic 'Health', got %v", obj["topic"])
	}
}

func TestExtract_SurroundingProse(t *testing.T) {
	text := `Here is the analysis you asked for:

{"verdict":"True","confidence":0.9}

Let me know if you need more detail.`
	obj := Extract(text)
	if obj == nil {
		t.Fatal("Expected object, got nil")
	}
	if obj["verdict"] != "True" {
		t.Errorf("Expected verdict 'True', got %v", obj["verdict"])
	}
}

func TestExtract_MissingCommaBetweenObjects(t *testing.T) {
	text := `{"claims":[{"claim":"A"} {"claim":"B"}]}`
	obj := Extract(text)
	if obj == nil {
		t.Fatal("Expected object, got nil")
	}
	claims := AsSlice(obj["claims"])
	if len(claims) != 2 {
		t.Errorf("Expected 2 claims, got %d", len(claims))
	}
}

func TestExtract_TrailingCommas(t *testing.T) {
	text := `{"topic":"X","claims":[{"claim":"A"},],}`
	obj := Extract(text)
	if obj == nil {
		t.Fatal("Expected object, got nil")
	}
	if obj["topic"] != "X" {
		t.Errorf("Expected topic 'X', got %v", obj["topic"])
	}
}

func TestExtract_TruncatedMidArray(t *testing.T) {
	// The canonical truncation shape: output cut off before the closing
	// brackets of the array and root object
	text := `{"topic":"T","claims":[{"claim":"A","timestamp":"1:00","query":"q"}`
	obj := Extract(text)
	if obj == nil {
		t.Fatal("Expected repaired object, got nil")
	}
	if obj["topic"] != "T" {
		t.Errorf("Expected topic 'T', got %v", obj["topic"])
	}
	claims := AsSlice(obj["claims"])
	if len(claims) != 1 {
		t.Fatalf("Expected 1 claim, got %d", len(claims))
	}
	if AsString(AsObject(claims[0])["claim"]) != "A" {
		t.Errorf("Expected claim 'A', got %v", claims[0])
	}
}

func TestExtract_TruncatedMidElement(t *testing.T) {
	// Cut off inside the second element: the partial element is dropped,
	// the first survives
	text := `{"topic":"T","claims":[{"claim":"First claim","query":"q1"},{"claim":"Sec`
	obj := Extract(text)
	if obj == nil {
		t.Fatal("Expected repaired object, got nil")
	}
	claims := AsSlice(obj["claims"])
	if len(claims) < 1 {
		t.Fatal("Expected at least the first claim to survive")
	}
	first := AsObject(claims[0])
	if AsString(first["claim"]) != "First claim" {
		t.Errorf("Expected first claim intact, got %v", first["claim"])
	}
}

func TestExtract_UnescapedInnerQuote(t *testing.T) {
	text := `{"reasoning":"the study's so-called` + `"gold"standard was disputed","verdict":"False"}`
	obj := Extract(text)
	if obj == nil {
		t.Fatal("Expected object after quote repair, got nil")
	}
	if obj["verdict"] != "False" {
		t.Errorf("Expected verdict 'False', got %v", obj["verdict"])
	}
}

func TestExtract_TotalGarbage(t *testing.T) {
	if obj := Extract("no json here at all"); obj != nil {
		t.Errorf("Expected nil for non-JSON text, got %v", obj)
	}
	if obj := Extract(""); obj != nil {
		t.Errorf("Expected nil for empty text, got %v", obj)
	}
}

func TestSalvageStrings(t *testing.T) {
	text := `totally broken { "claim": "Water boils at 100C", junk "claim" : "The earth is round", {{{`
	values := SalvageStrings(text, "claim")
	if len(values) != 2 {
		t.Fatalf("Expected 2 salvaged values, got %d: %v", len(values), values)
	}
	if values[0] != "Water boils at 100C" {
		t.Errorf("Unexpected first value: %s", values[0])
	}
	if values[1] != "The earth is round" {
		t.Errorf("Unexpected second value: %s", values[1])
	}
}

func TestSalvageStrings_EscapedQuotes(t *testing.T) {
	text := `{"claim": "He said \"no comment\" twice"`
	values := SalvageStrings(text, "claim")
	if len(values) != 1 {
		t.Fatalf("Expected 1 salvaged value, got %d", len(values))
	}
	if values[0] != `He said "no comment" twice` {
		t.Errorf("Expected unescaped value, got %s", values[0])
	}
}

func TestSalvageStrings_NoMatches(t *testing.T) {
	if values := SalvageStrings("nothing useful", "claim"); len(values) != 0 {
		t.Errorf("Expected no values, got %v", values)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"fence without close", "```json\n{\"a\":1}", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.input); got != tt.want {
				t.Errorf("StripFences(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMissingClosers(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`{"a":[{"b":1}`, `]}`},
		{`{"a":1}`, ``},
		{`{"a":"unterminated`, `"}`},
		{`{"a":[[1,2`, `]]}`},
		{`{"a":"has } inside"`, `}`},
	}

	for _, tt := range tests {
		if got := missingClosers(tt.input); got != tt.want {
			t.Errorf("missingClosers(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestBalancedSlice(t *testing.T) {
	text := `prefix {"a":{"b":"}"}} suffix`
	got := balancedSlice(text)
	want := `{"a":{"b":"}"}}`
	if got != want {
		t.Errorf("balancedSlice = %q, want %q", got, want)
	}
}

func TestAsFloat_QuotedNumbers(t *testing.T) {
	if f, ok := AsFloat("0.85"); !ok || f != 0.85 {
		t.Errorf("Expected 0.85, got %v (ok=%v)", f, ok)
	}
	if f, ok := AsFloat(float64(0.5)); !ok || f != 0.5 {
		t.Errorf("Expected 0.5, got %v (ok=%v)", f, ok)
	}
	if _, ok := AsFloat(nil); ok {
		t.Error("Expected nil to not coerce")
	}
}
