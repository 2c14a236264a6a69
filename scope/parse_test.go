package scope

import "testing"

func TestExtractJSONHandlesFencedAndBareObjects(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"fenced json", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced bare", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding prose", "Sure thing!\n{\"a\":1}\nHope that helps.", `{"a":1}`},
		{"nested braces", `{"a":{"b":1}}`, `{"a":{"b":1}}`},
		{"brace inside string", `{"a":"} not a close"}`, `{"a":"} not a close"}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := extractJSON(c.in); got != c.want {
				t.Errorf("extractJSON(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestParseScopeRequiresMandatoryFields(t *testing.T) {
	if _, ok := parseScope(`{"goal":"missing project"}`); ok {
		t.Error("parseScope() ok = true for a payload missing project")
	}
	if _, ok := parseScope("no json here"); ok {
		t.Error("parseScope() ok = true for unparsable text")
	}
}

func TestParseScopeDefaultsTechStack(t *testing.T) {
	s, ok := parseScope(`{"project":"P","goal":"G"}`)
	if !ok {
		t.Fatal("parseScope() ok = false, want true")
	}
	if s.TechStack["frontend"] == "" {
		t.Error("expected default tech stack to be filled in when absent")
	}
}

func TestParseScopeCarriesUnknownFieldsIntoExtra(t *testing.T) {
	s, ok := parseScope(`{"project":"P","goal":"G","notes":"ship fast","budget":5000}`)
	if !ok {
		t.Fatal("parseScope() ok = false, want true")
	}
	if s.Extra["notes"] != "ship fast" {
		t.Errorf("Extra[\"notes\"] = %v, want %q", s.Extra["notes"], "ship fast")
	}
	if s.Extra["budget"] != float64(5000) {
		t.Errorf("Extra[\"budget\"] = %v, want 5000", s.Extra["budget"])
	}
	if _, ok := s.Extra["project"]; ok {
		t.Error("Extra should not duplicate known fields")
	}
}
