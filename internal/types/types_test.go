package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseMode_KnownModes(t *testing.T) {
	for _, m := range AllModes() {
		got, err := ParseMode(string(m))
		if err != nil {
			t.Fatalf("ParseMode(%q) error: %v", m, err)
		}
		if got != m {
			t.Errorf("ParseMode(%q) = %q", m, got)
		}
	}
}

func TestParseMode_PythonAlias(t *testing.T) {
	got, err := ParseMode("Python")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ModeTechnicalScript {
		t.Errorf("got %q, want %q", got, ModeTechnicalScript)
	}
}

func TestParseMode_Unknown(t *testing.T) {
	if _, err := ParseMode("poetry"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestIdea_CamelCaseKeys(t *testing.T) {
	idea := Idea{
		ID:                     "business-1-0",
		Category:               "Retail",
		Title:                  "Shelf Scanner",
		Description:            "desc",
		MoneyValue:             "High",
		EffortValue:            "Medium",
		MonetizationStrategies: "SaaS",
		RefinedPrompt:          "R.C.T.F.M",
	}

	data, err := json.Marshal(idea)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	jsonStr := string(data)
	for _, key := range []string{`"moneyValue"`, `"effortValue"`, `"monetizationStrategies"`, `"refinedPrompt"`} {
		if !strings.Contains(jsonStr, key) {
			t.Errorf("expected key %s in %s", key, jsonStr)
		}
	}
	if strings.Contains(jsonStr, `"thought"`) {
		t.Errorf("empty thought should be omitted: %s", jsonStr)
	}
	if strings.Contains(jsonStr, `"createdAt"`) {
		t.Errorf("nil createdAt should be omitted: %s", jsonStr)
	}
}

func TestIdea_SetIgnoresUnknownField(t *testing.T) {
	var idea Idea
	idea.Set(FieldTitle, "T")
	idea.Set("tags", "ignored")

	if idea.Title != "T" {
		t.Errorf("Title = %q", idea.Title)
	}
	if idea.Complete() {
		t.Error("idea without description should not be complete")
	}
}

func TestSaveResult_NilSavedMarshalsAsArray(t *testing.T) {
	data, err := json.Marshal(SaveResult{DuplicatesCount: 2, TotalProcessed: 2})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"saved":[]`) {
		t.Errorf("expected saved:[] in %s", data)
	}
}

func TestIdeaList_NilIdeasMarshalAsArray(t *testing.T) {
	data, err := json.Marshal(IdeaList{})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"ideas":[]}` {
		t.Errorf("got %s", data)
	}
}
