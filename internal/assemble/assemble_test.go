// SPDX-License-Identifier: MPL-2.0

package assemble

import (
	"io"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/atmyapp/ama/internal/normalize"
	"github.com/atmyapp/ama/internal/pipeline"
	"github.com/atmyapp/ama/internal/transform"
	"github.com/atmyapp/ama/pkg/amadef"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newAssembler() *Assembler {
	return New(pipeline.New(), nil, testLogger())
}

func pageStructure() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{"type": "string"},
		},
	}
}

func blogMdxConfig() amadef.MdxConfig {
	return amadef.MdxConfig{
		Components: map[string]amadef.MdxComponent{
			"Callout": {Props: map[string]string{"tone": "string"}},
		},
	}
}

func TestGenerateOutput_ThreeWaySplit(t *testing.T) {
	contents := []amadef.Content{
		{Path: `pages\home.json`, Structure: pageStructure()},
		normalize.EventContent("page_view", []string{"page", "user_id"}),
		amadef.NewMdxContent("blog", blogMdxConfig()),
		{Path: "assets/hero.png", Structure: map[string]any{"type": "object"}},
	}

	out := newAssembler().GenerateOutput(contents, nil)

	if len(out.Definitions) != 2 {
		t.Fatalf("got %d definitions, want 2: %v", len(out.Definitions), out.Definitions)
	}
	home, ok := out.Definitions["pages/home.json"]
	if !ok {
		t.Fatal("pages/home.json missing, want backslash path normalized")
	}
	if home.Type != amadef.TypeJSONX {
		t.Errorf("home.Type = %q, want %q", home.Type, amadef.TypeJSONX)
	}
	if hero := out.Definitions["assets/hero.png"]; hero.Type != amadef.TypeImage {
		t.Errorf("hero.Type = %q, want %q", hero.Type, amadef.TypeImage)
	}

	event, ok := out.Events["page_view"]
	if !ok {
		t.Fatal("page_view missing from events")
	}
	if !reflect.DeepEqual(event.Columns, []string{"page", "user_id"}) {
		t.Errorf("page_view.Columns = %v", event.Columns)
	}

	if !reflect.DeepEqual(out.Mdx["blog"], blogMdxConfig()) {
		t.Errorf("Mdx[blog] = %#v", out.Mdx["blog"])
	}

	if out.Description != amadef.DefaultDescription {
		t.Errorf("Description = %q, want default", out.Description)
	}
	if out.Metadata["totalDefinitions"] != 2 || out.Metadata["totalEvents"] != 1 {
		t.Errorf("metadata counts = %v/%v, want 2/1",
			out.Metadata["totalDefinitions"], out.Metadata["totalEvents"])
	}
	if out.Metadata["version"] != pipeline.OutputVersion {
		t.Errorf("metadata version = %v", out.Metadata["version"])
	}
	if out.Args == nil || len(out.Args) != 0 {
		t.Errorf("Args = %#v, want allocated and empty", out.Args)
	}
}

func TestGenerateOutput_FoldsConstants(t *testing.T) {
	structure := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"hero": map[string]any{
				"type": "object",
				"properties": map[string]any{
					amadef.MarkerKey: map[string]any{"const": amadef.MarkerImage},
					amadef.ConfigKey: map[string]any{
						"type": "object",
						"properties": map[string]any{
							"alt": map[string]any{"const": "Hero image"},
						},
					},
				},
			},
		},
	}

	out := newAssembler().GenerateOutput([]amadef.Content{{Path: "pages/home.json", Structure: structure}}, nil)

	got := amadef.Property(out.Definitions["pages/home.json"].Structure, "hero")
	want := map[string]any{
		amadef.MarkerKey: amadef.MarkerImage,
		"config":         map[string]any{"alt": "Hero image"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("hero = %#v, want folded to %#v", got, want)
	}
}

func TestGenerateOutput_ConvertsCollections(t *testing.T) {
	structure := map[string]any{
		"type": "object",
		"properties": map[string]any{
			amadef.RowTypeKey: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title": map[string]any{"type": "string"},
				},
			},
		},
	}

	out := newAssembler().GenerateOutput([]amadef.Content{{Path: "data/posts.json", Structure: structure}}, nil)

	entry := out.Definitions["data/posts.json"]
	if entry.Type != amadef.TypeCollection {
		t.Fatalf("Type = %q, want %q", entry.Type, amadef.TypeCollection)
	}
	if _, ok := entry.Structure["fields"]; !ok {
		t.Errorf("Structure = %#v, want converted field map", entry.Structure)
	}
}

func TestGenerateOutput_FailedCollectionKeepsRecord(t *testing.T) {
	structure := map[string]any{
		"type": "object",
		"properties": map[string]any{
			amadef.RowTypeKey: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{"type": "string"},
				},
			},
		},
	}

	out := newAssembler().GenerateOutput([]amadef.Content{{Path: "data/posts.json", Structure: structure}}, nil)

	entry, ok := out.Definitions["data/posts.json"]
	if !ok {
		t.Fatal("record missing, want kept despite failed conversion")
	}
	if entry.Type != amadef.TypeJSONX {
		t.Errorf("Type = %q, want %q", entry.Type, amadef.TypeJSONX)
	}
	if !transform.HasRowType(entry.Structure) {
		t.Error("structure lost its row type, want original kept")
	}
}

func TestGenerateOutput_DropsUnresolvableEvent(t *testing.T) {
	contents := []amadef.Content{
		{Path: "broken_event", Structure: map[string]any{"type": "event"}},
		normalize.EventContent("works", []string{"a"}),
	}

	out := newAssembler().GenerateOutput(contents, nil)

	if len(out.Events) != 1 {
		t.Fatalf("events = %v, want only the resolvable one", out.Events)
	}
	if _, ok := out.Events["works"]; !ok {
		t.Error("works missing from events")
	}
	if len(out.Definitions) != 0 {
		t.Errorf("definitions = %v, want empty", out.Definitions)
	}
}

func TestGenerateOutput_ReDerivesClassification(t *testing.T) {
	p := pipeline.New()
	p.RegisterBuiltins()
	p.AddProcessor("type-clearer", func(pctx *pipeline.Context, c *amadef.Content) (*amadef.Content, error) {
		c.Type = ""
		return c, nil
	})

	contents := []amadef.Content{
		normalize.EventContent("page_view", []string{"page"}),
		{Path: "pages/home.json", Structure: pageStructure()},
	}
	out := New(p, nil, testLogger()).GenerateOutput(contents, nil)

	if _, ok := out.Events["page_view"]; !ok {
		t.Error("page_view missing, want classification re-derived from structure")
	}
	if entry := out.Definitions["pages/home.json"]; entry.Type != amadef.TypeJSONX {
		t.Errorf("home.Type = %q, want re-derived %q", entry.Type, amadef.TypeJSONX)
	}
}

func TestGenerateOutput_DuplicatePathsExcluded(t *testing.T) {
	contents := []amadef.Content{
		{Path: "dup.json", Structure: pageStructure()},
		{Path: "dup.json", Structure: pageStructure()},
	}

	out := newAssembler().GenerateOutput(contents, nil)

	if len(out.Definitions) != 0 {
		t.Errorf("definitions = %v, want both duplicates excluded", out.Definitions)
	}
}

func TestGenerateOutput_ConfigDescriptionAndArgs(t *testing.T) {
	cfg := &pipeline.RunConfig{
		Description: "Site content",
		Args:        map[string]any{"env": "prod"},
	}

	out := newAssembler().GenerateOutput(nil, cfg)

	if out.Description != "Site content" {
		t.Errorf("Description = %q", out.Description)
	}
	if out.Args["env"] != "prod" {
		t.Errorf("Args = %#v", out.Args)
	}
}

func TestGenerateOutput_NeverPanics(t *testing.T) {
	rules := transform.NewRuleSet()
	rules.Add(transform.Rule{
		Name: "exploder",
		When: func(node map[string]any) bool {
			_, ok := node["boom"]
			return ok
		},
		Transform: func(node map[string]any) any {
			panic("rule exploded")
		},
	})

	contents := []amadef.Content{
		{Path: "ok.json", Structure: pageStructure()},
		{Path: "bad.json", Structure: map[string]any{"boom": true}},
	}

	out := New(pipeline.New(), rules, testLogger()).GenerateOutput(contents, nil)

	if out == nil {
		t.Fatal("GenerateOutput() = nil, want partial document")
	}
	if _, ok := out.Definitions["ok.json"]; !ok {
		t.Errorf("definitions = %v, want the record assembled before the panic", out.Definitions)
	}
}

func TestGenerateOutput_DefaultPipeline(t *testing.T) {
	t.Cleanup(pipeline.Default().Reset)

	out := New(nil, nil, testLogger()).GenerateOutput([]amadef.Content{
		{Path: "pages/home.json", Structure: pageStructure()},
	}, nil)

	if len(out.Definitions) != 1 {
		t.Errorf("definitions = %v, want one record through the default pipeline", out.Definitions)
	}
}

func TestGenerateOutput_EmptyInput(t *testing.T) {
	out := newAssembler().GenerateOutput([]amadef.Content{}, nil)

	if len(out.Definitions) != 0 || len(out.Events) != 0 {
		t.Errorf("definitions/events = %v/%v, want both empty", out.Definitions, out.Events)
	}
	if out.Description != amadef.DefaultDescription {
		t.Errorf("Description = %q, want %q", out.Description, amadef.DefaultDescription)
	}
	if out.Metadata["totalDefinitions"] != 0 {
		t.Errorf("metadata.totalDefinitions = %v, want 0", out.Metadata["totalDefinitions"])
	}
}
