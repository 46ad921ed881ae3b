// SPDX-License-Identifier: MPL-2.0

package tsdecl

import (
	"reflect"
	"testing"
)

func TestManifestTypes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "single line",
			src:  `export type AmaContents = [HomePage, AboutPage, PageViewEvent];`,
			want: []string{"HomePage", "AboutPage", "PageViewEvent"},
		},
		{
			name: "multiline with trailing comma",
			src: `import { HomePage } from "./pages";

export type AmaContents = [
  HomePage,
  AboutPage,
];
`,
			want: []string{"HomePage", "AboutPage"},
		},
		{
			name: "typeof entries",
			src:  `export type AmaContents = [typeof HomePage, AboutPage];`,
			want: []string{"HomePage", "AboutPage"},
		},
		{
			name: "generic entries keep the head name",
			src:  `export type AmaContents = [Page<Locale>, Post<Locale, Slug>];`,
			want: []string{"Page", "Post"},
		},
		{
			name: "qualified names stay whole",
			src:  `export type AmaContents = [pages.Home, pages.About];`,
			want: []string{"pages.Home", "pages.About"},
		},
		{
			name: "comments inside the tuple",
			src: `export type AmaContents = [
  HomePage, // landing
  /* ] not a close */ AboutPage,
];`,
			want: []string{"HomePage", "AboutPage"},
		},
		{
			name: "declare variant",
			src:  `export declare type AmaContents = [HomePage];`,
			want: []string{"HomePage"},
		},
		{
			name: "no spaces around equals",
			src:  `export type AmaContents=[HomePage];`,
			want: []string{"HomePage"},
		},
		{
			name: "empty tuple",
			src:  `export type AmaContents = [];`,
			want: nil,
		},
		{
			name: "no manifest",
			src:  `export type Routes = [Home, About];`,
			want: nil,
		},
		{
			name: "similarly named type does not match",
			src:  `export type AmaContentsDraft = [HomePage];`,
			want: nil,
		},
		{
			name: "unterminated tuple",
			src:  `export type AmaContents = [HomePage, AboutPage`,
			want: nil,
		},
		{
			name: "not a tuple",
			src:  `export type AmaContents = HomePage;`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ManifestTypes([]byte(tt.src))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ManifestTypes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestManifestTypes_FirstDeclarationWins(t *testing.T) {
	src := `export type AmaContents = [First];
export type AmaContents = [Second];`

	got := ManifestTypes([]byte(src))
	want := []string{"First"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ManifestTypes() = %v, want %v", got, want)
	}
}

func TestManifestTypes_NestedBracketsInEntries(t *testing.T) {
	src := `export type AmaContents = [WithTuple<[string, number]>, Plain];`

	got := ManifestTypes([]byte(src))
	want := []string{"WithTuple", "Plain"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ManifestTypes() = %v, want %v", got, want)
	}
}

func TestEventDecls(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []EventDecl
	}{
		{
			name: "double quoted with columns",
			src:  `type PageView = AmaEventDef<"page_view", ["timestamp", "url"]>;`,
			want: []EventDecl{{Name: "PageView", ID: "page_view", Columns: []string{"timestamp", "url"}}},
		},
		{
			name: "single quoted",
			src:  `type Click = AmaEventDef<'click', ['target']>;`,
			want: []EventDecl{{Name: "Click", ID: "click", Columns: []string{"target"}}},
		},
		{
			name: "no columns",
			src:  `type Ping = AmaEventDef<"ping">;`,
			want: []EventDecl{{Name: "Ping", ID: "ping"}},
		},
		{
			name: "exported alias",
			src:  `export type PageView = AmaEventDef<"page_view", ["ts"]>;`,
			want: []EventDecl{{Name: "PageView", ID: "page_view", Columns: []string{"ts"}}},
		},
		{
			name: "literal outside a type declaration has no name",
			src:  `const tracker = track<AmaEventDef<"inline", ["a"]>>();`,
			want: []EventDecl{{ID: "inline", Columns: []string{"a"}}},
		},
		{
			name: "multiline declaration",
			src: `type PageView = AmaEventDef<
  "page_view",
  ["timestamp", "url", "referrer"]
>;`,
			want: []EventDecl{{Name: "PageView", ID: "page_view", Columns: []string{"timestamp", "url", "referrer"}}},
		},
		{
			name: "multiple declarations in source order",
			src: `type A = AmaEventDef<"first", ["a"]>;
type B = AmaEventDef<"second", ["b", "c"]>;`,
			want: []EventDecl{
				{Name: "A", ID: "first", Columns: []string{"a"}},
				{Name: "B", ID: "second", Columns: []string{"b", "c"}},
			},
		},
		{
			name: "empty id skipped",
			src:  `type Bad = AmaEventDef<"", ["a"]>;`,
			want: nil,
		},
		{
			name: "non literal id skipped",
			src:  `type Bad = AmaEventDef<EventID, ["a"]>;`,
			want: nil,
		},
		{
			name: "no declarations",
			src:  `const x = 1;`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EventDecls([]byte(tt.src))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("EventDecls() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasMarker(t *testing.T) {
	tests := []struct {
		name         string
		src          string
		wantManifest bool
		wantMdx      bool
	}{
		{
			name:         "manifest export",
			src:          `export type AmaContents = [HomePage];`,
			wantManifest: true,
			wantMdx:      false,
		},
		{
			name:         "mdx config",
			src:          `export const mdx: AmaMdxConfig = { components: {} };`,
			wantManifest: false,
			wantMdx:      true,
		},
		{
			name:         "marker in a comment still matches",
			src:          `// see AmaContents in pages.ts`,
			wantManifest: true,
			wantMdx:      false,
		},
		{
			name:         "unrelated source",
			src:          `export const routes = ["/home"];`,
			wantManifest: false,
			wantMdx:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := []byte(tt.src)
			if got := HasManifestMarker(src); got != tt.wantManifest {
				t.Errorf("HasManifestMarker() = %v, want %v", got, tt.wantManifest)
			}
			if got := HasMdxMarker(src); got != tt.wantMdx {
				t.Errorf("HasMdxMarker() = %v, want %v", got, tt.wantMdx)
			}
			if got := HasMarker(src); got != (tt.wantManifest || tt.wantMdx) {
				t.Errorf("HasMarker() = %v, want %v", got, tt.wantManifest || tt.wantMdx)
			}
		})
	}
}
