// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ManifestNotFoundId Id = iota + 1
	ManifestParseErrorId
	NoDefinitionsId
	ConfigLoadFailedId
	NotLoggedInId
	UploadFailedId
	CliVersionTooOldId
	DuplicatePathsId
	ReservedFieldId
	OutputWriteFailedId
	InvalidPatternId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty, because we need to have docs about all issue types
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	manifestNotFoundIssue = &Issue{
		id: ManifestNotFoundId,
		mdMsg: `
# No definition manifests found!

We scanned your project but couldn't find any exported definition manifests.

## What we look for:
- Files matching your include patterns (default: src/**/*.ts, src/**/*.tsx)
- An exported manifest listing your definition types, e.g.:
~~~ts
export type AmaContents = [Home, About, PageView];
~~~

## Things you can try:
- Check the include patterns in your ama.cue:
~~~cue
include: ["app/**/*.ts"]
~~~

- Make sure the manifest export is present and spelled correctly
- Run with verbose mode to see which files were scanned:
~~~
$ ama migrate --verbose
~~~`,
	}

	manifestParseErrorIssue = &Issue{
		id: ManifestParseErrorId,
		mdMsg: `
# Failed to read a definition file!

One of your definition files could not be converted into a schema.

## Common causes:
- Syntax errors in the source file
- A definition that references types we cannot resolve
- A stale or missing sidecar schema document

## Things you can try:
- Check the error message above for the specific file
- Re-generate sidecar schemas if your project uses them
- Skip the failing file and keep going:
~~~
$ ama migrate --continue-on-error
~~~`,
	}

	noDefinitionsIssue = &Issue{
		id: NoDefinitionsId,
		mdMsg: `
# No definitions produced!

Every scanned file was processed, but the migration produced zero definitions.
Uploading an empty document would wipe your remote content, so we stopped.

## Things you can try:
- Verify your definitions carry a path:
~~~ts
export type Home = {
  path: '/home.json';
  structure: { title: string };
};
~~~

- Widen the include patterns in ama.cue
- List what the scan matched:
~~~
$ ama migrate --dry-run --verbose
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the ama project configuration.

## Configuration file locations:
- Project: ./ama.cue
- Session: ~/.config/ama/session.toml (Linux), ~/Library/Application Support/ama/session.toml (macOS)

## Things you can try:
- Create a default configuration:
~~~
$ ama config init
~~~

- Check the configuration syntax
- Remove the config file to use defaults:
~~~
$ rm ./ama.cue
~~~

## Example configuration:
~~~cue
description: "My project content"
include: ["src/**/*.ts", "src/**/*.tsx"]

args: {
  locale: "en"
}
~~~`,
	}

	notLoggedInIssue = &Issue{
		id: NotLoggedInId,
		mdMsg: `
# Not logged in!

This operation talks to the AtMyApp platform, but no session was found.

## Things you can try:
- Store your project token:
~~~
$ ama use <project-url> --token <access-token>
~~~

- Or pass the token for a single run:
~~~
$ ama upload --token <access-token>
~~~`,
	}

	uploadFailedIssue = &Issue{
		id: UploadFailedId,
		mdMsg: `
# Upload failed!

The definitions document could not be pushed to the platform.

## Common causes:
- Expired or revoked access token
- Network problems between you and the API
- The project URL in your session is wrong

## Things you can try:
- Refresh your session:
~~~
$ ama use <project-url> --token <new-token>
~~~

- Run with verbose mode to see the request details:
~~~
$ ama upload --verbose
~~~`,
	}

	cliVersionTooOldIssue = &Issue{
		id: CliVersionTooOldId,
		mdMsg: `
# CLI version too old!

The platform requires a newer version of the ama CLI than the one installed.

## Things you can try:
- Upgrade to the latest release:
~~~
$ npm install -g @atmyapp/cli
~~~

- Or download a binary from the releases page and replace the old one`,
	}

	duplicatePathsIssue = &Issue{
		id: DuplicatePathsId,
		mdMsg: `
# Duplicate definition paths!

Two or more definitions resolve to the same output path. Only one of them
would survive the upload, so all copies were flagged.

## Things you can try:
- Give each definition a unique path:
~~~ts
path: '/blog/post-1.json';
~~~

- Check for files that were copied and never renamed
- Run with verbose mode to see which files declare each path`,
	}

	reservedFieldIssue = &Issue{
		id: ReservedFieldId,
		mdMsg: `
# Reserved collection field!

A collection row type declares a field the platform manages for you.

## Reserved fields:
- id
- created_at

## Things you can try:
- Rename the conflicting field in your row type:
~~~ts
type Row = {
  slug: string;   // instead of id
};
~~~`,
	}

	outputWriteFailedIssue = &Issue{
		id: OutputWriteFailedId,
		mdMsg: `
# Failed to write output!

The generated definitions document could not be written to disk.

## Common causes:
- The target directory is read-only
- The disk is full
- Another process holds a lock on the file

## Things you can try:
- Check permissions on the .ama directory
- Write to a different location:
~~~
$ ama migrate --out ./definitions.json
~~~`,
	}

	invalidPatternIssue = &Issue{
		id: InvalidPatternId,
		mdMsg: `
# Invalid include pattern!

One of the glob patterns in your configuration could not be compiled.

## Pattern syntax:
- ` + "`*`" + ` matches anything except a path separator
- ` + "`**`" + ` matches across directories
- ` + "`{a,b}`" + ` matches alternatives

## Things you can try:
- Fix the pattern in ama.cue:
~~~cue
include: ["src/**/*.ts"]
~~~

- Quote patterns on the command line so your shell doesn't expand them:
~~~
$ ama migrate --include 'src/**/*.tsx'
~~~`,
	}

	issues = map[Id]*Issue{
		manifestNotFoundIssue.Id():   manifestNotFoundIssue,
		manifestParseErrorIssue.Id(): manifestParseErrorIssue,
		noDefinitionsIssue.Id():      noDefinitionsIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		notLoggedInIssue.Id():        notLoggedInIssue,
		uploadFailedIssue.Id():       uploadFailedIssue,
		cliVersionTooOldIssue.Id():   cliVersionTooOldIssue,
		duplicatePathsIssue.Id():     duplicatePathsIssue,
		reservedFieldIssue.Id():      reservedFieldIssue,
		outputWriteFailedIssue.Id():  outputWriteFailedIssue,
		invalidPatternIssue.Id():     invalidPatternIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
