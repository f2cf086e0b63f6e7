// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	ProbeFileNotFoundId Id = iota + 1
	ProbeFileParseErrorId
	UnknownCheckId
	InvalidProbeConfigId
	ContainerEngineNotFoundId
	ConfigLoadFailedId
	ProbeTimedOutId
	ProbeCountExceededId
	CheckFailedId
)

type (
	// Id identifies an issue in the catalog.
	Id int

	// MarkdownMsg is the markdown body of an issue.
	MarkdownMsg string

	// HttpLink is a documentation or external link.
	HttpLink string

	// Issue is a known failure mode with a rendered explanation and remedies.
	Issue struct {
		id       Id          // ID used to lookup the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink
		extLinks []HttpLink // external links that might be useful for the user
	}
)

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

// Render renders the issue as terminal markdown using the glamour style at
// stylePath (e.g. "dark", "light", "notty").
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range append(slices.Clone(i.docLinks), i.extLinks...) {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	probeFileNotFoundIssue = &Issue{
		id: ProbeFileNotFoundId,
		mdMsg: `
# Probe file not found!

The probe file passed with ` + "`--file`" + ` does not exist or cannot be read.

## Things you can try:
- Check the path and run the command again
- Write a minimal probe file:
~~~cue
probes: [
  {
    name:  "db"
    check: "tcp"
    args: address: "localhost:5432"
    timeout: "30s"
    expected_errors: ["connection-refused"]
  },
]
~~~`,
	}

	probeFileParseErrorIssue = &Issue{
		id: ProbeFileParseErrorId,
		mdMsg: `
# Failed to parse the probe file!

The probe file is not valid CUE or does not match the probe schema.

## Things you can try:
- Check the reported line and column
- Durations are strings such as ` + "`\"500ms\"`" + ` or ` + "`\"2m\"`" + `
- ` + "`count`" + ` and ` + "`timeout`" + ` accept ` + "`-1`" + ` / ` + "`\"unbounded\"`" + ` to disable the budget
- Validate the file with:
~~~
$ cue vet probes.cue
~~~`,
	}

	unknownCheckIssue = &Issue{
		id: UnknownCheckId,
		mdMsg: `
# Unknown check!

The probe names a check that is not built into this binary.

## Things you can try:
- List the available checks and error kinds:
~~~
$ conu probe checks
~~~`,
	}

	invalidProbeConfigIssue = &Issue{
		id: InvalidProbeConfigId,
		mdMsg: `
# Invalid probe configuration!

## Rules:
- ` + "`pause`" + ` must be positive
- ` + "`timeout`" + ` must be positive, or -1 for no time limit
- ` + "`count`" + ` must be positive, or -1 for no attempt limit
- every expected error must be a registered error kind (see ` + "`conu probe checks`" + `)`,
	}

	containerEngineNotFoundIssue = &Issue{
		id: ContainerEngineNotFoundId,
		mdMsg: `
# Container engine not found!

The container checks need Docker or Podman.

## Things you can try:
- Install Podman or Docker and make sure it is in your PATH
- Select the engine explicitly:
~~~
$ conu probe run --check container-state --arg container=web --arg engine=docker --expect '"running"'
~~~
- Or set it once in your config file:
~~~cue
container: engine: "podman"
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Things you can try:
- Check the syntax of your config file
- Print the effective configuration:
~~~
$ conu config show
~~~
- Remove the file to fall back to defaults`,
	}

	probeTimedOutIssue = &Issue{
		id: ProbeTimedOutId,
		mdMsg: `
# The probe timed out!

The condition did not hold before the timeout elapsed.

## Things you can try:
- Raise ` + "`--timeout`" + `, or pass ` + "`--timeout -1`" + ` to wait without a time limit
- Run with ` + "`--verbose`" + ` to see every attempt`,
	}

	probeCountExceededIssue = &Issue{
		id: ProbeCountExceededId,
		mdMsg: `
# The probe ran out of attempts!

Every allowed attempt ran without the expected result.

## Things you can try:
- Raise ` + "`--count`" + ` or increase ` + "`--pause`" + ` so attempts are spread further apart
- Run with ` + "`--verbose`" + ` to see what each attempt returned`,
	}

	checkFailedIssue = &Issue{
		id: CheckFailedId,
		mdMsg: `
# The check failed unexpectedly!

The check returned an error that was not listed as expected, so the probe
stopped right away.

## Things you can try:
- If the error only means "not ready yet", list its kind with ` + "`--expect-error`" + `
- List the registered error kinds:
~~~
$ conu probe checks
~~~`,
	}

	issues = map[Id]*Issue{
		probeFileNotFoundIssue.Id():       probeFileNotFoundIssue,
		probeFileParseErrorIssue.Id():     probeFileParseErrorIssue,
		unknownCheckIssue.Id():            unknownCheckIssue,
		invalidProbeConfigIssue.Id():      invalidProbeConfigIssue,
		containerEngineNotFoundIssue.Id(): containerEngineNotFoundIssue,
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		probeTimedOutIssue.Id():           probeTimedOutIssue,
		probeCountExceededIssue.Id():      probeCountExceededIssue,
		checkFailedIssue.Id():             checkFailedIssue,
	}
)

// Values returns every issue in the catalog ordered by Id.
func Values() []*Issue {
	catalog := maps.Clone(issues)
	values := make([]*Issue, 0, len(catalog))
	for _, is := range catalog {
		values = append(values, is)
	}
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return values
}

// Get returns the issue for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
