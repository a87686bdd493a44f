package parser

// Layer 1: Gherkin-shaped AST types

type Document struct {
	Feature *Feature
}

type Feature struct {
	Header     FeatureHeader
	Background *Background
	Scenarios  []ScenarioDefinition
}

type FeatureHeader struct {
	Tags        []Tag
	Name        string
	Description string
}

type Background struct {
	Description string
	StepGroups  []StepGroup
	Line        int // 1-based line number of Background: line
}

type ScenarioDefinition struct {
	Tags     []Tag
	Scenario Scenario
	Line     int  // 1-based line number of Scenario: line
	Outline  bool // Scenario Outline: or Scenario Template:
	Examples []Examples
}

// Examples is one Examples block of an outline. Each body row of its table
// becomes a scenario.
type Examples struct {
	Tags  []Tag
	Name  string
	Table *DataTable
	Line  int // 1-based line number of Examples: line
}

type Scenario struct {
	Name        string
	Description string
	StepGroups  []StepGroup
}

type Tag struct {
	Name string // e.g. "@smoke", "@issue:42"
}

// StepGroup is a primary step followed by its conjunctions. A group that
// starts with a conjunction has no primary step before it.
type StepGroup struct {
	Step     Step
	AltSteps []Step // And, But, *
}

type Step struct {
	Keyword  string // Given, When, Then, And, But, *
	Text     string
	Argument *StepArgument
	Line     int // 1-based
}

type StepArgument struct {
	DocString *DocString
	DataTable *DataTable
}

type DocString struct {
	MediaType string
	Content   string
}

type DataTable struct {
	HeaderRow []string
	Rows      [][]string
	Lines     []int // 1-based line of each row, header first
}

// AllRows returns the header row followed by the body rows.
func (t *DataTable) AllRows() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.HeaderRow)
	return append(out, t.Rows...)
}

type ParseError struct {
	Line    int
	Message string
}
