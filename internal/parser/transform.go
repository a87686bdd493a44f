package parser

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/chriserin/stepwise/pkg/engine"
)

// ParsedFile is the Layer 2 model: runnable scenarios extracted from the
// AST.
type ParsedFile struct {
	Name      string
	Path      string
	Scenarios []engine.Scenario
	Errors    []ParseError
}

// Transform converts a Layer 1 Document into a Layer 2 ParsedFile. Each
// scenario starts with the Background steps and carries the union of the
// feature and scenario tags. An outline yields one scenario per Examples
// row, identified by the row's line and also tagged with its Examples tags.
func Transform(doc *Document, filename string, errors []ParseError) *ParsedFile {
	pf := &ParsedFile{
		Path:   filename,
		Errors: errors,
	}

	if doc.Feature == nil {
		pf.Name = filenameWithoutExt(filename)
		return pf
	}
	feature := doc.Feature
	pf.Name = feature.Header.Name

	var background []engine.StepRecord
	if feature.Background != nil {
		background = stepRecords(feature.Background.StepGroups)
	}

	scenario := func(name string, line int, tags []string, steps []engine.StepRecord) engine.Scenario {
		all := make([]engine.StepRecord, 0, len(background)+len(steps))
		all = append(all, background...)
		return engine.Scenario{
			FeaturePath: filename,
			Feature:     feature.Header.Name,
			Name:        name,
			Line:        line,
			Tags:        tags,
			Steps:       append(all, steps...),
		}
	}

	for _, sd := range feature.Scenarios {
		steps := stepRecords(sd.Scenario.StepGroups)
		if !sd.Outline && len(sd.Examples) == 0 {
			pf.Scenarios = append(pf.Scenarios, scenario(sd.Scenario.Name, sd.Line, unionTags(feature.Header.Tags, sd.Tags), steps))
			continue
		}

		for _, ex := range sd.Examples {
			if ex.Table == nil {
				continue
			}
			headers := ex.Table.HeaderRow
			if errs := unknownColumns(steps, headers); len(errs) > 0 {
				pf.Errors = append(pf.Errors, errs...)
				continue
			}
			tags := unionTags(feature.Header.Tags, sd.Tags, ex.Tags)
			for r, row := range ex.Table.Rows {
				name, _ := substitute(sd.Scenario.Name, headers, row)
				expanded := make([]engine.StepRecord, len(steps))
				for j, rec := range steps {
					expanded[j] = expandStep(rec, headers, row)
				}
				pf.Scenarios = append(pf.Scenarios, scenario(name, ex.Table.Lines[r+1], tags, expanded))
			}
		}
	}
	return pf
}

var outlinePlaceholder = regexp.MustCompile(`<(\w+)>`)

// substitute replaces each <name> in text with the value of the column
// called name. Names with no column are left in place and returned.
func substitute(text string, headers, row []string) (string, []string) {
	var missing []string
	out := outlinePlaceholder.ReplaceAllStringFunc(text, func(m string) string {
		name := m[1 : len(m)-1]
		if i := slices.Index(headers, name); i >= 0 {
			return row[i]
		}
		missing = append(missing, name)
		return m
	})
	return out, missing
}

// expandStep substitutes an examples row into the step text, its table
// cells and its doc string.
func expandStep(rec engine.StepRecord, headers, row []string) engine.StepRecord {
	rec.Text, _ = substitute(rec.Text, headers, row)
	if rec.DocString != nil {
		content, _ := substitute(*rec.DocString, headers, row)
		rec.DocString = &content
	}
	if rec.Table != nil {
		table := make([][]string, len(rec.Table))
		for i, cells := range rec.Table {
			table[i] = make([]string, len(cells))
			for j, cell := range cells {
				table[i][j], _ = substitute(cell, headers, row)
			}
		}
		rec.Table = table
	}
	return rec
}

// unknownColumns reports outline placeholders that name no Examples column.
func unknownColumns(steps []engine.StepRecord, headers []string) []ParseError {
	var errors []ParseError
	for _, rec := range steps {
		texts := []string{rec.Text}
		if rec.DocString != nil {
			texts = append(texts, *rec.DocString)
		}
		for _, cells := range rec.Table {
			texts = append(texts, cells...)
		}
		seen := make(map[string]bool)
		for _, text := range texts {
			_, missing := substitute(text, headers, headers)
			for _, name := range missing {
				if seen[name] {
					continue
				}
				seen[name] = true
				errors = append(errors, ParseError{
					Line:    rec.Line,
					Message: fmt.Sprintf("placeholder <%s> not found in Examples columns [%s]", name, strings.Join(headers, ", ")),
				})
			}
		}
	}
	return errors
}

// ParseFile reads and parses one feature file. Syntax problems are reported
// in ParsedFile.Errors; the error result is for I/O failures only.
func ParseFile(path string) (*ParsedFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading feature file: %w", err)
	}
	doc, errors := Parse(path, content)
	return Transform(doc, path, errors), nil
}

func stepRecords(groups []StepGroup) []engine.StepRecord {
	var out []engine.StepRecord
	for _, g := range groups {
		out = append(out, stepRecord(g.Step))
		for _, alt := range g.AltSteps {
			out = append(out, stepRecord(alt))
		}
	}
	return out
}

func stepRecord(s Step) engine.StepRecord {
	rec := engine.StepRecord{Keyword: s.Keyword, Text: s.Text, Line: s.Line}
	if s.Argument == nil {
		return rec
	}
	if ds := s.Argument.DocString; ds != nil {
		content := ds.Content
		rec.DocString = &content
	}
	if dt := s.Argument.DataTable; dt != nil {
		rec.Table = dt.AllRows()
	}
	return rec
}

func unionTags(lists ...[]Tag) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range lists {
		for _, t := range l {
			if !seen[t.Name] {
				seen[t.Name] = true
				out = append(out, t.Name)
			}
		}
	}
	return out
}
