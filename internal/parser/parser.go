package parser

import (
	"fmt"
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`@[^@\s]+`)

var stepKeywords = []string{"Given", "When", "Then", "And", "But", "*"}

// Parse parses a .feature file and returns a Document AST and any parse
// errors.
func Parse(filename string, content []byte) (*Document, []ParseError) {
	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
	var errors []ParseError

	doc := &Document{}
	feature := &Feature{}
	doc.Feature = feature

	i := 0

	// Skip leading blanks and comments
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			i++
			continue
		}
		break
	}

	// Collect feature-level tags
	var featureTags []Tag
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if isTagLine(trimmed) {
			featureTags = append(featureTags, parseTags(trimmed)...)
			i++
			continue
		}
		break
	}
	feature.Header.Tags = featureTags

	if i < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[i]), "Feature:") {
		feature.Header.Name = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[i]), "Feature:"))
		i++

		// Scan description lines until keyword or tag
		var descLines []string
		for i < len(lines) {
			trimmed := strings.TrimSpace(lines[i])
			if isKeyword(trimmed) || isTagLine(trimmed) {
				break
			}
			if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
				descLines = append(descLines, trimmed)
			}
			i++
		}
		feature.Header.Description = strings.Join(descLines, "\n")
	} else {
		// No Feature: line, use filename without extension
		feature.Header.Name = filenameWithoutExt(filename)
	}

	// Body loop
	var pendingTags []Tag
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])

		switch {
		case trimmed == "" || strings.HasPrefix(trimmed, "#"):
			i++

		case isDocStringDelimiter(trimmed):
			errors = append(errors, ParseError{Line: i + 1, Message: "doc string outside of a scenario"})
			_, i, _ = parseDocString(lines, i)

		case isTagLine(trimmed):
			pendingTags = append(pendingTags, parseTags(trimmed)...)
			i++

		case strings.HasPrefix(trimmed, "Background:"):
			if len(pendingTags) > 0 {
				errors = append(errors, ParseError{Line: i + 1, Message: "Background cannot be tagged"})
				pendingTags = nil
			}
			if feature.Background != nil {
				errors = append(errors, ParseError{Line: i + 1, Message: "only one Background is allowed"})
			}
			if len(feature.Scenarios) > 0 {
				errors = append(errors, ParseError{Line: i + 1, Message: "Background must come before the first Scenario"})
			}
			bg := &Background{Line: i + 1}
			var blockErrs []ParseError
			bg.Description, bg.StepGroups, i, blockErrs = parseBlock(lines, i+1)
			errors = append(errors, blockErrs...)
			feature.Background = bg

		case strings.HasPrefix(trimmed, "Scenario:") || strings.HasPrefix(trimmed, "Example:") ||
			strings.HasPrefix(trimmed, "Scenario Outline:") || strings.HasPrefix(trimmed, "Scenario Template:"):
			name := strings.TrimSpace(trimmed[strings.Index(trimmed, ":")+1:])
			sd := ScenarioDefinition{
				Tags:     pendingTags,
				Scenario: Scenario{Name: name},
				Line:     i + 1,
				Outline:  strings.HasPrefix(trimmed, "Scenario Outline:") || strings.HasPrefix(trimmed, "Scenario Template:"),
			}
			pendingTags = nil
			var blockErrs []ParseError
			sd.Scenario.Description, sd.Scenario.StepGroups, i, blockErrs = parseBlock(lines, i+1)
			errors = append(errors, blockErrs...)
			feature.Scenarios = append(feature.Scenarios, sd)

		case strings.HasPrefix(trimmed, "Examples:") || strings.HasPrefix(trimmed, "Scenarios:"):
			ex := Examples{
				Tags: pendingTags,
				Name: strings.TrimSpace(trimmed[strings.Index(trimmed, ":")+1:]),
				Line: i + 1,
			}
			pendingTags = nil
			var exErrs []ParseError
			ex.Table, i, exErrs = parseExamples(lines, i+1)
			errors = append(errors, exErrs...)
			if n := len(feature.Scenarios); n > 0 {
				sd := &feature.Scenarios[n-1]
				sd.Examples = append(sd.Examples, ex)
			} else {
				errors = append(errors, ParseError{Line: ex.Line, Message: "Examples must follow a Scenario Outline"})
			}

		// Unsupported keywords
		case strings.HasPrefix(trimmed, "Rule:"):
			errors = append(errors, ParseError{Line: i + 1, Message: "Rule is not supported"})
			pendingTags = nil
			i = consumeBlock(lines, i+1)

		case strings.HasPrefix(trimmed, "Feature:"):
			errors = append(errors, ParseError{Line: i + 1, Message: "only one Feature is allowed per file"})
			i++

		default:
			errors = append(errors, ParseError{Line: i + 1, Message: fmt.Sprintf("unexpected line %q outside of a scenario", trimmed)})
			i++
		}
	}

	for _, sd := range feature.Scenarios {
		if sd.Outline && len(sd.Examples) == 0 {
			errors = append(errors, ParseError{Line: sd.Line, Message: fmt.Sprintf("Scenario Outline %q has no Examples", sd.Scenario.Name)})
		}
	}

	return doc, errors
}

// parseExamples reads the description and table of an Examples block. i
// points at the line after the Examples: line.
func parseExamples(lines []string, i int) (*DataTable, int, []ParseError) {
	keywordLine := i
	var errors []ParseError
	var table *DataTable

	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if isKeyword(trimmed) {
			break
		}

		switch {
		case trimmed == "" || strings.HasPrefix(trimmed, "#"):
			i++

		case isTagLine(trimmed):
			if tagPrecedesKeyword(lines, i) {
				return table, i, errors
			}
			errors = append(errors, ParseError{Line: i + 1, Message: "tags must precede a Scenario or Examples"})
			i++

		case strings.HasPrefix(trimmed, "|"):
			if table != nil {
				errors = append(errors, ParseError{Line: i + 1, Message: "Examples can have only one table"})
				_, i, _ = parseTable(lines, i)
				continue
			}
			var tableErrs []ParseError
			table, i, tableErrs = parseTable(lines, i)
			errors = append(errors, tableErrs...)

		case table == nil:
			// description
			i++

		default:
			errors = append(errors, ParseError{Line: i + 1, Message: fmt.Sprintf("unexpected line %q after an Examples table", trimmed)})
			i++
		}
	}

	if table == nil {
		errors = append(errors, ParseError{Line: keywordLine, Message: "Examples has no table"})
	}
	return table, i, errors
}

// parseBlock reads the description and steps of a Background or Scenario.
// i points at the line after the block's keyword line; the returned index is
// the first line of the next block.
func parseBlock(lines []string, i int) (string, []StepGroup, int, []ParseError) {
	var errors []ParseError
	var descLines []string
	var groups []StepGroup

	attach := func(line int, arg *StepArgument) {
		s := lastStep(groups)
		switch {
		case s == nil:
			errors = append(errors, ParseError{Line: line, Message: "step argument must follow a step"})
		case s.Argument != nil:
			errors = append(errors, ParseError{Line: line, Message: "a step can have only one doc string or data table"})
		default:
			s.Argument = arg
		}
	}

	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if isKeyword(trimmed) {
			break
		}

		switch {
		case trimmed == "" || strings.HasPrefix(trimmed, "#"):
			i++

		case isTagLine(trimmed):
			if tagPrecedesKeyword(lines, i) {
				return strings.Join(descLines, "\n"), groups, i, errors
			}
			errors = append(errors, ParseError{Line: i + 1, Message: "tags must precede a Scenario"})
			i++

		case isDocStringDelimiter(trimmed):
			start := i + 1
			ds, next, err := parseDocString(lines, i)
			if err != nil {
				errors = append(errors, *err)
			} else {
				attach(start, &StepArgument{DocString: ds})
			}
			i = next

		case strings.HasPrefix(trimmed, "|"):
			start := i + 1
			table, next, tableErrs := parseTable(lines, i)
			errors = append(errors, tableErrs...)
			if table != nil {
				attach(start, &StepArgument{DataTable: table})
			}
			i = next

		default:
			keyword, text, ok := splitStep(trimmed)
			switch {
			case ok:
				s := Step{Keyword: keyword, Text: text, Line: i + 1}
				if isConjunction(keyword) && len(groups) > 0 {
					g := &groups[len(groups)-1]
					g.AltSteps = append(g.AltSteps, s)
				} else {
					groups = append(groups, StepGroup{Step: s})
				}
			case len(groups) == 0:
				descLines = append(descLines, trimmed)
			default:
				errors = append(errors, ParseError{Line: i + 1, Message: fmt.Sprintf("unexpected line %q: expected a step, data table or doc string", trimmed)})
			}
			i++
		}
	}
	return strings.Join(descLines, "\n"), groups, i, errors
}

func lastStep(groups []StepGroup) *Step {
	if len(groups) == 0 {
		return nil
	}
	g := &groups[len(groups)-1]
	if n := len(g.AltSteps); n > 0 {
		return &g.AltSteps[n-1]
	}
	return &g.Step
}

// splitStep splits "Given a user" into its keyword and text.
func splitStep(trimmed string) (string, string, bool) {
	for _, kw := range stepKeywords {
		rest, ok := strings.CutPrefix(trimmed, kw)
		if !ok {
			continue
		}
		if rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
			continue
		}
		return kw, strings.TrimSpace(rest), true
	}
	return "", "", false
}

func isConjunction(keyword string) bool {
	return keyword == "And" || keyword == "But" || keyword == "*"
}

// parseDocString reads a doc string. i points at the opening delimiter.
// Content lines lose the delimiter's indentation and escaped delimiters are
// restored. Returns the index of the line after the closing delimiter.
func parseDocString(lines []string, i int) (*DocString, int, *ParseError) {
	start := i
	opener := lines[i]
	indent := len(opener) - len(strings.TrimLeft(opener, " \t"))
	trimmed := strings.TrimSpace(opener)

	delimiter := `"""`
	if strings.HasPrefix(trimmed, "```") {
		delimiter = "```"
	}
	escaped := strings.Repeat(`\`+delimiter[:1], 3)
	ds := &DocString{MediaType: strings.TrimSpace(strings.TrimPrefix(trimmed, delimiter))}

	i++ // move past opening delimiter
	var content []string
	for i < len(lines) {
		if strings.TrimSpace(lines[i]) == delimiter {
			ds.Content = strings.Join(content, "\n")
			return ds, i + 1, nil
		}
		line := unindent(lines[i], indent)
		content = append(content, strings.ReplaceAll(line, escaped, delimiter))
		i++
	}
	return nil, i, &ParseError{Line: start + 1, Message: "unterminated doc string"}
}

func unindent(line string, n int) string {
	j := 0
	for j < n && j < len(line) && (line[j] == ' ' || line[j] == '\t') {
		j++
	}
	return line[j:]
}

// parseTable reads consecutive table rows starting at i. Rows whose cell
// count differs from the first row are reported and dropped.
func parseTable(lines []string, i int) (*DataTable, int, []ParseError) {
	var errors []ParseError
	var rows [][]string
	var rowLines []int
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, "|") {
			break
		}
		cells, err := splitRow(trimmed)
		switch {
		case err != nil:
			errors = append(errors, ParseError{Line: i + 1, Message: err.Error()})
		case len(rows) > 0 && len(cells) != len(rows[0]):
			errors = append(errors, ParseError{
				Line:    i + 1,
				Message: fmt.Sprintf("inconsistent cell count: expected %d, got %d", len(rows[0]), len(cells)),
			})
		default:
			rows = append(rows, cells)
			rowLines = append(rowLines, i+1)
		}
		i++
	}
	if len(rows) == 0 {
		return nil, i, errors
	}
	return &DataTable{HeaderRow: rows[0], Rows: rows[1:], Lines: rowLines}, i, errors
}

// splitRow splits "| a | b \| c |" into trimmed cells. Inside a cell \| is a
// pipe, \\ a backslash and \n a newline.
func splitRow(row string) ([]string, error) {
	var cells []string
	var cell strings.Builder
	for j := 1; j < len(row); j++ {
		c := row[j]
		switch {
		case c == '\\' && j+1 < len(row):
			j++
			switch row[j] {
			case '|':
				cell.WriteByte('|')
			case '\\':
				cell.WriteByte('\\')
			case 'n':
				cell.WriteByte('\n')
			default:
				cell.WriteByte('\\')
				cell.WriteByte(row[j])
			}
		case c == '|':
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		default:
			cell.WriteByte(c)
		}
	}
	if strings.TrimSpace(cell.String()) != "" {
		return nil, fmt.Errorf("table row must end with '|'")
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("empty table row")
	}
	return cells, nil
}

func parseTags(line string) []Tag {
	if idx := strings.Index(line, " #"); idx >= 0 {
		line = line[:idx]
	}
	matches := tagPattern.FindAllString(line, -1)
	var tags []Tag
	for _, m := range matches {
		tags = append(tags, Tag{Name: m})
	}
	return tags
}

func isTagLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "@")
}

func isKeyword(trimmed string) bool {
	return strings.HasPrefix(trimmed, "Feature:") ||
		strings.HasPrefix(trimmed, "Background:") ||
		strings.HasPrefix(trimmed, "Scenario:") ||
		strings.HasPrefix(trimmed, "Example:") ||
		strings.HasPrefix(trimmed, "Scenario Outline:") ||
		strings.HasPrefix(trimmed, "Scenario Template:") ||
		strings.HasPrefix(trimmed, "Rule:") ||
		strings.HasPrefix(trimmed, "Examples:") ||
		strings.HasPrefix(trimmed, "Scenarios:")
}

func isDocStringDelimiter(trimmed string) bool {
	return strings.HasPrefix(trimmed, `"""`) || strings.HasPrefix(trimmed, "```")
}

// consumeBlock advances past content lines, skipping over doc strings,
// until the next keyword, tag line, or EOF.
func consumeBlock(lines []string, i int) int {
	for i < len(lines) {
		t := strings.TrimSpace(lines[i])
		if isDocStringDelimiter(t) {
			_, i, _ = parseDocString(lines, i)
			continue
		}
		if isKeyword(t) || isTagLine(t) {
			break
		}
		i++
	}
	return i
}

// tagPrecedesKeyword checks if a tag line at index i is followed by a
// Scenario: or other keyword line.
func tagPrecedesKeyword(lines []string, i int) bool {
	for j := i + 1; j < len(lines); j++ {
		t := strings.TrimSpace(lines[j])
		if t == "" || strings.HasPrefix(t, "#") || isTagLine(t) {
			continue
		}
		return isKeyword(t)
	}
	return false
}

func filenameWithoutExt(filename string) string {
	name := filename
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[:idx]
	}
	return name
}
