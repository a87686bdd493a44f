package registry

import (
	"github.com/chriserin/stepwise/pkg/pattern"
	"github.com/chriserin/stepwise/pkg/step"
)

// Default is the registry the package-level functions register on. Step
// packages populate it from init functions; the runner freezes it before
// the first scenario.
var Default = New()

// Given registers a Given step on Default. It panics if the definition is
// invalid or duplicated, so mistakes surface at program start.
func Given(text string, h step.Handler) {
	mustDefine(step.Given, text, h, callerLocation(1))
}

// When registers a When step on Default. See Given.
func When(text string, h step.Handler) {
	mustDefine(step.When, text, h, callerLocation(1))
}

// Then registers a Then step on Default. See Given.
func Then(text string, h step.Handler) {
	mustDefine(step.Then, text, h, callerLocation(1))
}

// Register adds a definition to Default.
func Register(s *Step) error { return Default.Register(s) }

// Freeze freezes Default.
func Freeze() { Default.Freeze() }

func mustDefine(kw step.Keyword, text string, h step.Handler, loc Location) {
	Default.MustRegister(&Step{Keyword: kw, Pattern: pattern.New(text), Handler: h, Location: loc})
}
