// Package symbols implements the Framework Symbol Extractor (spec.md §4.C):
// walking a typed source file's class declarations for the four recognized
// decorator annotations and resolving each one's literal fields.
package symbols

// Kind is one of the four recognized framework annotations. Spec.md §9
// treats these as a closed tagged variant; unknown decorator names are
// silently ignored rather than added here.
type Kind string

const (
	KindModule    Kind = "Module"
	KindComponent Kind = "Component"
	KindDirective Kind = "Directive"
	KindPipe      Kind = "Pipe"
)

// FrameworkInfo is one annotation found on a class declaration. Fields
// beyond ClassName are optional depending on Kind:
//   - Module:    only ClassName is set.
//   - Component: Selector and TemplateFilePath are both optional.
//   - Directive: Selector is optional.
//   - Pipe:      Selector is sourced from the decorator's `name` property,
//     not `selector` (spec.md §3).
type FrameworkInfo struct {
	Kind             Kind
	ClassName        string
	Selector         string
	TemplateFilePath string
}
