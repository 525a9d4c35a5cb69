package script

import "fmt"

// MalformedDocumentError reports a structural problem in a check script.
type MalformedDocumentError struct {
	File    string
	Path    string
	Line    int
	Message string
}

func (e *MalformedDocumentError) Error() string {
	return locate(e.File, e.Path, e.Line) + e.Message
}

// UnresolvedAttributeError reports a check whose connection or owner is not
// set on the check or on any enclosing entity, feature or document.
type UnresolvedAttributeError struct {
	File      string
	Path      string
	Line      int
	Attribute string
	Check     string
}

func (e *UnresolvedAttributeError) Error() string {
	return fmt.Sprintf("%scheck %q has no %s; set %s on the check, its entity, its feature or the document",
		locate(e.File, e.Path, e.Line), e.Check, e.Attribute, e.Attribute)
}

func locate(file, path string, line int) string {
	var s string
	switch {
	case file != "" && line > 0:
		s = fmt.Sprintf("%s:%d: ", file, line)
	case file != "":
		s = file + ": "
	case line > 0:
		s = fmt.Sprintf("line %d: ", line)
	}
	if path != "" {
		s += path + ": "
	}
	return s
}
