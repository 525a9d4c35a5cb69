package script

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var (
	documentKeys = keySet("connection", "owner", "owners", "features", "entities")
	ownerKeys    = keySet("name", "contact")
	featureKeys  = keySet("name", "connection", "owner", "entities")
	entityKeys   = keySet("name", "match", "connection", "owner", "checks")
)

// LoadFile reads and loads the check script at path.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is supplied by the user
	if err != nil {
		return nil, fmt.Errorf("failed to read check script: %w", err)
	}
	return load(path, data)
}

// Load decodes a check script without resolving inherited attributes.
// All structural problems found are returned together.
func Load(data []byte) (*Document, error) {
	return load("", data)
}

func load(file string, data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &MalformedDocumentError{File: file, Message: fmt.Sprintf("invalid YAML: %v", err)}
	}

	l := &loader{file: file}
	doc := l.document(&root)
	if len(l.errs) > 0 {
		return nil, errors.Join(l.errs...)
	}
	return doc, nil
}

// loader walks the YAML node tree, collecting every structural error.
type loader struct {
	file string
	errs []error
}

func (l *loader) fail(path string, n *yaml.Node, format string, args ...any) {
	line := 0
	if n != nil {
		line = n.Line
	}
	l.errs = append(l.errs, &MalformedDocumentError{
		File:    l.file,
		Path:    path,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	})
}

func (l *loader) document(root *yaml.Node) *Document {
	doc := &Document{File: l.file}

	if root.Kind == 0 || (root.Kind == yaml.DocumentNode && len(root.Content) == 0) {
		l.fail("", root, "document is empty")
		return doc
	}
	n := root
	if n.Kind == yaml.DocumentNode {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		l.fail("", n, "document must be a mapping")
		return doc
	}

	fields := l.mapping("", n, documentKeys)
	doc.Connection = l.scalar("connection", fields["connection"])
	doc.Owner = l.scalar("owner", fields["owner"])

	for i, on := range l.sequence("owners", fields["owners"]) {
		path := fmt.Sprintf("owners[%d]", i)
		of := l.mapping(path, on, ownerKeys)
		o := Owner{
			Name:    l.scalar(path+".name", of["name"]),
			Contact: l.scalar(path+".contact", of["contact"]),
		}
		if o.Name == "" {
			l.fail(path, on, "owner declaration needs a name")
		}
		doc.Owners = append(doc.Owners, o)
	}

	for i, fn := range l.sequence("features", fields["features"]) {
		doc.Features = append(doc.Features, l.feature(fmt.Sprintf("features[%d]", i), fn))
	}
	for i, en := range l.sequence("entities", fields["entities"]) {
		doc.Entities = append(doc.Entities, l.entity(fmt.Sprintf("entities[%d]", i), en))
	}

	if len(doc.Features) == 0 && len(doc.Entities) == 0 {
		l.fail("", n, "document declares no features and no entities")
	}
	return doc
}

func (l *loader) feature(path string, n *yaml.Node) Feature {
	fields := l.mapping(path, n, featureKeys)
	f := Feature{
		Name:       l.scalar(path+".name", fields["name"]),
		Connection: l.scalar(path+".connection", fields["connection"]),
		Owner:      l.scalar(path+".owner", fields["owner"]),
		Path:       path,
		Line:       n.Line,
	}
	for i, en := range l.sequence(path+".entities", fields["entities"]) {
		f.Entities = append(f.Entities, l.entity(fmt.Sprintf("%s.entities[%d]", path, i), en))
	}
	if len(f.Entities) == 0 {
		l.fail(path, n, "feature declares no entities")
	}
	return f
}

func (l *loader) entity(path string, n *yaml.Node) Entity {
	fields := l.mapping(path, n, entityKeys)
	e := Entity{
		Name:       l.scalar(path+".name", fields["name"]),
		Match:      l.scalar(path+".match", fields["match"]),
		Connection: l.scalar(path+".connection", fields["connection"]),
		Owner:      l.scalar(path+".owner", fields["owner"]),
		Path:       path,
		Line:       n.Line,
	}

	switch {
	case e.Name != "" && e.Match != "":
		l.fail(path, n, "entity sets both name and match; use exactly one")
	case e.Name == "" && e.Match == "":
		l.fail(path, n, "entity needs a name or a match pattern")
	case e.Match != "":
		re, err := regexp.Compile("(?i)" + e.Match)
		if err != nil {
			l.fail(path+".match", fields["match"], "invalid match pattern %q: %v", e.Match, err)
		} else {
			e.Pattern = re
		}
	}

	for i, cn := range l.sequence(path+".checks", fields["checks"]) {
		e.Checks = append(e.Checks, l.check(fmt.Sprintf("%s.checks[%d]", path, i), cn))
	}
	if len(e.Checks) == 0 {
		l.fail(path, n, "entity declares no checks")
	}
	return e
}

func (l *loader) check(path string, n *yaml.Node) Check {
	c := Check{Path: path, Line: n.Line, Parameters: map[string]string{}}
	if n.Kind != yaml.MappingNode {
		l.fail(path, n, "check must be a mapping")
		return c
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, n.Content[i+1]
		switch key {
		case "type":
			c.Type = l.scalar(path+".type", val)
		case "connection":
			c.Connection = l.scalar(path+".connection", val)
		case "owner":
			c.Owner = l.scalar(path+".owner", val)
		default:
			if val.Kind != yaml.ScalarNode {
				l.fail(path+"."+key, val, "parameter %q must be a scalar value", key)
				continue
			}
			c.Parameters[key] = scalarValue(val)
		}
	}
	if c.Type == "" {
		l.fail(path, n, "check needs a type")
	}
	return c
}

// mapping returns the values of a mapping node by key, reporting keys not
// in known and duplicate keys.
func (l *loader) mapping(path string, n *yaml.Node, known map[string]bool) map[string]*yaml.Node {
	out := make(map[string]*yaml.Node)
	if n.Kind != yaml.MappingNode {
		l.fail(path, n, "expected a mapping")
		return out
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i]
		if !known[k.Value] {
			l.fail(join(path, k.Value), k, "unknown field %q", k.Value)
			continue
		}
		if _, dup := out[k.Value]; dup {
			l.fail(join(path, k.Value), k, "duplicate field %q", k.Value)
			continue
		}
		out[k.Value] = n.Content[i+1]
	}
	return out
}

func (l *loader) sequence(path string, n *yaml.Node) []*yaml.Node {
	if n == nil || isNull(n) {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		l.fail(path, n, "expected a list")
		return nil
	}
	return n.Content
}

func (l *loader) scalar(path string, n *yaml.Node) string {
	if n == nil || isNull(n) {
		return ""
	}
	if n.Kind != yaml.ScalarNode {
		l.fail(path, n, "expected a scalar value")
		return ""
	}
	return n.Value
}

func scalarValue(n *yaml.Node) string {
	if isNull(n) {
		return ""
	}
	return n.Value
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func keySet(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}
