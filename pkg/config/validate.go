package config

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Issue describes one configuration problem. Path points at the offending
// node using dotted ids, e.g. `sections.profile.fields.email.validation`.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// ValidationError aggregates every issue found in a configuration.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return fmt.Sprintf("config: %d issue(s): %s", len(e.Issues), strings.Join(parts, "; "))
}

type checker struct {
	cfg    *model.FormConfig
	ids    map[string]bool
	issues []Issue
}

func (c *checker) add(path, format string, args ...any) {
	c.issues = append(c.issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

// Validate checks the load-time invariants of cfg: unique field ids, resolvable
// compare/showIf/placeholder references, known sources, compilable patterns
// and supported operators. It returns a *ValidationError listing every issue.
func Validate(cfg *model.FormConfig) error {
	if cfg == nil {
		return &ValidationError{Issues: []Issue{{Message: "configuration is nil"}}}
	}

	c := &checker{cfg: cfg, ids: make(map[string]bool)}
	if len(cfg.Sections) == 0 {
		c.add("sections", "at least one section is required")
	}

	for _, section := range cfg.Sections {
		for _, field := range section.Fields() {
			id := strings.TrimSpace(field.ID)
			if id == "" {
				continue
			}
			if c.ids[id] {
				c.add("fields."+id, "duplicate field id")
			}
			c.ids[id] = true
		}
	}

	sectionIDs := make(map[string]bool)
	for idx, section := range cfg.Sections {
		path := fmt.Sprintf("sections[%d]", idx)
		if id := strings.TrimSpace(section.ID); id != "" {
			if sectionIDs[id] {
				c.add(path, "duplicate section id %q", id)
			}
			sectionIDs[id] = true
			path = "sections." + id
		}
		if len(section.Elements) == 0 && len(section.Subsections) == 0 {
			c.add(path, "section declares no elements")
		}
		for _, name := range section.Prefetch {
			if _, ok := cfg.Source(name); !ok {
				c.add(path+".prefetch", "unknown source %q", name)
			}
		}
		for _, field := range section.Elements {
			c.checkField(path+".fields", field, nil)
		}
		for subIdx, sub := range section.Subsections {
			subPath := fmt.Sprintf("%s.subsections[%d]", path, subIdx)
			if id := strings.TrimSpace(sub.ID); id != "" {
				subPath = path + ".subsections." + id
			}
			c.checkConditions(subPath+".showIf", sub.ShowIf)
			for _, field := range sub.Elements {
				c.checkField(subPath+".fields", field, nil)
			}
		}
	}

	names := make([]string, 0, len(cfg.Sources))
	for name := range cfg.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c.checkSource("sources."+name, cfg.Sources[name])
	}

	if len(c.issues) > 0 {
		return &ValidationError{Issues: c.issues}
	}
	return nil
}

// checkField validates a field or, when table is non-nil, a column of table.
func (c *checker) checkField(parent string, field model.Field, table *model.Field) {
	id := strings.TrimSpace(field.ID)
	path := parent + "." + id
	if id == "" {
		c.add(parent, "field id is required")
		return
	}
	if !field.Type.Known() {
		c.add(path, "unknown field type %q", field.Type)
	}

	if field.Kind() == model.FieldTypeTable {
		if table != nil {
			c.add(path, "tables cannot be nested")
		}
		if len(field.Columns) == 0 {
			c.add(path, "table field requires columns")
		}
		seen := make(map[string]bool)
		for _, column := range field.Columns {
			if seen[column.ID] {
				c.add(path+".columns."+column.ID, "duplicate column id")
			}
			seen[column.ID] = true
			f := field
			c.checkField(path+".columns", column, &f)
		}
	}

	c.checkConditions(path+".showIf", field.ShowIf)
	c.checkRules(path+".validation", field.Validation, table)

	if field.Options != nil && field.Options.IsRemote() {
		if _, ok := c.cfg.Source(field.Options.Source); !ok {
			c.add(path+".options", "unknown source %q", field.Options.Source)
		}
		c.checkParams(path+".options.params", field.Options.Params)
	}
}

func (c *checker) checkRules(path string, rules *model.Rules, table *model.Field) {
	if rules == nil {
		return
	}
	if rules.Pattern != "" {
		if _, err := regexp.Compile(rules.Pattern); err != nil {
			c.add(path+".pattern", "invalid pattern: %v", err)
		}
	}
	if rules.Min != nil && rules.Max != nil && *rules.Min > *rules.Max {
		c.add(path, "min %v exceeds max %v", *rules.Min, *rules.Max)
	}
	if rules.MinLength != nil && rules.MaxLength != nil && *rules.MinLength > *rules.MaxLength {
		c.add(path, "minLength %d exceeds maxLength %d", *rules.MinLength, *rules.MaxLength)
	}
	if rules.MinSelect != nil && rules.MaxSelect != nil && *rules.MinSelect > *rules.MaxSelect {
		c.add(path, "minSelect %d exceeds maxSelect %d", *rules.MinSelect, *rules.MaxSelect)
	}
	if cmp := rules.Compare; cmp != nil {
		if !cmp.Operator.Valid() {
			c.add(path+".compare", "unsupported operator %q", cmp.Operator)
		}
		ref := strings.TrimSpace(cmp.Field)
		switch {
		case ref == "":
			c.add(path+".compare", "compare field is required")
		case table != nil:
			if _, ok := table.Column(ref); !ok && !c.ids[ref] {
				c.add(path+".compare", "unknown column or field %q", ref)
			}
		case !c.ids[ref]:
			c.add(path+".compare", "unknown field %q", ref)
		}
	}
}

func (c *checker) checkConditions(path string, conds model.Conditions) {
	for idx, cond := range conds {
		condPath := fmt.Sprintf("%s[%d]", path, idx)
		if !c.ids[strings.TrimSpace(cond.Field)] {
			c.add(condPath, "unknown field %q", cond.Field)
		}
		if cond.IsComparison() {
			if !c.ids[strings.TrimSpace(cond.CompareField)] {
				c.add(condPath, "unknown compare field %q", cond.CompareField)
			}
			if cond.Operator != "" && !cond.Operator.Valid() {
				c.add(condPath, "unsupported operator %q", cond.Operator)
			}
		}
	}
}

func (c *checker) checkParams(path string, params map[string]string) {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if ref, ok := model.Placeholder(params[key]); ok && !c.ids[ref] {
			c.add(path+"."+key, "placeholder references unknown field %q", ref)
		}
	}
}

func (c *checker) checkSource(path string, src model.RemoteSource) {
	if src.Target() == "" && strings.TrimSpace(src.OperationID) == "" {
		c.add(path, "source requires url, endpoint or operationId")
	}
	if method := strings.TrimSpace(src.Method); method != "" {
		switch strings.ToUpper(method) {
		case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead:
		default:
			c.add(path+".method", "unsupported method %q", method)
		}
	}
	c.checkParams(path+".params", src.Params)
}
