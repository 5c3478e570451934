package tools

import (
	"github.com/debemdeboas/x-mcp/internal/errs"
)

// args holds a validated argument object. Accessors assume validate passed.
type args map[string]any

func (a args) str(name string) string {
	s, _ := a[name].(string)
	return s
}

func (a args) strs(name string) []string {
	switch v := a[name].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			out[i], _ = item.(string)
		}
		return out
	}
	return nil
}

// validate checks raw against the declared fields of op. Undeclared fields
// are ignored.
func validate(op Operation, raw any) (args, error) {
	const opName = "validate arguments"

	var a args
	switch v := raw.(type) {
	case nil:
		a = args{}
	case map[string]any:
		a = args(v)
	case args:
		a = v
	default:
		return nil, errs.InvalidArgument(opName, "arguments for %s must be an object", op)
	}

	for _, f := range definitions[op].fields {
		value, ok := a[f.name]
		if !ok || value == nil {
			if f.required {
				return nil, errs.InvalidArgument(opName, "missing required argument %q for %s", f.name, op)
			}
			continue
		}
		if !hasType(value, f.typ) {
			return nil, errs.InvalidArgument(opName, "argument %q for %s must be %s", f.name, op, f.typ)
		}
	}
	return a, nil
}

func hasType(value any, typ fieldType) bool {
	switch typ {
	case fieldString:
		_, ok := value.(string)
		return ok
	case fieldStringArray:
		switch v := value.(type) {
		case []string:
			return true
		case []any:
			for _, item := range v {
				if _, ok := item.(string); !ok {
					return false
				}
			}
			return true
		}
	}
	return false
}
