package service

import (
	"fmt"
)

// paramNamer is implemented by parameter values carrying an explicit id.
type paramNamer interface {
	ParamName() string
}

type namer interface {
	Name() string
}

// paramRepr returns the printable form of a fixture parameter value: an
// explicit param name, else a name, else the string form.
func paramRepr(value interface{}) (repr string) {
	defer func() {
		if r := recover(); r != nil {
			repr = fmt.Sprintf("%T", value)
		}
	}()

	switch v := value.(type) {
	case nil:
		return "None"
	case string:
		return v
	case paramNamer:
		return v.ParamName()
	case map[string]interface{}:
		if name, ok := v["param_name"]; ok {
			return fmt.Sprint(name)
		}
		if name, ok := v["name"]; ok {
			return fmt.Sprint(name)
		}
	case namer:
		return v.Name()
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprintf("%v", value)
}
