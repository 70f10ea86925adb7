package main

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/wippyai/thunk"
	"github.com/wippyai/thunk/handle"
	"github.com/wippyai/thunk/method"
)

// parseArgs converts one string per parameter into the handle the thunk
// expects in that slot.
func parseArgs(desc *method.Descriptor, values []string) ([]thunk.Handle, error) {
	if len(values) != len(desc.Params) {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", desc.Name, len(desc.Params), len(values))
	}
	args := make([]thunk.Handle, len(values))
	for i, p := range desc.Params {
		h, err := parseArg(values[i], p.Type)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		args[i] = h
	}
	return args, nil
}

func parseArg(value string, t reflect.Type) (thunk.Handle, error) {
	value = strings.TrimSpace(value)

	if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.String {
		if value == "" {
			return reflect.Zero(t).Interface(), nil
		}
		parts := strings.Split(value, ",")
		v := reflect.MakeSlice(t, len(parts), len(parts))
		for i, s := range parts {
			v.Index(i).SetString(strings.TrimSpace(s))
		}
		return v.Interface(), nil
	}

	if !handle.IsValueRepresentation(t) {
		return nil, fmt.Errorf("cannot parse %s from text", t)
	}

	b := handle.Zero(t)
	v := b.Value()
	switch t.Kind() {
	case reflect.Bool:
		x, err := strconv.ParseBool(value)
		if err != nil {
			return nil, err
		}
		v.SetBool(x)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		x, err := strconv.ParseInt(value, 0, t.Bits())
		if err != nil {
			return nil, err
		}
		v.SetInt(x)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		x, err := strconv.ParseUint(value, 0, t.Bits())
		if err != nil {
			return nil, err
		}
		v.SetUint(x)
	case reflect.Float32, reflect.Float64:
		x, err := strconv.ParseFloat(value, t.Bits())
		if err != nil {
			return nil, err
		}
		v.SetFloat(x)
	case reflect.String:
		v.SetString(value)
	default:
		return nil, fmt.Errorf("cannot parse %s from text", t)
	}
	return b, nil
}

// formatHandle renders a handle for display.
func formatHandle(h thunk.Handle) string {
	switch v := h.(type) {
	case nil:
		return "nil"
	case *handle.Box:
		return v.String()
	default:
		if handle.IsVoid(v) {
			return "void"
		}
		return fmt.Sprintf("%v", v)
	}
}

// formatArgs renders the argument slice after a call, marking slots the
// callee may have replaced.
func formatArgs(desc *method.Descriptor, args []thunk.Handle) []string {
	out := make([]string, len(args))
	for i, h := range args {
		s := formatHandle(h)
		if i < len(desc.Params) {
			p := desc.Params[i]
			s = p.Name + " = " + s
			if p.ByRef {
				s = "ref " + s
			}
		}
		out[i] = s
	}
	return out
}
