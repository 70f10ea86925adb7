package main

import (
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/wippyai/thunk"
	"github.com/wippyai/thunk/handle"
	"github.com/wippyai/thunk/method"
)

// Counter accumulates a running total.
type Counter struct {
	N int
}

func (c *Counter) Add(d int) int {
	c.N += d
	return c.N
}

func (c *Counter) Increment(x *int) {
	*x++
	c.N++
}

func (c Counter) Total() int { return c.N }

// Shape is dispatched dynamically on its receiver.
type Shape interface {
	Area() float64
}

type Rect struct {
	W, H float64
}

func (r Rect) Area() float64 { return r.W * r.H }

type Circle struct {
	R float64
}

func (c *Circle) Area() float64 { return math.Pi * c.R * c.R }

func add(a, b int) int { return a + b }

func concat(a, b string) string { return a + b }

func divmod(a, b int, rem *int) int {
	*rem = a % b
	return a / b
}

func appendWord(words *[]string, w string) {
	*words = append(*words, w)
}

func isPositive(x float64) bool { return x > 0 }

func reset() {}

type sample struct {
	desc  *method.Descriptor
	recv  func() thunk.Handle // nil for static targets
	name  string
	about string
}

func samples() []sample {
	list := []sample{
		{name: "add", about: "static, by-value value parameters", desc: method.MustFunc(add, method.Named("add"), method.ParamNames("a", "b"))},
		{name: "concat", about: "static, string values", desc: method.MustFunc(concat, method.Named("concat"), method.ParamNames("a", "b"))},
		{name: "divmod", about: "static, by-ref value out parameter", desc: method.MustFunc(divmod, method.Named("divmod"), method.ParamNames("a", "b", "rem"), method.ByRef(2))},
		{name: "append", about: "static, by-ref reference parameter", desc: method.MustFunc(appendWord, method.Named("append"), method.ParamNames("words", "w"), method.ByRef(0))},
		{name: "positive", about: "static, bool result", desc: method.MustFunc(isPositive, method.Named("positive"), method.ParamNames("x"))},
		{name: "reset", about: "static, void", desc: method.MustFunc(reset, method.Named("reset"))},
		{
			name:  "counter.add",
			about: "value receiver bound by address",
			desc:  method.MustMethod(reflect.TypeOf((*Counter)(nil)).Elem(), "Add", method.ParamNames("d")),
			recv:  func() thunk.Handle { return handle.New(Counter{}) },
		},
		{
			name:  "counter.increment",
			about: "value receiver, by-ref value parameter",
			desc:  method.MustMethod(reflect.TypeOf((*Counter)(nil)).Elem(), "Increment", method.ParamNames("x"), method.ByRef(0)),
			recv:  func() thunk.Handle { return handle.New(Counter{}) },
		},
		{
			name:  "counter.total",
			about: "value method through a boxed receiver",
			desc:  method.MustMethod(reflect.TypeOf((*Counter)(nil)).Elem(), "Total"),
			recv:  func() thunk.Handle { return handle.New(Counter{N: 10}) },
		},
		{
			name:  "shape.area",
			about: "interface dispatch on a value type",
			desc:  method.MustMethod(reflect.TypeOf((*Shape)(nil)).Elem(), "Area"),
			recv:  func() thunk.Handle { return Rect{W: 3, H: 4} },
		},
		{
			name:  "circle.area",
			about: "interface dispatch on a pointer type",
			desc:  method.MustMethod(reflect.TypeOf((*Shape)(nil)).Elem(), "Area"),
			recv:  func() thunk.Handle { return &Circle{R: 1} },
		},
	}
	sort.Slice(list, func(i, j int) bool { return list[i].name < list[j].name })
	return list
}

func findSample(name string) (sample, bool) {
	for _, s := range samples() {
		if strings.EqualFold(s.name, name) {
			return s, true
		}
	}
	return sample{}, false
}
