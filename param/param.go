package param

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrUnknownPath is returned when a path does not resolve to a parameter.
	ErrUnknownPath = errors.New("param: unknown path")
	// ErrInvalidValue is returned when a value cannot be parsed or is
	// rejected by the parameter's setter.
	ErrInvalidValue = errors.New("param: invalid value")
)

// Kind identifies the value type of a parameter.
type Kind int

// Parameter kinds.
const (
	KindFloat Kind = iota
	KindInt
	KindChoice
	KindBool
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindChoice:
		return "choice"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Param is a named parameter handle.
type Param interface {
	Name() string
	Kind() Kind
	// Format returns the current value as text.
	Format() string
	// Parse parses text and applies it.
	Parse(text string) error
}

// Float is a float64 parameter with an optional unit.
type Float struct {
	name string
	unit string
	get  func() float64
	set  func(float64) error
}

// NewFloat returns a float parameter. unit may be empty.
func NewFloat(name, unit string, get func() float64, set func(float64) error) *Float {
	return &Float{name: name, unit: unit, get: get, set: set}
}

func (p *Float) Name() string { return p.name }
func (p *Float) Kind() Kind   { return KindFloat }

// Unit returns the display unit, such as "Hz".
func (p *Float) Unit() string { return p.unit }

// Get returns the current value.
func (p *Float) Get() float64 { return p.get() }

// Set applies v.
func (p *Float) Set(v float64) error {
	return wrapSetter(p.name, p.set(v))
}

// Format returns the value in shortest form, followed by the unit if any.
func (p *Float) Format() string {
	s := strconv.FormatFloat(p.get(), 'g', -1, 64)
	if p.unit != "" {
		s += " " + p.unit
	}

	return s
}

// Parse accepts any strconv.ParseFloat syntax.
func (p *Float) Parse(text string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return fmt.Errorf("%w: %s: %q is not a number", ErrInvalidValue, p.name, text)
	}

	return p.Set(v)
}

// Int is an integer parameter.
type Int struct {
	name string
	get  func() int
	set  func(int) error
}

// NewInt returns an integer parameter.
func NewInt(name string, get func() int, set func(int) error) *Int {
	return &Int{name: name, get: get, set: set}
}

func (p *Int) Name() string { return p.name }
func (p *Int) Kind() Kind   { return KindInt }

// Get returns the current value.
func (p *Int) Get() int { return p.get() }

// Set applies v.
func (p *Int) Set(v int) error {
	return wrapSetter(p.name, p.set(v))
}

func (p *Int) Format() string { return strconv.Itoa(p.get()) }

// Parse accepts a base-10 integer.
func (p *Int) Parse(text string) error {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return fmt.Errorf("%w: %s: %q is not an integer", ErrInvalidValue, p.name, text)
	}

	return p.Set(v)
}

// Choice is a parameter taking one of a fixed set of names.
type Choice struct {
	name    string
	options []string
	get     func() string
	set     func(string) error
}

// NewChoice returns a choice parameter over options.
func NewChoice(name string, options []string, get func() string, set func(string) error) *Choice {
	return &Choice{name: name, options: slices.Clone(options), get: get, set: set}
}

func (p *Choice) Name() string { return p.name }
func (p *Choice) Kind() Kind   { return KindChoice }

// Options returns the accepted names.
func (p *Choice) Options() []string { return slices.Clone(p.options) }

// Get returns the current option.
func (p *Choice) Get() string { return p.get() }

// Set applies option v, which must be one of Options.
func (p *Choice) Set(v string) error {
	if !slices.Contains(p.options, v) {
		return fmt.Errorf("%w: %s: %q is not one of %s", ErrInvalidValue, p.name, v, strings.Join(p.options, ", "))
	}

	return wrapSetter(p.name, p.set(v))
}

func (p *Choice) Format() string { return p.get() }

// Parse applies the option named by text.
func (p *Choice) Parse(text string) error {
	return p.Set(strings.TrimSpace(text))
}

// Bool is an on/off parameter.
type Bool struct {
	name string
	get  func() bool
	set  func(bool) error
}

// NewBool returns a boolean parameter. set may be a plain store wrapped to
// return nil.
func NewBool(name string, get func() bool, set func(bool) error) *Bool {
	return &Bool{name: name, get: get, set: set}
}

func (p *Bool) Name() string { return p.name }
func (p *Bool) Kind() Kind   { return KindBool }

// Get returns the current value.
func (p *Bool) Get() bool { return p.get() }

// Set applies v.
func (p *Bool) Set(v bool) error {
	return wrapSetter(p.name, p.set(v))
}

func (p *Bool) Format() string { return strconv.FormatBool(p.get()) }

// Parse accepts strconv.ParseBool syntax.
func (p *Bool) Parse(text string) error {
	v, err := strconv.ParseBool(strings.TrimSpace(text))
	if err != nil {
		return fmt.Errorf("%w: %s: %q is not a boolean", ErrInvalidValue, p.name, text)
	}

	return p.Set(v)
}

func wrapSetter(name string, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w: %s: %w", ErrInvalidValue, name, err)
}
