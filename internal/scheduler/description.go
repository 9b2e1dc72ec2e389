package scheduler

import (
	"fmt"
	"regexp"
	"strings"
)

// Description is an ordered set of submit attributes. Values are written
// verbatim, so ClassAd strings must already be quoted (see Quote).
type Description struct {
	keys   []string
	values map[string]string
}

// NewDescription creates a description holding attrs in the given order.
// attrs alternates key, value.
func NewDescription(attrs ...string) *Description {
	d := &Description{values: make(map[string]string)}
	for i := 0; i+1 < len(attrs); i += 2 {
		d.Set(attrs[i], attrs[i+1])
	}
	return d
}

// Set assigns an attribute, keeping its original position when it already exists.
func (d *Description) Set(key, value string) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Get returns an attribute value.
func (d *Description) Get(key string) (string, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Append adds suffix to an existing attribute (or sets it).
func (d *Description) Append(key, suffix string) {
	d.Set(key, d.values[key]+suffix)
}

// Delete removes an attribute.
func (d *Description) Delete(key string) {
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Keys returns attribute names in insertion order.
func (d *Description) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Len returns the number of attributes.
func (d *Description) Len() int {
	return len(d.keys)
}

// String renders the description in submit-file syntax.
func (d *Description) String() string {
	var b strings.Builder
	for _, k := range d.keys {
		fmt.Fprintf(&b, "%s = %s\n", k, d.values[k])
	}
	return b.String()
}

var macroRe = regexp.MustCompile(`\$\(([A-Za-z_][A-Za-z0-9_.+]*)\)`)

// Expand resolves $(name) macros in value using the description's attributes
// and vars, the latter taking precedence. Unknown macros are left untouched;
// a macro that refers back to itself is not expanded further.
func (d *Description) Expand(value string, vars map[string]string) string {
	return d.expand(value, vars, map[string]bool{})
}

func (d *Description) expand(value string, vars map[string]string, active map[string]bool) string {
	return macroRe.ReplaceAllStringFunc(value, func(m string) string {
		name := macroRe.FindStringSubmatch(m)[1]
		if active[name] {
			return m
		}
		v, ok := vars[name]
		if !ok {
			v, ok = d.lookup(name)
		}
		if !ok {
			return m
		}
		active[name] = true
		defer delete(active, name)
		return d.expand(v, vars, active)
	})
}

// lookup matches attribute names case-insensitively like condor_submit does.
func (d *Description) lookup(name string) (string, bool) {
	if v, ok := d.values[name]; ok {
		return v, true
	}
	for _, k := range d.keys {
		if strings.EqualFold(k, name) {
			return d.values[k], true
		}
	}
	return "", false
}
