// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package attrs

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Attr represents each of the keys to be included in the output. Key is a
// gjson path into a single movie object, e.g. "title" or "genre_ids.0".
type Attr struct {
	// The JSON key to extract from each movie.
	Key string
	// Should this Attr be included in output or is it just
	// intended for filtering and sorting?
	Include bool
	// The key to use in the output. This is also the column title when
	// output=text.
	OutputKey string
	// Transformation spec to apply to the output value.
	TransformSpec string
}

var lengthRegex = regexp.MustCompile(`-?\d+`)

// Transform applies the case and length parts of TransformSpec to a string
// value. Other value types are returned untouched.
func (a *Attr) Transform(value interface{}) interface{} {
	result, ok := value.(string)
	if !ok {
		return value
	}

	// The last case flag wins, so a per-attr flag overrides a global one.
	// --attrs '*::U,title::l' gives a lower case title.
	lastL := strings.LastIndexAny(a.TransformSpec, "lL")
	lastU := strings.LastIndexAny(a.TransformSpec, "uU")

	if lastL > lastU {
		result = strings.ToLower(result)
	} else if lastU > lastL {
		result = strings.ToUpper(result)
	}

	if a.TransformSpec == "" {
		return result
	}

	// Same rule for length: the last number wins. A negative length elides
	// the middle instead of truncating the tail.
	match := lengthRegex.FindAllString(a.TransformSpec, -1)
	if len(match) == 0 {
		return result
	}
	l, _ := strconv.Atoi(match[len(match)-1])
	abs := int(math.Abs(float64(l)))
	runes := []rune(result)
	if len(runes) > abs {
		if l < 0 {
			lr := abs/2 - 1
			if lr < 0 {
				lr = 0
			}
			result = string(runes[:lr]) + ".." + string(runes[len(runes)-lr:])
		} else {
			result = string(runes[:l])
		}
	}

	return result
}

type AttrList []Attr

// Defaults is the column set shown when --attrs is not given.
func Defaults() AttrList {
	return AttrList{
		{Key: "id", OutputKey: "id", Include: true},
		{Key: "title", OutputKey: "title", Include: true},
		{Key: "release_date", OutputKey: "released", Include: true},
		{Key: "vote_average", OutputKey: "vote", Include: true},
		{Key: "popularity", OutputKey: "popularity", Include: false},
	}
}

// String returns the list in --attrs flag form.
func (a *AttrList) String() string {
	result := make([]string, 0, len(*a))
	for _, attr := range *a {
		result = append(result, fmt.Sprintf("%s:%s:%s", attr.Key, attr.OutputKey, attr.TransformSpec))
	}
	return strings.Join(result, ",")
}

// Set parses each spec from the --attrs flag and merges it into the list.
func (a *AttrList) Set(value string) error {
	if value == "" || value == "*" {
		return nil
	}

	const (
		jsonIdx = iota
		outputIdx
		transformIdx
	)

	// Each spec is key[:output[:transform]]. The output key defaults to the
	// last segment of the dotted JSON key.
	specs := strings.Split(value, ",")
specloop:
	for _, spec := range specs {
		attr := Attr{
			Include: true,
		}

		fields := strings.Split(spec, ":")
		if len(fields) > transformIdx+1 {
			return fmt.Errorf("invalid attr spec: %q", spec)
		}

		// A leading ! keeps the attr for filtering and sorting only.
		attr.Key = strings.TrimSpace(fields[jsonIdx])
		if strings.HasPrefix(attr.Key, "!") {
			attr.Include = false
			attr.Key = attr.Key[1:]
		}
		if attr.Key == "" {
			return fmt.Errorf("invalid attr spec: %q", spec)
		}

		if attr.Key == "*" {
			attr.Include = false
		}

		if len(fields) == 1 || fields[outputIdx] == "" {
			segments := strings.Split(attr.Key, ".")
			attr.OutputKey = segments[len(segments)-1]
		} else {
			attr.OutputKey = strings.TrimSpace(fields[outputIdx])
		}

		if len(fields) > transformIdx {
			attr.TransformSpec = strings.TrimSpace(fields[transformIdx])
		}

		// An attr that is already present (a default, or entered twice) is
		// updated in place so column order stays stable.
		for i := range *a {
			if (*a)[i].Key == attr.Key || (*a)[i].OutputKey == attr.Key {
				(*a)[i].Include = attr.Include
				(*a)[i].OutputKey = attr.OutputKey
				(*a)[i].TransformSpec = attr.TransformSpec
				continue specloop
			}
		}

		*a = append(*a, attr)
	}

	return nil
}

// SetGlobalTransformSpec prepends the transform spec of the "*" attr, if
// any, to every attr in the list.
func (a *AttrList) SetGlobalTransformSpec() {
	spec := ""
	for i := range *a {
		if (*a)[i].Key == "*" {
			spec = (*a)[i].TransformSpec
			break
		}
	}

	if spec == "" {
		return
	}

	for i := range *a {
		(*a)[i].TransformSpec = spec + "," + (*a)[i].TransformSpec
	}
}

// Included returns the output keys of the attrs shown in output, in order.
func (a AttrList) Included() []string {
	var keys []string
	for _, attr := range a {
		if attr.Include && attr.Key != "*" {
			keys = append(keys, attr.OutputKey)
		}
	}
	return keys
}

// Lookup returns the JSON key for an output key.
func (a AttrList) Lookup(outputKey string) (string, bool) {
	for _, attr := range a {
		if attr.OutputKey == outputKey && attr.Key != "*" {
			return attr.Key, true
		}
	}
	return "", false
}

func (a *AttrList) Type() string {
	return "list"
}
