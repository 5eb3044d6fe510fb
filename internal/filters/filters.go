// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"

	"github.com/staranto/cinectl/internal/attrs"
)

var (
	ErrInvalidFilter = errors.New("invalid filter")
	ErrUnknownKey    = errors.New("filter key not found")
)

// filterRegex splits a filter into key, operator and target. Operators are one
// of = ^ ~ < > @ or /, optionally prefixed with '!'.
var filterRegex = regexp.MustCompile(`^(.+?)(!?[=^~<>@/])(.*)$`)

// Filter is a single parsed --filter expression.
type Filter struct {
	Key     string
	Negate  bool
	Operand string
	Target  string
}

// BuildFilters parses a filter specification. Filters are separated by ","
// unless CINECTL_FILTER_DELIM says otherwise.
func BuildFilters(spec string) ([]Filter, error) {
	//nolint:prealloc
	var filters []Filter

	if spec == "" {
		return filters, nil
	}

	delim := ","
	if d, ok := os.LookupEnv("CINECTL_FILTER_DELIM"); ok && d != "" {
		delim = d
	}

	for _, filterSpec := range strings.Split(spec, delim) {
		parts := filterRegex.FindStringSubmatch(filterSpec)
		if parts == nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, filterSpec)
		}

		op := parts[2]
		negate := strings.HasPrefix(op, "!")
		op = strings.TrimPrefix(op, "!")

		if op == "/" {
			if _, err := regexp.Compile(parts[3]); err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidFilter, filterSpec, err)
			}
		}

		filters = append(filters, Filter{
			Key:     strings.TrimSpace(parts[1]),
			Negate:  negate,
			Operand: op,
			Target:  parts[3],
		})
	}

	return filters, nil
}

// FilterDataset returns the rows of candidates that pass spec, each as a map
// of output key to raw value. Transforms are left to the caller.
func FilterDataset(candidates gjson.Result, attrList attrs.AttrList, spec string) ([]map[string]interface{}, error) {
	filters, err := BuildFilters(spec)
	if err != nil {
		return nil, err
	}
	for _, f := range filters {
		if _, ok := attrList.Lookup(f.Key); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, f.Key)
		}
	}

	//nolint:prealloc
	var rows []map[string]interface{}
	for _, candidate := range candidates.Array() {
		if !Match(candidate, attrList, filters) {
			continue
		}

		row := make(map[string]interface{}, len(attrList))
		for _, attr := range attrList {
			if attr.Key == "*" {
				continue
			}
			row[attr.OutputKey] = candidate.Get(attr.Key).Value()
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// Match reports whether candidate passes every filter. Filters on keys that
// are not in attrList are skipped.
func Match(candidate gjson.Result, attrList attrs.AttrList, filters []Filter) bool {
	for _, filter := range filters {
		key, ok := attrList.Lookup(filter.Key)
		if !ok {
			log.Warnf("filter key not found: %s", filter.Key)
			continue
		}

		value := candidate.Get(key).Value()
		if value == nil {
			return false
		}

		var result bool
		switch v := value.(type) {
		case string:
			result = checkStringOperand(v, filter)
		case bool:
			result = checkStringOperand(strconv.FormatBool(v), filter)
		case float64:
			result = checkNumericOperand(v, filter)
		default:
			result = checkContainsOperand(v, filter)
		}

		if !result {
			return false
		}
	}

	return true
}

// checkContainsOperand evaluates '@' against arrays and objects. Other
// operands never match a composite value.
func checkContainsOperand(value interface{}, filter Filter) bool {
	if filter.Operand != "@" {
		log.Debugf("operand %s not supported for %T", filter.Operand, value)
		return filter.Negate
	}

	found := false
	switch val := value.(type) {
	case []interface{}:
		for _, item := range val {
			if fmt.Sprint(item) == filter.Target {
				found = true
				break
			}
		}
	case map[string]interface{}:
		_, found = val[filter.Target]
	default:
		log.Errorf("unsupported type for contains filtering: %T", value)
		return false
	}
	return found == !filter.Negate
}

// checkNumericOperand compares numerically when the target parses as a
// number and falls back to string semantics otherwise.
func checkNumericOperand(value float64, filter Filter) bool {
	tgt, err := strconv.ParseFloat(strings.TrimSpace(filter.Target), 64)
	if err != nil {
		return checkStringOperand(strconv.FormatFloat(value, 'f', -1, 64), filter)
	}

	switch filter.Operand {
	case "=":
		return (value == tgt) == !filter.Negate
	case ">":
		return (value > tgt) == !filter.Negate
	case "<":
		return (value < tgt) == !filter.Negate
	default:
		return checkStringOperand(strconv.FormatFloat(value, 'f', -1, 64), filter)
	}
}

// checkStringOperand evaluates a string comparison. '>' and '<' are lexical,
// which orders YYYY-MM-DD release dates correctly.
func checkStringOperand(value string, filter Filter) bool {
	switch filter.Operand {
	case "=":
		return value == filter.Target == !filter.Negate
	case "~":
		return strings.EqualFold(value, filter.Target) == !filter.Negate
	case "^":
		return strings.HasPrefix(value, filter.Target) == !filter.Negate
	case ">":
		return value > filter.Target == !filter.Negate
	case "<":
		return value < filter.Target == !filter.Negate
	case "@":
		return strings.Contains(strings.ToLower(value), strings.ToLower(filter.Target)) == !filter.Negate
	case "/":
		matched, err := regexp.MatchString(filter.Target, value)
		if err != nil {
			log.Error("invalid regex: " + filter.Target)
			return false
		}
		return matched == !filter.Negate
	default:
		log.Error("unsupported filtering operand: " + filter.Operand)
		return false
	}
}
