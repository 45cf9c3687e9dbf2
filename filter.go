// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cmdb

import (
	"fmt"
	"net/url"
	"strings"
)

// Filter operators understood by the appliance query layer
const (
	OpEqual       = "=="
	OpNotEqual    = "!="
	OpContains    = "=@"
	OpNotContains = "!@"
	OpLessEqual   = "<="
	OpLess        = "<"
	OpGreaterEq   = ">="
	OpGreater     = ">"
)

// ValidOperators lists the filter operators, two-character operators first
// so that the longest operator wins when parsing.
var ValidOperators = []string{
	OpEqual,
	OpNotEqual,
	OpContains,
	OpNotContains,
	OpLessEqual,
	OpGreaterEq,
	OpLess,
	OpGreater,
}

const (
	filterParam    = "filter"
	filterPrefix   = filterParam + "="
	filterExplicit = "&" + filterPrefix
)

// Filter is an ordered list of filter expressions. The appliance ANDs them
// when each one is sent as its own repeated filter parameter.
type Filter struct {
	exprs []string
}

// NormalizeFilter turns free-form filter input into the ordered list of
// expressions the query protocol expects.
//
// Callers may write a single expression, several expressions joined with
// "&", several joined with "&filter=", an optional leading "filter=", or
// any mix of these. Boundaries are resolved left to right: explicit
// "&filter=" separators first, then any remaining bare "&".
//
// Empty input yields one empty expression, and consecutive separators yield
// empty expressions; both are passed through for the appliance to reject.
//
// Example:
//
//	cmdb.NormalizeFilter("a==1&b==2").List()          // ["a==1", "b==2"]
//	cmdb.NormalizeFilter("filter=a==1&filter=b==2").List() // ["a==1", "b==2"]
//	cmdb.NormalizeFilter("a==1").Single()             // "a==1", true
func NormalizeFilter(raw string) Filter {
	raw = strings.TrimPrefix(raw, filterPrefix)

	var exprs []string
	for _, segment := range strings.Split(raw, filterExplicit) {
		exprs = append(exprs, strings.Split(segment, "&")...)
	}
	return Filter{exprs: exprs}
}

// NewFilter builds a Filter from already separated expressions.
func NewFilter(exprs ...string) Filter {
	return Filter{exprs: append([]string(nil), exprs...)}
}

// Single returns the expression when the filter holds exactly one.
func (f Filter) Single() (string, bool) {
	if len(f.exprs) == 1 {
		return f.exprs[0], true
	}
	return "", false
}

// List returns a copy of the expressions in order.
func (f Filter) List() []string {
	return append([]string(nil), f.exprs...)
}

// Len returns the number of expressions.
func (f Filter) Len() int {
	return len(f.exprs)
}

// Value returns a string for a single expression and a []string otherwise,
// matching the single-filter and multi-filter calling conventions.
func (f Filter) Value() any {
	if s, ok := f.Single(); ok {
		return s
	}
	return f.List()
}

// Encode adds one filter parameter per expression to q, in order.
func (f Filter) Encode(q url.Values) {
	for _, expr := range f.exprs {
		q.Add(filterParam, expr)
	}
}

// FilterExpr is a single field/operator/value condition.
type FilterExpr struct {
	Field string
	Op    string
	Value string
}

// String renders the expression in wire form, e.g. "name==port1".
func (e FilterExpr) String() string {
	return e.Field + e.Op + e.Value
}

// ParseFilterExpr splits an expression at the first operator occurrence.
// At that position the two-character operator is preferred over its
// one-character prefix.
func ParseFilterExpr(s string) (FilterExpr, error) {
	for i := 0; i < len(s); i++ {
		for _, op := range ValidOperators {
			if strings.HasPrefix(s[i:], op) {
				if i == 0 {
					return FilterExpr{}, fmt.Errorf("filter expression %q has no field name", s)
				}
				return FilterExpr{Field: s[:i], Op: op, Value: s[i+len(op):]}, nil
			}
		}
	}
	return FilterExpr{}, fmt.Errorf("filter expression %q has no operator (valid operators: %s)",
		s, strings.Join(ValidOperators, ", "))
}

// ValidateOperator checks that op is one of ValidOperators.
func ValidateOperator(op string) error {
	for _, valid := range ValidOperators {
		if op == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid filter operator: %q (valid operators: %s)", op, strings.Join(ValidOperators, ", "))
}

// Or joins alternatives into one expression; the appliance ORs comma-separated conditions.
func Or(exprs ...FilterExpr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ",")
}
