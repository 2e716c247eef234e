package domain

import (
	"fmt"
	"strings"

	"github.com/blang/semver/v4"

	m "iostest.dev/pkg/iostest/internal/model"
)

func anyVersion(semver.Version) bool { return true }

// ParseRequirement turns a cargo version requirement ("^0.8", "~1.2",
// ">=1, <2", "1.*") into a semver range. A bare version is a caret
// requirement, as in Cargo.toml.
func ParseRequirement(req string) (semver.Range, error) {
	req = strings.TrimSpace(req)
	if req == "" || req == m.AnyVersion {
		return anyVersion, nil
	}

	var result semver.Range

	for _, part := range strings.Split(req, ",") {
		comparator, err := parseComparator(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("requirement %q: %w", req, err)
		}

		if result == nil {
			result = comparator
		} else {
			result = result.AND(comparator)
		}
	}

	return result, nil
}

func parseComparator(part string) (semver.Range, error) {
	op := ""

	for _, candidate := range []string{">=", "<=", ">", "<", "=", "^", "~"} {
		if strings.HasPrefix(part, candidate) {
			op = candidate
			part = strings.TrimSpace(part[len(candidate):])

			break
		}
	}

	if part == "*" {
		return anyVersion, nil
	}

	// 1.* and 1.2.x pin the leading components like a tilde requirement.
	if trimmed := strings.TrimRight(part, ".*xX"); trimmed != part {
		if trimmed == "" {
			return anyVersion, nil
		}

		part = trimmed
		if op == "" {
			op = "~"
		}
	}

	core, _, _ := strings.Cut(part, "-")
	precision := len(strings.Split(core, "."))

	lower, err := semver.ParseTolerant(part)
	if err != nil {
		return nil, err
	}

	switch op {
	case "", "^":
		return between(lower, caretUpper(lower, precision)), nil
	case "~":
		return between(lower, tildeUpper(lower, precision)), nil
	case "=":
		if precision == 3 {
			return func(v semver.Version) bool { return v.EQ(lower) }, nil
		}

		return between(lower, tildeUpper(lower, precision)), nil
	case ">":
		if precision == 3 {
			return func(v semver.Version) bool { return v.GT(lower) }, nil
		}

		bound := tildeUpper(lower, precision)

		return func(v semver.Version) bool { return v.GTE(bound) }, nil
	case ">=":
		return func(v semver.Version) bool { return v.GTE(lower) }, nil
	case "<":
		return func(v semver.Version) bool { return v.LT(lower) }, nil
	case "<=":
		if precision == 3 {
			return func(v semver.Version) bool { return v.LTE(lower) }, nil
		}

		bound := tildeUpper(lower, precision)

		return func(v semver.Version) bool { return v.LT(bound) }, nil
	}

	return nil, fmt.Errorf("unsupported operator %q", op)
}

func between(lower, upper semver.Version) semver.Range {
	return func(v semver.Version) bool { return v.GTE(lower) && v.LT(upper) }
}

// caretUpper bumps the left-most non-zero component among those written.
func caretUpper(v semver.Version, precision int) semver.Version {
	switch {
	case v.Major > 0 || precision == 1:
		return semver.Version{Major: v.Major + 1}
	case v.Minor > 0 || precision == 2:
		return semver.Version{Minor: v.Minor + 1}
	default:
		return semver.Version{Patch: v.Patch + 1}
	}
}

func tildeUpper(v semver.Version, precision int) semver.Version {
	if precision == 1 {
		return semver.Version{Major: v.Major + 1}
	}

	return semver.Version{Major: v.Major, Minor: v.Minor + 1}
}
