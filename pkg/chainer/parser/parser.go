// Package parser reads the line-oriented fact and rule format.
//
// Format:
//
//	# comments and blank lines are skipped
//	is_a bert transformer
//	is_a ?x ?y & is_a ?y ?z -> is_a ?x ?z
//
// A fact line is a predicate name followed by its arguments, separated by
// whitespace. A rule line joins conditions with "&" and puts the conclusion
// after "->". Arguments starting with "?" are variables.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/kb"
	"github.com/cognicore/chainer/pkg/chainer/term"
)

const (
	implies = "->"
	and     = "&"
	comment = "#"
)

// ParseFactLine parses one fact.
func ParseFactLine(line string) (*kb.Fact, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, errors.Wrap(internalerr.ErrParse, "empty fact")
	}
	if strings.Contains(line, implies) || containsField(fields, and) {
		return nil, errors.Wrapf(internalerr.ErrParse, "%q looks like a rule", strings.TrimSpace(line))
	}
	return kb.NewFact(term.FromFields(fields)), nil
}

// ParseRuleLine parses one rule.
func ParseRuleLine(line string) (*kb.Rule, error) {
	sides := strings.Split(line, implies)
	if len(sides) != 2 {
		return nil, errors.Wrapf(internalerr.ErrParse, "rule %q needs exactly one %q", strings.TrimSpace(line), implies)
	}

	rhs := strings.Fields(sides[1])
	if len(rhs) == 0 {
		return nil, errors.Wrapf(internalerr.ErrParse, "rule %q has no conclusion", strings.TrimSpace(line))
	}

	var lhs []term.Predicate
	for i, cond := range strings.Split(sides[0], and) {
		fields := strings.Fields(cond)
		if len(fields) == 0 {
			return nil, errors.Wrapf(internalerr.ErrParse, "rule %q: condition %d is empty", strings.TrimSpace(line), i+1)
		}
		lhs = append(lhs, term.FromFields(fields))
	}
	return kb.NewRule(lhs, term.FromFields(rhs)), nil
}

// ParseStatement parses a fact or a rule, telling them apart by "->".
func ParseStatement(line string) (kb.Item, error) {
	if strings.Contains(line, implies) {
		return ParseRuleLine(line)
	}
	return ParseFactLine(line)
}

// ParseFacts reads one fact per line.
func ParseFacts(r io.Reader) ([]*kb.Fact, error) {
	var facts []*kb.Fact
	err := scan(r, func(line string) error {
		f, err := ParseFactLine(line)
		if err != nil {
			return err
		}
		facts = append(facts, f)
		return nil
	})
	return facts, err
}

// ParseRules reads one rule per line.
func ParseRules(r io.Reader) ([]*kb.Rule, error) {
	var rules []*kb.Rule
	err := scan(r, func(line string) error {
		rule, err := ParseRuleLine(line)
		if err != nil {
			return err
		}
		rules = append(rules, rule)
		return nil
	})
	return rules, err
}

// ParseStatements reads facts and rules mixed in one stream.
func ParseStatements(r io.Reader) ([]kb.Item, error) {
	var items []kb.Item
	err := scan(r, func(line string) error {
		item, err := ParseStatement(line)
		if err != nil {
			return err
		}
		items = append(items, item)
		return nil
	})
	return items, err
}

// ParseFactsFile reads facts from path.
func ParseFactsFile(path string) ([]*kb.Fact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open facts")
	}
	defer f.Close()

	facts, err := ParseFacts(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return facts, nil
}

// ParseRulesFile reads rules from path.
func ParseRulesFile(path string) ([]*kb.Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open rules")
	}
	defer f.Close()

	rules, err := ParseRules(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return rules, nil
}

// scan calls fn for every line that is not blank or a comment.
func scan(r io.Reader, fn func(line string) error) error {
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, comment) {
			continue
		}

		if err := fn(line); err != nil {
			return errors.Wrapf(err, "line %d", lineNum)
		}
	}

	return scanner.Err()
}

func containsField(fields []string, s string) bool {
	for _, f := range fields {
		if f == s {
			return true
		}
	}
	return false
}
