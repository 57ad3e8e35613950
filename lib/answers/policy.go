// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package answers

import (
	"sync"

	"github.com/bureau-foundation/dinstaller/lib/question"
)

// Policy answers questions from rules, and with default options when
// not interactive. It is safe for concurrent use.
type Policy struct {
	mu          sync.Mutex
	interactive bool
	rules       []Rule
}

// NewPolicy returns a policy owning rules. The first matching rule
// wins.
func NewPolicy(interactive bool, rules []Rule) *Policy {
	return &Policy{interactive: interactive, rules: rules}
}

// Resolve implements question.Policy. A matching rule answers first.
// Otherwise a non-interactive policy answers with the default option;
// questions without a default are left for a person.
func (p *Policy) Resolve(q *question.Question) (question.Response, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, rule := range p.rules {
		if !rule.Matches(q) {
			continue
		}
		response := question.Response{Option: rule.Answer}
		if rule.Password != nil {
			response.Password = rule.Password.String()
		}
		return response, true
	}

	if p.interactive || q.DefaultOption() == question.NoDefault {
		return question.Response{}, false
	}
	return question.Response{Option: q.DefaultOption()}, true
}

// Interactive reports whether unmatched questions wait for a person.
func (p *Policy) Interactive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interactive
}

// SetInteractive switches between waiting for a person and answering
// with defaults. It affects questions added afterwards.
func (p *Policy) SetInteractive(interactive bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interactive = interactive
}

// Len returns the number of rules.
func (p *Policy) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.rules)
}

// Close zeroes the rule passwords. The policy answers only by default
// afterwards.
func (p *Policy) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	closeRules(p.rules)
	p.rules = nil
	return nil
}
