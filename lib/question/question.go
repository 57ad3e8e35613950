// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package question

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/bureau-foundation/dinstaller/lib/secret"
)

// Kind tags the question variant. The exported capability sets are
// derived from it.
type Kind int

const (
	KindGeneric Kind = iota
	KindLuksActivation
)

func (k Kind) String() string {
	switch k {
	case KindGeneric:
		return "generic"
	case KindLuksActivation:
		return "luks_activation"
	default:
		return "unknown"
	}
}

const (
	// Unanswered is the answer of a question nobody has answered yet.
	Unanswered = ""

	// NoDefault is the default option of a question without one.
	NoDefault = ""

	// ReservedOption spells "no default" on input and can never be a
	// real option.
	ReservedOption = "none"
)

// Question classes identify what a question is about independently of
// its (translatable) text. Predefined answers match on them.
const (
	ClassGeneric        = "generic"
	ClassLuksActivation = "storage.luks_activation"
)

// Fixed options of a LUKS activation question.
const (
	OptionDecrypt = "decrypt"
	OptionSkip    = "skip"
)

// Luks is the payload of a KindLuksActivation question.
type Luks struct {
	// Device is the block device path, e.g. /dev/sda2.
	Device string

	// Label is a human label for the device (filesystem label or
	// size), shown next to the prompt.
	Label string

	// Attempt counts the tries for this device, starting at 1.
	Attempt uint8
}

// Question is one pending request for input. Text, options, default and
// payload never change after creation; the answer and the passphrase
// are written through the Registry.
type Question struct {
	id            atomic.Uint32
	class         string
	text          string
	options       []string
	defaultOption string
	luks          *Luks

	// answered is closed when the answer is set; removed when the
	// question leaves its registry.
	answered chan struct{}
	removed  chan struct{}

	// added is set by the registry the first time it accepts the
	// question. Guarded by the registry lock.
	added bool

	mu       sync.Mutex
	answer   string
	password *secret.Buffer
}

// New creates a generic question. options may be empty for a free-form
// answer. defaultOption must be one of options, or NoDefault (the
// ReservedOption spelling is accepted too).
func New(text string, options []string, defaultOption string) (*Question, error) {
	return NewWithClass(ClassGeneric, text, options, defaultOption)
}

// NewWithClass is New with an explicit class.
func NewWithClass(class, text string, options []string, defaultOption string) (*Question, error) {
	if defaultOption == ReservedOption {
		defaultOption = NoDefault
	}
	if err := validateOptions(options, defaultOption); err != nil {
		return nil, err
	}
	if class == "" {
		class = ClassGeneric
	}
	return newQuestion(class, text, slices.Clone(options), defaultOption, nil), nil
}

// NewLuksActivation creates a disk-unlock question for device. The
// options are always decrypt and skip, with skip as the default. An
// attempt of zero is treated as the first attempt.
func NewLuksActivation(device, text, label string, attempt uint8) *Question {
	if attempt == 0 {
		attempt = 1
	}
	return newQuestion(ClassLuksActivation, text, []string{OptionDecrypt, OptionSkip}, OptionSkip, &Luks{
		Device:  device,
		Label:   label,
		Attempt: attempt,
	})
}

func newQuestion(class, text string, options []string, defaultOption string, luks *Luks) *Question {
	return &Question{
		class:         class,
		text:          text,
		options:       options,
		defaultOption: defaultOption,
		luks:          luks,
		answered:      make(chan struct{}),
		removed:       make(chan struct{}),
	}
}

func validateOptions(options []string, defaultOption string) error {
	seen := make(map[string]bool, len(options))
	for _, option := range options {
		switch {
		case option == ReservedOption:
			return &InvalidOptionError{Option: option, Reason: "reserved"}
		case option == "":
			return &InvalidOptionError{Option: option, Reason: "options must not be empty"}
		case seen[option]:
			return &InvalidOptionError{Option: option, Reason: "duplicate option"}
		}
		seen[option] = true
	}
	if defaultOption != NoDefault && !seen[defaultOption] {
		return &InvalidOptionError{Option: defaultOption, Reason: "default is not one of the options"}
	}
	return nil
}

// ID returns the registry-assigned identifier, or zero before the
// question is added.
func (q *Question) ID() uint32 { return q.id.Load() }

// Kind returns the variant tag.
func (q *Question) Kind() Kind {
	if q.luks != nil {
		return KindLuksActivation
	}
	return KindGeneric
}

// Class returns the question class.
func (q *Question) Class() string { return q.class }

// Text returns the prompt.
func (q *Question) Text() string { return q.text }

// Options returns a copy of the ordered option list.
func (q *Question) Options() []string { return slices.Clone(q.options) }

// DefaultOption returns the default option or NoDefault.
func (q *Question) DefaultOption() string { return q.defaultOption }

// Luks returns the LUKS payload. ok is false for generic questions.
func (q *Question) Luks() (payload Luks, ok bool) {
	if q.luks == nil {
		return Luks{}, false
	}
	return *q.luks, true
}

// Answer returns the answer, or Unanswered.
func (q *Question) Answer() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.answer
}

// IsAnswered reports whether the answer has been set.
func (q *Question) IsAnswered() bool {
	return q.Answer() != Unanswered
}

// Answered returns a channel closed once the question is answered.
func (q *Question) Answered() <-chan struct{} { return q.answered }

// Password returns the passphrase given with the answer, or "" when
// none was given. Only LUKS questions carry one.
func (q *Question) Password() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.password == nil {
		return ""
	}
	return q.password.String()
}

// Release zeroes the passphrase. The driver calls it once it has used
// the answer.
func (q *Question) Release() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.password == nil {
		return nil
	}
	err := q.password.Close()
	q.password = nil
	return err
}

func (q *Question) validAnswer(answer string) bool {
	if answer == Unanswered {
		return false
	}
	return len(q.options) == 0 || slices.Contains(q.options, answer)
}

// setPassword stores a passphrase ahead of (or together with) the
// answer. The caller holds the registry lock.
func (q *Question) setPassword(password string) error {
	if q.luks == nil {
		return ErrNoPassword
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.answer != Unanswered {
		return ErrAlreadyAnswered
	}
	return q.replacePasswordLocked(password)
}

func (q *Question) replacePasswordLocked(password string) error {
	if q.password != nil {
		q.password.Close()
		q.password = nil
	}
	if password == "" {
		return nil
	}
	buffer, err := secret.FromString(password)
	if err != nil {
		return err
	}
	q.password = buffer
	return nil
}

// setAnswer records the answer and closes the answered channel. The
// caller holds the registry lock.
func (q *Question) setAnswer(response Response) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.answer != Unanswered {
		return ErrAlreadyAnswered
	}
	if !q.validAnswer(response.Option) {
		return &InvalidAnswerError{Answer: response.Option, Options: slices.Clone(q.options)}
	}
	if q.luks != nil && response.Password != "" {
		if err := q.replacePasswordLocked(response.Password); err != nil {
			return err
		}
	}

	q.answer = response.Option
	close(q.answered)
	return nil
}
