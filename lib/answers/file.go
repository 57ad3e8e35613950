// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package answers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/dinstaller/lib/question"
	"github.com/bureau-foundation/dinstaller/lib/secret"
)

// Format is the encoding of an answers file.
type Format int

const (
	FormatYAML Format = iota
	FormatJSONC
)

// FormatFor picks the format from a file name, ignoring a trailing
// .age.
func FormatFor(path string) Format {
	name := strings.TrimSuffix(path, ".age")
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".jsonc":
		return FormatJSONC
	default:
		return FormatYAML
	}
}

// Rule is one predefined answer.
type Rule struct {
	// Class must equal the question's class.
	Class string

	// Text, when set, must equal the question text.
	Text string

	// Device, when set, must equal the device of a LUKS question.
	Device string

	// Answer is the option to answer with.
	Answer string

	// Password is the passphrase for LUKS questions, or nil.
	Password *secret.Buffer
}

type fileContents struct {
	Answers []fileRule `yaml:"answers" json:"answers"`
}

type fileRule struct {
	Class    string `yaml:"class" json:"class"`
	Text     string `yaml:"text" json:"text"`
	Device   string `yaml:"device" json:"device"`
	Answer   string `yaml:"answer" json:"answer"`
	Password string `yaml:"password" json:"password"`
}

// LoadFile reads the rules at path. identityPath names the age identity
// file and is required only for .age files.
func LoadFile(path, identityPath string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading answers file: %w", err)
	}
	defer clear(data)

	if strings.HasSuffix(path, ".age") {
		plaintext, err := decrypt(data, identityPath)
		if err != nil {
			return nil, fmt.Errorf("answers file %s: %w", path, err)
		}
		defer clear(plaintext)
		data = plaintext
	}

	rules, err := Parse(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("answers file %s: %w", path, err)
	}
	return rules, nil
}

func decrypt(ciphertext []byte, identityPath string) ([]byte, error) {
	if identityPath == "" {
		return nil, errors.New("encrypted answers need an identity file")
	}
	identityData, err := os.ReadFile(identityPath)
	if err != nil {
		return nil, fmt.Errorf("reading identity: %w", err)
	}
	identities, err := age.ParseIdentities(bytes.NewReader(identityData))
	clear(identityData)
	if err != nil {
		return nil, fmt.Errorf("parsing identity %s: %w", identityPath, err)
	}

	reader, err := age.Decrypt(bytes.NewReader(ciphertext), identities...)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted answers: %w", err)
	}
	return plaintext, nil
}

// Parse decodes rules from data. Every rule needs a class and an
// answer; all problems are reported together.
func Parse(data []byte, format Format) ([]Rule, error) {
	var contents fileContents
	switch format {
	case FormatJSONC:
		if err := json.Unmarshal(jsonc.ToJSON(data), &contents); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &contents); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	}

	var errs []error
	for index, raw := range contents.Answers {
		if raw.Class == "" {
			errs = append(errs, fmt.Errorf("answers[%d]: class is required", index))
		}
		if raw.Answer == "" {
			errs = append(errs, fmt.Errorf("answers[%d]: answer is required", index))
		}
		if raw.Password != "" && raw.Class != question.ClassLuksActivation {
			errs = append(errs, fmt.Errorf("answers[%d]: password is only valid for %s", index, question.ClassLuksActivation))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	rules := make([]Rule, 0, len(contents.Answers))
	for _, raw := range contents.Answers {
		rule := Rule{
			Class:  raw.Class,
			Text:   raw.Text,
			Device: raw.Device,
			Answer: raw.Answer,
		}
		if raw.Password != "" {
			password, err := secret.FromString(raw.Password)
			if err != nil {
				closeRules(rules)
				return nil, fmt.Errorf("protecting password: %w", err)
			}
			rule.Password = password
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func closeRules(rules []Rule) {
	for _, rule := range rules {
		if rule.Password != nil {
			rule.Password.Close()
		}
	}
}

// Matches reports whether the rule applies to q.
func (r Rule) Matches(q *question.Question) bool {
	if r.Class != q.Class() {
		return false
	}
	if r.Text != "" && r.Text != q.Text() {
		return false
	}
	if r.Device != "" {
		luks, ok := q.Luks()
		if !ok || luks.Device != r.Device {
			return false
		}
	}
	return true
}
