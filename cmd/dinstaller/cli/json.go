// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"io"
	"reflect"

	"github.com/spf13/pflag"
)

// JSONOutput adds a --json flag to a command.
//
//	var output cli.JSONOutput
//	output.AddFlag(flagSet)
//	...
//	if done, err := output.Emit(stdout, entries); done {
//	    return err
//	}
type JSONOutput struct {
	Enabled bool
}

// AddFlag registers --json on flagSet.
func (j *JSONOutput) AddFlag(flagSet *pflag.FlagSet) {
	flagSet.BoolVar(&j.Enabled, "json", false, "output as JSON")
}

// Emit writes result as indented JSON when --json is set. done is false
// when the caller should print text instead. A nil slice is written as
// [].
func (j *JSONOutput) Emit(w io.Writer, result any) (done bool, err error) {
	if !j.Enabled {
		return false, nil
	}
	return true, WriteJSON(w, result)
}

// WriteJSON writes value as indented JSON.
func WriteJSON(w io.Writer, value any) error {
	if v := reflect.ValueOf(value); v.Kind() == reflect.Slice && v.IsNil() {
		value = reflect.MakeSlice(v.Type(), 0, 0).Interface()
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
