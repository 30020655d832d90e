// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package configx

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/ory/jsonschema/v3"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

func newCompiler(schema []byte) (string, *jsonschema.Compiler, error) {
	id := gjson.GetBytes(schema, "$id").String()
	if id == "" {
		id = fmt.Sprintf("%s.json", uuid.Must(uuid.NewRandom()).String())
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(id, bytes.NewBuffer(schema)); err != nil {
		return "", nil, errors.WithStack(err)
	}

	// DO NOT REMOVE THIS
	compiler.ExtractAnnotations = true

	return id, compiler, nil
}

func compileSchema(ctx context.Context, schema []byte) (*jsonschema.Schema, error) {
	id, compiler, err := newCompiler(schema)
	if err != nil {
		return nil, err
	}

	s, err := compiler.Compile(ctx, id)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return s, nil
}

func printHumanReadableValidationErrors(w io.Writer, err error) {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		_, _ = fmt.Fprintf(w, "the configuration is invalid: %s\n", err)
		return
	}

	_, _ = fmt.Fprintln(w, "The configuration contains values or keys which are invalid:")
	printValidationError(w, ve)
}

func printValidationError(w io.Writer, ve *jsonschema.ValidationError) {
	if len(ve.Causes) == 0 {
		ptr := ve.InstancePtr
		if ptr == "" || ptr == "#" {
			ptr = "#/"
		}
		_, _ = fmt.Fprintf(w, "%s: %s\n", ptr, ve.Message)
		return
	}

	for _, cause := range ve.Causes {
		printValidationError(w, cause)
	}
}
