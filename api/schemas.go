package api

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/qri-io/jsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	workerCreateSchema = mustLoadSchema("schemas/worker_create.json")
	jobCreateSchema    = mustLoadSchema("schemas/job_create.json")
	assignmentSchema   = mustLoadSchema("schemas/assignment.json")
)

func mustLoadSchema(path string) *jsonschema.Schema {
	b, err := schemaFS.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("read embedded schema %s: %v", path, err))
	}
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(b, rs); err != nil {
		panic(fmt.Sprintf("parse embedded schema %s: %v", path, err))
	}
	return rs
}

// validateShape checks the raw request body against a schema before any
// decoding. Key errors are joined into one message for the 400 response;
// semantic validation stays with the registries.
func validateShape(ctx context.Context, rs *jsonschema.Schema, body []byte) error {
	keyErrs, err := rs.ValidateBytes(ctx, body)
	if err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if len(keyErrs) == 0 {
		return nil
	}

	msgs := make([]string, 0, len(keyErrs))
	for _, ke := range keyErrs {
		msgs = append(msgs, ke.Error())
	}
	return fmt.Errorf("invalid request body: %s", strings.Join(msgs, "; "))
}
