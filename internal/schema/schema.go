// internal/schema/schema.go
// Package schema validates inbound submission payloads against embedded
// JSON Schemas before any domain logic runs. Schema failures are reported
// field by field so clients can correct the submission.
package schema

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed contributor_submission.json
var contributorSubmissionSchema string

//go:embed document_upload.json
var documentUploadSchema string

// Validator checks raw JSON payloads against the embedded schemas.
type Validator struct {
	contributor *gojsonschema.Schema
	document    *gojsonschema.Schema
}

// NewValidator compiles the embedded schemas. Compilation failure is a
// programming error and is returned so startup can abort.
func NewValidator() (*Validator, error) {
	contributor, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(contributorSubmissionSchema))
	if err != nil {
		return nil, fmt.Errorf("compile contributor submission schema: %w", err)
	}
	document, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentUploadSchema))
	if err != nil {
		return nil, fmt.Errorf("compile document upload schema: %w", err)
	}
	return &Validator{contributor: contributor, document: document}, nil
}

// ValidateContributorSubmission checks a contributor profile submission.
// A non-nil error carries every schema violation, one per line.
func (v *Validator) ValidateContributorSubmission(raw []byte) error {
	return validate(v.contributor, raw)
}

// ValidateDocumentUpload checks a document upload request.
func (v *Validator) ValidateDocumentUpload(raw []byte) error {
	return validate(v.document, raw)
}

func validate(schema *gojsonschema.Schema, raw []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		issues = append(issues, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return fmt.Errorf("%s", strings.Join(issues, "; "))
}
