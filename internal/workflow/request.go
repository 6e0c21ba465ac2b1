package workflow

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	glerrors "github.com/chazuruo/glflow/internal/errors"
)

//go:embed request.schema.json
var requestSchema string

var requestSchemaLoader = gojsonschema.NewStringLoader(requestSchema)

// Request describes the issue a start run creates.
type Request struct {
	IssueCode   string   `json:"issueCode" yaml:"issueCode" validate:"required"`
	Title       string   `json:"title" yaml:"title" validate:"required"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Labels      []string `json:"labels,omitempty" yaml:"labels,omitempty" validate:"dive,required"`

	// Base overrides the configured base branch.
	Base string `json:"base,omitempty" yaml:"base,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		return name
	})
	return v
}

// Normalize trims every field and drops empty labels.
func (r *Request) Normalize() {
	r.IssueCode = strings.TrimSpace(r.IssueCode)
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Base = strings.TrimSpace(r.Base)

	labels := r.Labels[:0]
	for _, l := range r.Labels {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}
	r.Labels = labels
}

// Validate checks the required fields.
func (r *Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%w: %v", glerrors.ErrInvalid, err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s is required", fe.Field()))
	}
	return glerrors.Precondition("invalid request: %s", strings.Join(problems, "; "))
}

// LoadRequest reads a request from a JSON file, or a YAML file when the
// extension is .yaml or .yml, and checks it against the request schema.
func LoadRequest(path string) (*Request, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, glerrors.Precondition("request file not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", glerrors.ErrIO, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return UnmarshalRequestYAML(data)
	default:
		return UnmarshalRequest(data)
	}
}

// UnmarshalRequest parses and validates a JSON request.
func UnmarshalRequest(data []byte) (*Request, error) {
	result, err := gojsonschema.Validate(requestSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, glerrors.Precondition("request is not valid JSON: %v", err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, glerrors.Precondition("invalid request: %s", strings.Join(problems, "; "))
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, glerrors.Precondition("invalid request: %v", err)
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

// UnmarshalRequestYAML parses a YAML request and validates it as JSON.
func UnmarshalRequestYAML(data []byte) (*Request, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, glerrors.Precondition("request is not valid YAML: %v", err)
	}

	converted, err := json.Marshal(doc)
	if err != nil {
		return nil, glerrors.Precondition("request cannot be represented as JSON: %v", err)
	}
	return UnmarshalRequest(converted)
}
