package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidRequestFile is returned when a request file does not match the
// request file schema.
var ErrInvalidRequestFile = errors.New("invalid request file")

// RequestFile is the on-disk form of a draft request used by the CLI.
type RequestFile struct {
	Name         string `json:"name,omitempty"`
	CollectionID string `json:"collectionId,omitempty"`
	DraftRequest
}

const requestFileSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["method", "url"],
  "properties": {
    "name": {"type": "string"},
    "collectionId": {"type": "string"},
    "method": {"type": "string", "minLength": 1},
    "url": {"type": "string"},
    "body": {"type": "string"},
    "testScript": {"type": "string"},
    "headers": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["key"],
        "properties": {
          "key": {"type": "string"},
          "value": {"type": "string"},
          "disabled": {"type": "boolean"}
        }
      }
    },
    "auth": {
      "type": "object",
      "properties": {
        "type": {"enum": ["", "inherit", "noauth", "bearer", "basic", "apikey", "digest", "oauth1", "oauth2"]},
        "bearer": {"$ref": "#/definitions/authVars"},
        "basic": {"$ref": "#/definitions/authVars"},
        "apikey": {"$ref": "#/definitions/authVars"},
        "digest": {"$ref": "#/definitions/authVars"},
        "oauth1": {"$ref": "#/definitions/authVars"},
        "oauth2": {"$ref": "#/definitions/authVars"}
      }
    }
  },
  "definitions": {
    "authVars": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["key"],
        "properties": {
          "key": {"type": "string"},
          "value": {"type": "string"},
          "type": {"type": "string"}
        }
      }
    }
  }
}`

var requestFileSchemaLoader = gojsonschema.NewStringLoader(requestFileSchema)

// ValidateRequestFile checks raw JSON against the request file schema.
func ValidateRequestFile(data []byte) error {
	result, err := gojsonschema.Validate(requestFileSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequestFile, err)
	}
	if result.Valid() {
		return nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequestFile, strings.Join(problems, "; "))
}

// ParseRequestFile validates and decodes a request file.
func ParseRequestFile(data []byte) (*RequestFile, error) {
	if err := ValidateRequestFile(data); err != nil {
		return nil, err
	}
	var rf RequestFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("decoding request file: %w", err)
	}
	return &rf, nil
}

// LoadRequestFile reads and parses a request file from disk.
func LoadRequestFile(path string) (*RequestFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open request file: %w", err)
	}
	return ParseRequestFile(data)
}
