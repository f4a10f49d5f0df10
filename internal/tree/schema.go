package tree

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaURL is the $schema value written into new configuration files.
const SchemaURL = "./" + SchemaFileName

// JSONSchema returns the JSON schema of ConfigFileName, indented.
func JSONSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		DoNotReference:             true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		RequiredFromJSONSchemaTags: true,
	}
	s := r.Reflect(&File{})
	s.Title = "tikibase configuration"
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("tree: marshal schema: %w", err)
	}
	return append(data, '\n'), nil
}

// DefaultConfigFile returns the content of a fresh ConfigFileName.
func DefaultConfigFile() ([]byte, error) {
	data, err := json.MarshalIndent(File{Schema: SchemaURL}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("tree: marshal config: %w", err)
	}
	return append(data, '\n'), nil
}
