package mcpservice

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/light-autom8/mcp-server-go/mcp"
	"gopkg.in/yaml.v3"
)

// resourceCatalog is the on-disk YAML layout:
//
//	resources:
//	  - uri: file://customer_policies.txt
//	    name: Customer Policies
//	    description: Customer policies and FAQ document
//	    mimeType: text/plain
type resourceCatalog struct {
	Resources []catalogEntry `yaml:"resources"`
}

type catalogEntry struct {
	URI         string `yaml:"uri"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	MimeType    string `yaml:"mimeType"`
}

// LoadResourceCatalog decodes resource descriptors from YAML. Unknown keys are
// rejected. The descriptors are not validated here; NewRegistry does that.
func LoadResourceCatalog(r io.Reader) ([]mcp.Resource, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cat resourceCatalog
	if err := dec.Decode(&cat); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode resource catalog: %w", err)
	}

	out := make([]mcp.Resource, 0, len(cat.Resources))
	for i, e := range cat.Resources {
		if e.URI == "" {
			return nil, fmt.Errorf("resource catalog entry %d: missing uri", i)
		}
		out = append(out, mcp.Resource{
			URI:         e.URI,
			Name:        e.Name,
			Description: e.Description,
			MimeType:    e.MimeType,
		})
	}
	return out, nil
}

// LoadResourceCatalogFile is LoadResourceCatalog over a file path.
func LoadResourceCatalogFile(path string) ([]mcp.Resource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open resource catalog: %w", err)
	}
	defer f.Close()
	return LoadResourceCatalog(f)
}
