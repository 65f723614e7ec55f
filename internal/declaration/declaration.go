// Package declaration parses service definition files and resolves their tenant.
package declaration

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/nahidhasan98/ghe-as3-relay/internal/models"
)

var (
	// ErrNoTenant is returned when no component has class Tenant
	ErrNoTenant = errors.New("no tenant found in declaration")

	// ErrMultipleTenants is returned when more than one component has class Tenant
	ErrMultipleTenants = errors.New("multiple tenants found in declaration")

	// ErrMissingDeclaration is returned when the document has no declaration mapping
	ErrMissingDeclaration = errors.New("document has no 'declaration' object")
)

// component is the part of a declaration entry the relay cares about
type component struct {
	Class string `mapstructure:"class"`
}

// Parse decodes a service definition. JSON is tried first, then YAML.
func Parse(body []byte) (*models.ServiceDeclaration, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("empty service definition")
	}

	var doc map[string]any
	jsonErr := json.Unmarshal(body, &doc)
	if jsonErr != nil {
		doc = nil
		if err := yaml.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("service definition is neither JSON (%v) nor YAML: %w", jsonErr, err)
		}
	}

	if doc == nil {
		return nil, ErrMissingDeclaration
	}

	decl, ok := doc["declaration"].(map[string]any)
	if !ok {
		return nil, ErrMissingDeclaration
	}

	return &models.ServiceDeclaration{Declaration: decl, Raw: doc}, nil
}

// Tenant returns the key of the single component whose class is Tenant
func Tenant(decl *models.ServiceDeclaration) (string, error) {
	if decl == nil {
		return "", ErrNoTenant
	}

	var tenants []string
	for key, value := range decl.Declaration {
		entry, ok := value.(map[string]any)
		if !ok {
			continue
		}

		var c component
		if err := mapstructure.Decode(entry, &c); err != nil {
			return "", fmt.Errorf("decode component %q: %w", key, err)
		}

		if c.Class == models.ClassTenant {
			tenants = append(tenants, key)
		}
	}

	switch len(tenants) {
	case 0:
		return "", ErrNoTenant
	case 1:
		return tenants[0], nil
	default:
		sort.Strings(tenants)
		return "", fmt.Errorf("%w: %s", ErrMultipleTenants, strings.Join(tenants, ", "))
	}
}

// Body returns the JSON document to send to the declare endpoint
func Body(decl *models.ServiceDeclaration) ([]byte, error) {
	if decl == nil {
		return nil, ErrMissingDeclaration
	}
	doc := decl.Raw
	if doc == nil {
		doc = map[string]any{"declaration": decl.Declaration}
	}
	return json.Marshal(doc)
}
