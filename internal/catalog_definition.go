package internal

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lychee-technology/filterform"
	"gopkg.in/yaml.v3"
)

// filterDefinition is the on-disk format of one filter type, modeled after
// the schema files a gateway control plane ships for its built-in filters.
type filterDefinition struct {
	Name          string                  `yaml:"name" json:"name"`
	DisplayName   string                  `yaml:"display_name" json:"displayName"`
	Description   string                  `yaml:"description" json:"description"`
	Version       string                  `yaml:"version" json:"version"`
	Capabilities  filterCapabilities      `yaml:"capabilities" json:"capabilities"`
	ConfigSchema  *filterform.SchemaNode  `yaml:"-" json:"configSchema"`
	UIHints       *filterform.UIHints     `yaml:"ui_hints" json:"uiHints"`
	IsImplemented *bool                   `yaml:"is_implemented" json:"isImplemented"`

	// RawSchema holds the YAML schema subtree before ordered conversion.
	RawSchema yaml.Node `yaml:"config_schema" json:"-"`
}

// filterCapabilities mirrors the capabilities block of a definition file.
type filterCapabilities struct {
	AttachmentPoints       []filterform.AttachmentPoint `yaml:"attachment_points" json:"attachmentPoints"`
	RequiresListenerConfig bool                         `yaml:"requires_listener_config" json:"requiresListenerConfig"`
	PerRouteBehavior       filterform.PerRouteBehavior  `yaml:"per_route_behavior" json:"perRouteBehavior"`
}

// ParseDefinition decodes one definition file. YAML and JSON are both
// accepted; the format is chosen by file extension.
func ParseDefinition(data []byte, filename string, source filterform.SchemaSource) (filterform.FilterTypeInfo, error) {
	var def filterDefinition
	if strings.HasSuffix(filename, ".json") {
		if err := json.Unmarshal(data, &def); err != nil {
			return filterform.FilterTypeInfo{}, filterform.NewSchemaInvalidError(
				fmt.Sprintf("failed to parse definition file %s: %v", filename, err)).WithCause(err)
		}
	} else {
		if err := yaml.Unmarshal(data, &def); err != nil {
			return filterform.FilterTypeInfo{}, filterform.NewSchemaInvalidError(
				fmt.Sprintf("failed to parse definition file %s: %v", filename, err)).WithCause(err)
		}
		if def.RawSchema.Kind != 0 {
			schema, err := schemaFromYAML(&def.RawSchema)
			if err != nil {
				return filterform.FilterTypeInfo{}, err
			}
			def.ConfigSchema = schema
		}
	}
	return def.toFilterType(source)
}

// toFilterType validates the definition and converts it to the immutable
// catalog entry.
func (d *filterDefinition) toFilterType(source filterform.SchemaSource) (filterform.FilterTypeInfo, error) {
	if d.Name == "" {
		return filterform.FilterTypeInfo{}, filterform.NewSchemaInvalidError("definition is missing 'name'")
	}
	if d.DisplayName == "" {
		return filterform.FilterTypeInfo{}, filterform.NewSchemaInvalidError(
			fmt.Sprintf("definition '%s' is missing 'display_name'", d.Name))
	}
	if d.ConfigSchema == nil {
		return filterform.FilterTypeInfo{}, filterform.NewSchemaInvalidError(
			fmt.Sprintf("definition '%s' is missing 'config_schema'", d.Name))
	}
	if err := d.ConfigSchema.Validate(); err != nil {
		return filterform.FilterTypeInfo{}, err
	}

	info := filterform.FilterTypeInfo{
		Name:                   d.Name,
		DisplayName:            d.DisplayName,
		Description:            d.Description,
		Version:                d.Version,
		AttachmentPoints:       d.Capabilities.AttachmentPoints,
		RequiresListenerConfig: d.Capabilities.RequiresListenerConfig,
		PerRouteBehavior:       d.Capabilities.PerRouteBehavior,
		IsImplemented:          true,
		Source:                 source,
		ConfigSchema:           d.ConfigSchema,
		UIHints:                d.UIHints,
	}
	if info.Version == "" {
		info.Version = "1.0"
	}
	if len(info.AttachmentPoints) == 0 {
		info.AttachmentPoints = []filterform.AttachmentPoint{filterform.AttachmentRoute}
	}
	if info.PerRouteBehavior == "" {
		info.PerRouteBehavior = filterform.PerRouteFullConfig
	}
	if !info.PerRouteBehavior.Valid() {
		return filterform.FilterTypeInfo{}, filterform.NewSchemaInvalidError(
			fmt.Sprintf("definition '%s' declares unknown per_route_behavior '%s'", d.Name, info.PerRouteBehavior))
	}
	if d.IsImplemented != nil {
		info.IsImplemented = *d.IsImplemented
	}
	return info, nil
}

// schemaFromYAML converts a YAML schema subtree into a SchemaNode directly,
// rather than through an intermediate map, so the declaration order of
// properties survives (Go maps would lose it).
func schemaFromYAML(node *yaml.Node) (*filterform.SchemaNode, error) {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		return schemaFromYAML(node.Content[0])
	}
	if node.Kind != yaml.MappingNode {
		return nil, filterform.NewSchemaInvalidError("config_schema must be a mapping")
	}

	schema := &filterform.SchemaNode{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		var key string
		if err := keyNode.Decode(&key); err != nil {
			return nil, filterform.NewSchemaInvalidError("config_schema has a non-scalar key").WithCause(err)
		}

		var err error
		switch key {
		case "type":
			err = valueNode.Decode(&schema.Type)
		case "title":
			err = valueNode.Decode(&schema.Title)
		case "description":
			err = valueNode.Decode(&schema.Description)
		case "format":
			err = valueNode.Decode(&schema.Format)
		case "pattern":
			err = valueNode.Decode(&schema.Pattern)
		case "required":
			err = valueNode.Decode(&schema.Required)
		case "enum":
			err = valueNode.Decode(&schema.Enum)
		case "const":
			err = valueNode.Decode(&schema.Const)
		case "default":
			err = valueNode.Decode(&schema.Default)
		case "minimum":
			err = valueNode.Decode(&schema.Minimum)
		case "maximum":
			err = valueNode.Decode(&schema.Maximum)
		case "minLength":
			err = valueNode.Decode(&schema.MinLength)
		case "maxLength":
			err = valueNode.Decode(&schema.MaxLength)
		case "items":
			schema.Items, err = schemaFromYAML(valueNode)
		case "properties":
			err = decodeYAMLProperties(valueNode, schema)
		case "additionalProperties":
			err = decodeYAMLAdditionalProperties(valueNode, schema)
		default:
			// Unknown keywords are ignored, matching JSON decoding.
		}
		if err != nil {
			return nil, filterform.NewSchemaInvalidError(
				fmt.Sprintf("invalid '%s' in config_schema: %v", key, err)).WithCause(err)
		}
	}
	return schema, nil
}

func decodeYAMLProperties(node *yaml.Node, schema *filterform.SchemaNode) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("properties must be a mapping")
	}
	properties := make(map[string]*filterform.SchemaNode, len(node.Content)/2)
	order := make([]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var name string
		if err := node.Content[i].Decode(&name); err != nil {
			return err
		}
		child, err := schemaFromYAML(node.Content[i+1])
		if err != nil {
			return err
		}
		properties[name] = child
		order = append(order, name)
	}
	schema.Properties = properties
	schema.SetPropertyOrder(order)
	return nil
}

func decodeYAMLAdditionalProperties(node *yaml.Node, schema *filterform.SchemaNode) error {
	var allowed bool
	if err := node.Decode(&allowed); err == nil {
		schema.AdditionalProperties = &filterform.AdditionalProperties{Allowed: allowed}
		return nil
	}
	child, err := schemaFromYAML(node)
	if err != nil {
		return err
	}
	schema.AdditionalProperties = &filterform.AdditionalProperties{Allowed: true, Schema: child}
	return nil
}
