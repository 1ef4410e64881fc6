package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/nexous-ai/nexous/internal/nexerr"
)

var (
	projectSchema *jsonschema.Schema
	presetSchema  *jsonschema.Schema
)

func init() {
	pc := jsonschema.NewCompiler()
	if err := pc.AddResource("project.schema.json", mustJSON(ProjectSchema)); err != nil {
		panic(err)
	}
	projectSchema = pc.MustCompile("project.schema.json")

	sc := jsonschema.NewCompiler()
	if err := sc.AddResource("preset.schema.json", mustJSON(PresetSchema)); err != nil {
		panic(err)
	}
	presetSchema = sc.MustCompile("preset.schema.json")
}

func mustJSON(s string) any {
	v, err := jsonschema.UnmarshalJSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return v
}

// LoadProjectFile reads, parses, and structurally validates a project
// YAML file, mirroring Runner._load_project.
func LoadProjectFile(path string) (*ProjectSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nexerr.New(nexerr.KindYAMLParse, fmt.Sprintf("project file not found: %s", path), err)
		}
		return nil, nexerr.New(nexerr.KindYAMLParse, err.Error(), err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, nexerr.New(nexerr.KindYAMLParse, fmt.Sprintf("YAML parsing failed: %v", err), err)
	}
	if raw == nil {
		return nil, nexerr.New(nexerr.KindYAMLParse, "empty project file", nil)
	}

	if err := projectSchema.Validate(raw); err != nil {
		return nil, nexerr.New(nexerr.KindSchemaValidation, err.Error(), err)
	}

	var spec ProjectSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, nexerr.New(nexerr.KindYAMLParse, err.Error(), err)
	}
	if spec.ProjectID == "" {
		spec.ProjectID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if spec.Execution.Mode == "" {
		spec.Execution.Mode = "sequential"
	}
	return &spec, nil
}

// LoadPresetFile reads, parses, and structurally validates a preset
// YAML file, mirroring PresetLoader._load_file/_validate_preset.
func LoadPresetFile(path string) (*PresetSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nexerr.New(nexerr.KindPresetLoad, fmt.Sprintf("failed to load preset %s: %v", filepath.Base(path), err), err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, nexerr.New(nexerr.KindPresetLoad, fmt.Sprintf("failed to load preset %s: %v", filepath.Base(path), err), err)
	}
	if raw == nil {
		return nil, nexerr.New(nexerr.KindPresetLoad, fmt.Sprintf("empty preset file: %s", path), nil)
	}

	if err := presetSchema.Validate(raw); err != nil {
		return nil, nexerr.New(nexerr.KindPresetLoad, fmt.Sprintf("%s: %v", filepath.Base(path), err), err)
	}

	var spec PresetSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, nexerr.New(nexerr.KindPresetLoad, err.Error(), err)
	}
	if spec.ID == "" {
		spec.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &spec, nil
}
