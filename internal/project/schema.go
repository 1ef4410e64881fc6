package project

// Structural JSON Schemas for project and preset files (spec §6). These
// validate shape only — required fields, types — never the semantic
// content of LLM output, per the spec's explicit Non-goal. Grounded on
// the field checks hand-written in original_source's
// runner.py._load_project and preset_loader.py._validate_preset,
// expressed declaratively and enforced through
// github.com/santhosh-tekuri/jsonschema/v6 instead of imperative
// if-checks, the idiomatic-Go way to validate config shape.
const ProjectSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["agents"],
  "properties": {
    "project_id": {"type": "string"},
    "execution": {
      "type": "object",
      "properties": {"mode": {"type": "string"}}
    },
    "agents": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "preset"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "preset": {"type": "string", "minLength": 1},
          "purpose": {"type": "string"},
          "inputs": {"type": "object"},
          "dependencies": {
            "type": "array",
            "items": {"type": "string"}
          }
        }
      }
    }
  }
}`

const PresetSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["role", "llm", "system_prompt"],
  "properties": {
    "id": {"type": "string"},
    "role": {"type": "string", "minLength": 1},
    "system_prompt": {"type": "string"},
    "tools": {
      "type": "array",
      "items": {"type": "string"}
    },
    "llm": {
      "type": "object",
      "anyOf": [
        {
          "required": ["policy"],
          "properties": {
            "policy": {
              "type": "object",
              "required": ["primary"],
              "properties": {"primary": {"type": "string", "minLength": 1}}
            }
          }
        },
        {"required": ["provider"]},
        {"required": ["model"]}
      ]
    },
    "output_policy": {
      "type": "object",
      "properties": {
        "format": {"type": "string"},
        "required_fields": {
          "type": "array",
          "items": {"type": "string"}
        }
      }
    }
  }
}`
