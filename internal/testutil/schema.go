package testutil

// SchemaJSON is a reduced destination data model used across package tests.
// It keeps the node types, enums and required lists the engine depends on.
var SchemaJSON = []byte(`{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://example.org/harmonized.schema.json",
  "type": "object",
  "$defs": {
    "nodes": {
      "enum": ["study", "participant", "diagnosis", "survival", "treatment", "treatment_response", "reference_file"]
    },
    "study": {
      "type": "object",
      "properties": {
        "study_id": {"type": "string"},
        "dbgap_accession": {"type": "string"},
        "study_name": {"type": "string"}
      },
      "required": ["study_id"]
    },
    "participant": {
      "type": "object",
      "properties": {
        "participant_id": {"type": "string"},
        "race": {
          "type": "array",
          "items": {
            "type": "string",
            "enum": [
              "American Indian or Alaska Native",
              "Asian",
              "Black or African American",
              "Hispanic or Latino",
              "Native Hawaiian or Other Pacific Islander",
              "Not Allowed to Collect",
              "Not Reported",
              "Unknown",
              "White"
            ]
          }
        },
        "sex_at_birth": {"type": "string", "enum": ["Female", "Male", "Not Reported", "Unknown"]},
        "study.study_id": {"type": "string"}
      },
      "required": ["participant_id", "race"]
    },
    "diagnosis": {
      "type": "object",
      "properties": {
        "diagnosis_id": {"type": "string"},
        "diagnosis": {"type": "string"},
        "anatomic_site": {
          "type": "string",
          "enum": [
            "C49.9 : Connective, subcutaneous and other soft tissues, NOS",
            "C64.9 : Kidney",
            "C64.9 : Kidney, NOS",
            "C71.9 : Brain, NOS",
            "Not Reported",
            "Unknown"
          ]
        },
        "age_at_diagnosis": {"type": ["integer", "null"]},
        "participant.participant_id": {"type": "string"}
      },
      "required": ["diagnosis_id", "diagnosis"]
    },
    "survival": {
      "type": "object",
      "properties": {
        "survival_id": {"type": "string"},
        "last_known_survival_status": {"type": "string", "enum": ["Alive", "Dead", "Not Reported", "Unknown"]},
        "age_at_last_known_survival_status": {"type": "integer"},
        "participant.participant_id": {"type": "string"}
      },
      "required": ["survival_id", "last_known_survival_status"]
    },
    "treatment": {
      "type": "object",
      "properties": {
        "treatment_id": {"type": "string"},
        "treatment_type": {
          "type": "array",
          "items": {"type": "string", "enum": ["Chemotherapy", "Radiation Therapy", "Surgical Procedure", "Not Reported"]}
        },
        "age_at_treatment_start": {"type": "integer"},
        "participant.participant_id": {"type": "string"}
      },
      "required": ["treatment_id", "treatment_type"]
    },
    "treatment_response": {
      "type": "object",
      "properties": {
        "treatment_response_id": {"type": "string"},
        "response": {
          "type": "string",
          "enum": ["Complete Remission", "Partial Remission", "Progressive Disease", "Stable Disease", "Unknown", "Not Reported"]
        },
        "age_at_response": {"type": "integer"},
        "response_category": {"type": "string", "enum": ["Clinical Response", "Not Reported", "Other"]},
        "participant.participant_id": {"type": "string"}
      },
      "required": ["treatment_response_id", "response"]
    },
    "reference_file": {
      "type": "object",
      "properties": {
        "reference_file_id": {"type": "string"},
        "file_name": {"type": "string"},
        "file_type": {"type": "string"},
        "file_category": {
          "type": "string",
          "enum": ["input source data", "output schema", "programmatic source code", "transformation/mapping"]
        },
        "file_size": {"type": "integer"},
        "md5sum": {"type": "string"},
        "file_description": {"type": "string"},
        "reference_file_url": {"type": "string"},
        "dcf_indexd_guid": {"type": "string"},
        "study.study_id": {"type": "string"}
      },
      "required": ["reference_file_id", "file_name", "file_type", "file_category", "file_size", "md5sum"]
    }
  }
}`)
