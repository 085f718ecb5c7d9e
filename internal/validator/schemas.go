// internal/validator/schemas.go
package validator

import "loan-origination/internal/common/validation"

var preQualificationSchema = validation.MustCompileSchema(`{
  "type": "object",
  "required": ["applicantName", "phone", "email", "dateOfBirth", "panNumber", "loanAmount", "loanPurpose", "employmentType", "monthlyIncome"],
  "properties": {
    "applicantName":       {"type": "string", "minLength": 2, "maxLength": 100},
    "phone":               {"type": "string", "minLength": 1},
    "email":               {"type": "string", "minLength": 1},
    "dateOfBirth":         {"type": "string", "minLength": 1},
    "panNumber":           {"type": "string", "minLength": 1},
    "loanAmount":          {"type": "number", "minimum": 1},
    "loanPurpose":         {"type": "string", "minLength": 1},
    "employmentType":      {"type": "string", "minLength": 1},
    "monthlyIncome":       {"type": "number", "minimum": 0},
    "companyName":         {"type": "string"},
    "workExperienceYears": {"type": "number", "minimum": 0},
    "existingEmi":         {"type": "number", "minimum": 0}
  }
}`)

var loanApplicationSchema = validation.MustCompileSchema(`{
  "type": "object",
  "required": ["personal_details", "employment_details", "address_details", "banking_details", "references", "required_documents"],
  "definitions": {
    "address": {
      "type": "object",
      "required": ["street_address", "city", "state", "pincode"],
      "properties": {
        "street_address":   {"type": "string", "minLength": 1},
        "city":             {"type": "string", "minLength": 1},
        "state":            {"type": "string", "minLength": 1},
        "pincode":          {"type": "string", "minLength": 1},
        "years_at_address": {"type": "number", "minimum": 0}
      }
    },
    "document": {
      "type": "object",
      "required": ["document_type", "document_url"],
      "properties": {
        "document_type": {"type": "string"},
        "document_url":  {"type": "string"}
      }
    }
  },
  "properties": {
    "personal_details": {
      "type": "object",
      "required": ["aadhaar_number"],
      "properties": {
        "aadhaar_number":       {"type": "string", "minLength": 1},
        "number_of_dependents": {"type": "integer", "minimum": 0}
      }
    },
    "employment_details": {
      "type": "object",
      "required": ["employment_type", "company_name", "monthly_gross_income", "current_job_experience_years"],
      "properties": {
        "employment_type":              {"type": "string", "minLength": 1},
        "company_name":                 {"type": "string", "minLength": 1},
        "monthly_gross_income":         {"type": "number", "minimum": 0},
        "monthly_net_income":           {"type": "number", "minimum": 0},
        "work_experience_years":        {"type": "number", "minimum": 0},
        "current_job_experience_years": {"type": "number", "minimum": 0}
      }
    },
    "address_details": {
      "type": "object",
      "required": ["current_address"],
      "properties": {
        "current_address":   {"$ref": "#/definitions/address"},
        "permanent_address": {"$ref": "#/definitions/address"},
        "same_as_current":   {"type": "boolean"}
      }
    },
    "banking_details": {
      "type": "object",
      "required": ["primary_account"],
      "properties": {
        "primary_account": {
          "type": "object",
          "required": ["account_number", "ifsc_code", "bank_name"],
          "properties": {
            "account_number":      {"type": "string", "minLength": 1},
            "ifsc_code":           {"type": "string", "minLength": 1},
            "bank_name":           {"type": "string", "minLength": 1},
            "account_holder_name": {"type": "string"}
          }
        },
        "monthly_expenses": {
          "type": "object",
          "properties": {
            "total_monthly_expenses": {"type": "number", "minimum": 0}
          }
        }
      }
    },
    "references": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "mobile", "relationship"],
        "properties": {
          "name":         {"type": "string", "minLength": 1},
          "mobile":       {"type": "string", "minLength": 1},
          "relationship": {"type": "string", "minLength": 1},
          "years_known":  {"type": "number", "minimum": 0}
        }
      }
    },
    "required_documents": {
      "type": "object",
      "properties": {
        "identity_proof":  {"$ref": "#/definitions/document"},
        "address_proof":   {"$ref": "#/definitions/document"},
        "income_proof":    {"$ref": "#/definitions/document"},
        "bank_statements": {"$ref": "#/definitions/document"}
      }
    },
    "additional_information": {
      "type": "object",
      "properties": {
        "preferred_tenure_months": {"type": "integer", "minimum": 0}
      }
    }
  }
}`)

var fundingSchema = validation.MustCompileSchema(`{
  "type": "object",
  "required": ["disbursementMethod"],
  "properties": {
    "applicationId":      {"type": "string"},
    "disbursementMethod": {"type": "string", "minLength": 1}
  }
}`)

var reviewSchema = validation.MustCompileSchema(`{
  "type": "object",
  "required": ["decision", "reviewer"],
  "properties": {
    "decision": {"type": "string", "enum": ["approved", "rejected"]},
    "reviewer": {"type": "string", "minLength": 1},
    "note":     {"type": "string", "maxLength": 1000}
  }
}`)
