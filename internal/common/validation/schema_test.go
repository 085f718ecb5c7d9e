package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
	"type": "object",
	"required": ["name", "amount", "details"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"amount": {"type": "number", "minimum": 1},
		"details": {
			"type": "object",
			"required": ["city"],
			"properties": {"city": {"type": "string"}}
		}
	}
}`

// ==========================
// Schema Tests
// ==========================

func TestSchema_Validate(t *testing.T) {
	schema := MustCompileSchema(testSchema)

	tests := []struct {
		name       string
		document   string
		valid      bool
		wantFields []string
		wantCode   string
	}{
		{
			name:     "valid document",
			document: `{"name":"a","amount":10,"details":{"city":"Pune"}}`,
			valid:    true,
		},
		{
			name:       "missing top level fields",
			document:   `{"details":{"city":"Pune"}}`,
			wantFields: []string{"name", "amount"},
			wantCode:   CodeRequired,
		},
		{
			name:       "missing nested field",
			document:   `{"name":"a","amount":10,"details":{}}`,
			wantFields: []string{"details.city"},
			wantCode:   CodeRequired,
		},
		{
			name:       "wrong type",
			document:   `{"name":"a","amount":"ten","details":{"city":"Pune"}}`,
			wantFields: []string{"amount"},
			wantCode:   CodeInvalidType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := schema.Validate([]byte(tt.document))
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid)
			for _, f := range tt.wantFields {
				assert.True(t, result.HasErrors(f), "expected error for %s, got %v", f, result.Errors)
			}
			if tt.wantCode != "" {
				for _, e := range result.Errors {
					assert.Equal(t, tt.wantCode, e.Code)
				}
			}
		})
	}
}

func TestSchema_ValidateMalformedJSON(t *testing.T) {
	schema := MustCompileSchema(testSchema)
	_, err := schema.Validate([]byte(`{"name":`))
	assert.Error(t, err)
}

func TestCompileSchema_Invalid(t *testing.T) {
	_, err := CompileSchema(`{"type": 12}`)
	assert.Error(t, err)
}

func TestValidationResult_Helpers(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Valid)

	r.Add("banking_details.primary_account.ifsc_code", CodeInvalidFormat, "invalid IFSC")
	other := NewResult()
	other.Add("phone", CodeInvalidFormat, "invalid mobile number")
	r.Merge(other)

	assert.False(t, r.Valid)
	assert.Len(t, r.Errors, 2)
	assert.Len(t, r.GetErrorsForField("banking_details"), 1)
	assert.Equal(t, []string{
		"banking_details.primary_account.ifsc_code: invalid IFSC",
		"phone: invalid mobile number",
	}, r.GetErrorMessages())
}

// ==========================
// Format Tests
// ==========================

func TestNormalizeMobile(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		valid bool
	}{
		{"9876543210", "9876543210", true},
		{"+91 98765 43210", "9876543210", true},
		{"91-9876543210", "9876543210", true},
		{"09876543210", "9876543210", true},
		{"123", "123", false},
		{"5876543210", "5876543210", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeMobile(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.valid, ok)
		})
	}
}

func TestIdentifierFormats(t *testing.T) {
	pan, ok := NormalizePAN(" abcde1234f ")
	assert.True(t, ok)
	assert.Equal(t, "ABCDE1234F", pan)

	_, ok = NormalizePAN("INVALID")
	assert.False(t, ok)

	aadhaar, ok := NormalizeAadhaar("1234 5678 9012")
	assert.True(t, ok)
	assert.Equal(t, "123456789012", aadhaar)

	_, ok = NormalizeAadhaar("12345")
	assert.False(t, ok)

	ifsc, ok := NormalizeIFSC("hdfc0001234")
	assert.True(t, ok)
	assert.Equal(t, "HDFC0001234", ifsc)

	_, ok = NormalizeIFSC("HDFC1001234")
	assert.False(t, ok)

	assert.True(t, ValidatePincode("400001"))
	assert.False(t, ValidatePincode("40001"))
	assert.True(t, ValidateAccountNumber("123456789012"))
	assert.False(t, ValidateAccountNumber("12345"))
	assert.True(t, ValidateEmail("rajesh.kumar@email.com"))
	assert.False(t, ValidateEmail("rajesh.kumar"))
	assert.True(t, ValidateURL("https://docs.example.com/pan.pdf"))
	assert.False(t, ValidateURL("pan.pdf"))
}

func TestParseDateAndAge(t *testing.T) {
	dob, ok := ParseDate("1990-05-15")
	require.True(t, ok)

	assert.Equal(t, 35, AgeOn(dob, time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 36, AgeOn(dob, time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC)))

	_, ok = ParseDate("15/05/1990")
	assert.False(t, ok)
}
