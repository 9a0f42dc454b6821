package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_SubmissionRecords(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"empty array", `[]`, false},
		{"valid record", `[{"link":"https://internshala.com/internship/detail/x","title":"Intern","company":"Acme","timestamp":"2024-05-01T10:00:00Z"}]`, false},
		{"missing link", `[{"title":"Intern","company":"Acme","timestamp":"2024-05-01T10:00:00Z"}]`, true},
		{"trailing slash link", `[{"link":"https://a.com/x/","title":"","company":"","timestamp":"2024-05-01T10:00:00Z"}]`, false},
		{"slash-only link", `[{"link":" / ","title":"","company":"","timestamp":"2024-05-01T10:00:00Z"}]`, true},
		{"bad timestamp", `[{"link":"https://a.com/x","title":"","company":"","timestamp":"yesterday"}]`, true},
		{"object instead of array", `{"link":"https://a.com/x"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(SubmissionRecords, []byte(tt.doc))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.NotEmpty(t, ve.Errors)
			assert.Contains(t, ve.Error(), "submission_records validation failed")
		})
	}
}

func TestValidate_JobTitles(t *testing.T) {
	assert.NoError(t, Validate(JobTitles, []byte(`{"job_titles":["Data Analyst"]}`)))

	var ve *ValidationError
	require.ErrorAs(t, Validate(JobTitles, []byte(`{"job_titles":[]}`)), &ve)
	require.ErrorAs(t, Validate(JobTitles, []byte(`{"job_titles":["a","b","c","d","e","f"]}`)), &ve)
	require.ErrorAs(t, Validate(JobTitles, []byte(`{}`)), &ve)
	assert.Equal(t, "(root)", ve.Errors[0].Field)
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("missing", []byte(`{}`))

	var le *SchemaLoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "missing", le.Name)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestValidate_NotJSON(t *testing.T) {
	err := Validate(JobTitles, []byte(`not json`))
	require.Error(t, err)

	var ve *ValidationError
	assert.False(t, errors.As(err, &ve))
}
