package resume

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jonathan/intern-autoapply/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	answer string
	err    error
	prompt string
	tier   llm.ModelTier
}

func (f *fakeClient) GenerateContent(_ context.Context, prompt string, tier llm.ModelTier) (string, error) {
	f.prompt = prompt
	f.tier = tier
	return f.answer, f.err
}

func (f *fakeClient) Close() error { return nil }

func TestExtractJobTitles(t *testing.T) {
	client := &fakeClient{answer: "Here you go:\n1. Data Analyst\n2. Certified Scrum Master\n3. Backend Developer\n4. Hackathon Winner\n5. ML Intern"}

	titles, err := ExtractJobTitles(context.Background(), client, "Jane Doe\nPython, SQL")
	require.NoError(t, err)
	assert.Equal(t, []string{"Data Analyst", "Backend Developer", "ML Intern"}, titles)
	assert.Equal(t, llm.TierStandard, client.tier)
	assert.Contains(t, client.prompt, "Jane Doe\nPython, SQL")
	assert.NotContains(t, client.prompt, "{{.Resume}}")
}

func TestExtractJobTitles_TruncatesResume(t *testing.T) {
	client := &fakeClient{answer: "1. Analyst"}
	long := strings.Repeat("a", MaxPromptChars) + "TAIL"

	_, err := ExtractJobTitles(context.Background(), client, long)
	require.NoError(t, err)
	assert.NotContains(t, client.prompt, "TAIL")
}

func TestExtractJobTitles_AtMostFive(t *testing.T) {
	client := &fakeClient{answer: "1. A\n2. B\n3. C\n4. D\n5. E\n6. F\n7. G"}

	titles, err := ExtractJobTitles(context.Background(), client, "resume")
	require.NoError(t, err)
	assert.Len(t, titles, MaxJobTitles)
}

func TestExtractJobTitles_NoneLeft(t *testing.T) {
	client := &fakeClient{answer: "1. B.Tech Degree\n2. University Topper\nI am available immediately"}

	_, err := ExtractJobTitles(context.Background(), client, "resume")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, ErrNoJobTitles)
}

func TestExtractJobTitles_APIError(t *testing.T) {
	client := &fakeClient{err: errors.New("quota exceeded")}

	_, err := ExtractJobTitles(context.Background(), client, "resume")
	var ae *APICallError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestExtractJobTitles_EmptyResume(t *testing.T) {
	_, err := ExtractJobTitles(context.Background(), &fakeClient{}, "  \n")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestFilterJobTitles(t *testing.T) {
	got := FilterJobTitles([]string{" Web Developer ", "", "Award-winning Designer", "QA Engineer"})
	assert.Equal(t, []string{"Web Developer", "QA Engineer"}, got)
}
