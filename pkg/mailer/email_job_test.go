package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-library-management/pkg/mailer/templates"
)

func TestNewJobRendersTemplate(t *testing.T) {
	data := templates.NewEmailData("Library", templates.LoanReturned, "Ana", "ana@example.com", templates.WithBook("Rayuela", "Cortázar"))

	job, err := NewJob(" ana@example.com ", templates.LoanReturned, data)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", job.To)
	assert.Equal(t, `Library: "Rayuela" returned`, job.Subject)
	assert.NotEmpty(t, job.HTML)
	assert.Equal(t, templates.LoanReturned, job.Template)
}

func TestNewJobRequiresRecipient(t *testing.T) {
	_, err := NewJob("", templates.LowStockAlert, templates.EmailData{})
	assert.Error(t, err)
}

func TestMailgunConfigured(t *testing.T) {
	assert.False(t, NewMailgun("mg.example.com", "", "library@example.com").Configured())
	assert.True(t, NewMailgun("mg.example.com", "key", "library@example.com").Configured())
}
