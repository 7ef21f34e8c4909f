package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESMailer_Send(t *testing.T) {
	fake := &fakeSES{}
	mailer := newSESMailer(fake, SESConfig{From: "hello@chimera.io", FromName: "Chimera"})

	err := mailer.Send(context.Background(), "a@x.com", "Subject", "<p>Hi</p>")
	require.NoError(t, err)

	require.NotNil(t, fake.input)
	assert.Equal(t, `"Chimera" <hello@chimera.io>`, aws.ToString(fake.input.FromEmailAddress))
	assert.Equal(t, []string{"a@x.com"}, fake.input.Destination.ToAddresses)
	assert.Equal(t, "Subject", aws.ToString(fake.input.Content.Simple.Subject.Data))
	assert.Equal(t, "<p>Hi</p>", aws.ToString(fake.input.Content.Simple.Body.Html.Data))
}

func TestSESMailer_SendError(t *testing.T) {
	fake := &fakeSES{err: errors.New("throttled")}
	mailer := newSESMailer(fake, SESConfig{From: "hello@chimera.io"})

	err := mailer.Send(context.Background(), "a@x.com", "s", "b")

	assert.ErrorContains(t, err, "throttled")
	assert.Equal(t, "hello@chimera.io", aws.ToString(fake.input.FromEmailAddress))
}

func TestNewSESMailer_StaticCredentials(t *testing.T) {
	mailer, err := NewSESMailer(context.Background(), SESConfig{
		Region:    "eu-west-3",
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
		From:      "hello@chimera.io",
	})

	require.NoError(t, err)
	assert.NotNil(t, mailer.client)
}
