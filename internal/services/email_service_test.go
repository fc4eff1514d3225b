package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"mystrymsg/internal/logging"
)

func TestEmailService_SendVerificationEmail(t *testing.T) {
	var (
		gotFrom string
		gotTo   []string
		raw     bytes.Buffer
	)
	sender := gomail.SendFunc(func(from string, to []string, msg io.WriterTo) error {
		gotFrom, gotTo = from, to
		_, err := msg.WriteTo(&raw)
		return err
	})
	svc := newEmailServiceWithSender(sender, "no-reply@mystrymsg.app", "https://mystrymsg.app/")

	err := svc.SendVerificationEmail(context.Background(), "alice@x.com", "alice", "123456")
	require.NoError(t, err)

	assert.Equal(t, "no-reply@mystrymsg.app", gotFrom)
	assert.Equal(t, []string{"alice@x.com"}, gotTo)
	assert.Contains(t, raw.String(), "123456")
	assert.Contains(t, raw.String(), "https://mystrymsg.app/verify/alice")
}

func TestEmailService_SendError(t *testing.T) {
	sender := gomail.SendFunc(func(string, []string, io.WriterTo) error {
		return errors.New("smtp down")
	})
	svc := newEmailServiceWithSender(sender, "from@x.com", "http://localhost")

	err := svc.SendVerificationEmail(context.Background(), "a@x.com", "a_user", "000000")
	require.ErrorContains(t, err, "smtp down")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, svc.SendVerificationEmail(ctx, "a@x.com", "a_user", "000000"), context.Canceled)
}

func TestLogEmailService(t *testing.T) {
	svc := NewLogEmailService(logging.Discard())
	assert.NoError(t, svc.SendVerificationEmail(context.Background(), "a@x.com", "a", "111111"))
}
