package email

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotifyFailureSendsLocalizedMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	n := NewSMTPNotifier("mail.local", 2525, "noreply@lastframe.local", zap.NewNop())
	n.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := n.NotifyFailure(context.Background(), "user@example.com", "job-1", "clip.mov", "处理视频失败，请尝试其他文件。")
	require.NoError(t, err)

	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, "noreply@lastframe.local", gotFrom)
	assert.Equal(t, []string{"user@example.com"}, gotTo)

	body := string(gotMsg)
	assert.Contains(t, body, "Subject: LastFrame - extraction failed [Job job-1]")
	assert.Contains(t, body, "charset=UTF-8")
	assert.Contains(t, body, "处理视频失败")
	assert.Contains(t, body, "File: clip.mov")
	assert.True(t, strings.HasPrefix(body, "From: noreply@lastframe.local\r\n"))
}

func TestNotifyFailurePropagatesSendError(t *testing.T) {
	n := NewSMTPNotifier("mail.local", 25, "a@b", zap.NewNop())
	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}
	err := n.NotifyFailure(context.Background(), "u@x", "j", "f.mp4", "msg")
	assert.ErrorContains(t, err, "connection refused")
}
