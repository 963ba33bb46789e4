package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"wasend/internal/session"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(fmt.Errorf("x: %w", session.ErrAuthentication)))
	assert.Equal(t, 3, exitCode(session.ErrUnsupportedMedia))
	assert.Equal(t, 4, exitCode(session.ErrUploadRequest))
	assert.Equal(t, 4, exitCode(session.ErrUpload))
	assert.Equal(t, 5, exitCode(session.ErrTransport))
	assert.Equal(t, 130, exitCode(fmt.Errorf("session interrupted: %w", context.Canceled)))
	assert.Equal(t, 1, exitCode(errors.New("other")))
}

func TestRunRejectsBadUsage(t *testing.T) {
	assert.Error(t, run(nil))
	assert.Error(t, run([]string{"bogus"}))
	assert.Error(t, run([]string{"send", "31600000000"}))
	assert.Error(t, run([]string{"media", "31600000000"}))
	assert.NoError(t, run([]string{"help"}))
}
