package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduleRestart(t *testing.T) {
	err := scheduleRestart(context.Background(), 10*time.Millisecond)
	assert.ErrorIs(t, err, errScheduledRestart)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, scheduleRestart(ctx, time.Hour))
}

func TestApp_HashPassword(t *testing.T) {
	assert.NoError(t, app().Run([]string{"loginserver", "hash-password", "secret"}))
	assert.Error(t, app().Run([]string{"loginserver", "hash-password"}))
}
