package logger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNew_Level(t *testing.T) {
	l := New("debug")
	assert.True(t, l.Core().Enabled(zap.DebugLevel))

	l = New("warn")
	assert.False(t, l.Core().Enabled(zap.InfoLevel))
	assert.True(t, l.Core().Enabled(zap.WarnLevel))
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	l := New("loud")
	assert.True(t, l.Core().Enabled(zap.InfoLevel))
	assert.False(t, l.Core().Enabled(zap.DebugLevel))
}

func TestNamed(t *testing.T) {
	assert.NotNil(t, Named("widget"))
}

func TestSugar_ConcurrentFirstUse(t *testing.T) {
	var wg sync.WaitGroup
	loggers := make([]*zap.SugaredLogger, 8)
	for i := range loggers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			loggers[i] = Sugar()
		}(i)
	}
	wg.Wait()

	for _, l := range loggers {
		assert.Same(t, loggers[0], l)
	}
}
