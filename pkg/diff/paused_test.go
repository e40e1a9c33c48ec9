package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPausedChecker(t *testing.T) {
	checker := NewPausedChecker()

	running := makeState()
	paused := makeState()
	paused.Paused = true

	assert.Empty(t, checker.Check(at(0, running)))

	assert.Equal(t, []string{"The game is now paused"}, Messages(checker.Check(at(1, paused))))
	assert.Empty(t, checker.Check(at(2, paused)))

	assert.Equal(t, []string{"The game is now un-paused"}, Messages(checker.Check(at(3, running))))
	assert.Empty(t, checker.Check(at(4, running)))
}

func TestPausedCheckerStartsPaused(t *testing.T) {
	paused := makeState()
	paused.Paused = true

	checker := NewPausedChecker()
	assert.Equal(t, []string{"The game is now paused"}, Messages(checker.Check(at(0, paused))))
}
