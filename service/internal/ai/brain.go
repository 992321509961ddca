// internal/ai/brain.go
package ai

import (
	"fmt"
	"time"

	engine "github.com/feng-mou-mou/Railof1914/engine"
)

// Brain holds the difficulty-dependent tuning of the AI opponent.
type Brain interface {
	Difficulty() engine.Difficulty
	// ThinkingTime is the simulated delay before the AI acts.
	ThinkingTime() time.Duration
	// WarProbability is the chance of declaring war in the given round.
	WarProbability(round int) float64
}

// EasyBrain declares war half as often and thinks quickly.
type EasyBrain struct{}

func (EasyBrain) Difficulty() engine.Difficulty { return engine.DifficultyEasy }
func (EasyBrain) ThinkingTime() time.Duration { return engine.ThinkingTime(engine.DifficultyEasy) }
func (EasyBrain) WarProbability(round int) float64 {
	return engine.WarDeclarationProbability(round, engine.DifficultyEasy)
}

// MediumBrain uses the base tables unchanged.
type MediumBrain struct{}

func (MediumBrain) Difficulty() engine.Difficulty { return engine.DifficultyMedium }
func (MediumBrain) ThinkingTime() time.Duration { return engine.ThinkingTime(engine.DifficultyMedium) }
func (MediumBrain) WarProbability(round int) float64 {
	return engine.WarDeclarationProbability(round, engine.DifficultyMedium)
}

// HardBrain is more aggressive and takes longer to think.
type HardBrain struct{}

func (HardBrain) Difficulty() engine.Difficulty { return engine.DifficultyHard }
func (HardBrain) ThinkingTime() time.Duration { return engine.ThinkingTime(engine.DifficultyHard) }
func (HardBrain) WarProbability(round int) float64 {
	return engine.WarDeclarationProbability(round, engine.DifficultyHard)
}

// NewBrain creates the brain for a difficulty level.
func NewBrain(d engine.Difficulty) (Brain, error) {
	switch d {
	case engine.DifficultyEasy:
		return EasyBrain{}, nil
	case engine.DifficultyMedium:
		return MediumBrain{}, nil
	case engine.DifficultyHard:
		return HardBrain{}, nil
	default:
		return nil, fmt.Errorf("unknown difficulty: %d", d)
	}
}
