package agent

import (
	"fmt"
	"math"
	"strings"

	"support-chat-ai-backend/pkg/constants"
	"support-chat-ai-backend/pkg/models"
)

// AdvanceGoal computes the goal state after one more turn. Progress from
// turn count alone is capped below 1.0; only an action containing
// "resolved" asserts completion. The goal deactivates when progress hits
// 1.0 or the turn ceiling is reached, whichever comes first.
func AdvanceGoal(goal models.Goal, state models.GoalState, latestAction string) (models.GoalState, error) {
	if goal.MaxTurns < 1 {
		return models.GoalState{}, fmt.Errorf("%w: got %d", ErrInvalidGoal, goal.MaxTurns)
	}

	newTurn := state.CurrentTurn + 1

	progress := math.Min(float64(newTurn)/float64(goal.MaxTurns), constants.TurnProgressCap)
	progress = math.Round(progress*100) / 100

	if strings.Contains(strings.ToLower(latestAction), constants.ResolvedMarker) {
		progress = 1.0
	}

	return models.GoalState{
		Active:      progress < 1.0 && newTurn < goal.MaxTurns,
		CurrentTurn: newTurn,
		Progress:    progress,
	}, nil
}
