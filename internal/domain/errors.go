package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrContestNotFound is returned when a contest name is unknown to the store.
	ErrContestNotFound = errors.New("contest not found")
	// ErrTeamNotFound is returned when a team lookup misses within a contest.
	ErrTeamNotFound = errors.New("team not found in contest")
	// ErrTeamNameTaken indicates another team in the contest already uses the name.
	ErrTeamNameTaken = errors.New("team name already taken in this contest")
	// ErrTeamLimitExceeded indicates the contest has reached its total teams limit.
	ErrTeamLimitExceeded = errors.New("contest team limit reached")
	// ErrTeamSizeExceeded indicates adding a member would exceed the team size limit.
	ErrTeamSizeExceeded = errors.New("team size limit exceeded")
	// ErrMemberInAnotherTeam indicates the user already belongs to a team in the contest.
	ErrMemberInAnotherTeam = errors.New("member already belongs to another team")
	// ErrMemberNotInvited indicates the user tried to join without an invitation.
	ErrMemberNotInvited = errors.New("member has not been invited to this team")
	// ErrMemberNotInTeam indicates the target user is not a member of the team.
	ErrMemberNotInTeam = errors.New("member is not in this team")
	// ErrNotTeamOwner indicates an owner-only action was attempted by a regular member.
	ErrNotTeamOwner = errors.New("only the team owner may perform this action")
	// ErrOwnerCannotLeave indicates the owner tried to leave without transferring ownership.
	ErrOwnerCannotLeave = errors.New("the team owner cannot leave; transfer ownership or delete the team")
	// ErrAnswersAlreadySubmitted indicates the team has already finalized its answers.
	ErrAnswersAlreadySubmitted = errors.New("team answers already submitted")
	// ErrQuestionNotFound indicates a question reference is not part of the contest.
	ErrQuestionNotFound = errors.New("question not found in contest")
	// ErrQuestionOutOfRange indicates a question number outside 1..len(questions).
	ErrQuestionOutOfRange = errors.New("question number out of range")
	// ErrWrongPeriod is the sentinel all period-gating failures unwrap to.
	ErrWrongPeriod = errors.New("operation not allowed in the current contest period")
)

// WrongPeriodError reports a period-gated operation invoked outside its
// legal periods. It unwraps to ErrWrongPeriod so errors.Is works.
type WrongPeriodError struct {
	Current  ContestPeriod
	Required []ContestPeriod
}

func (e *WrongPeriodError) Error() string {
	names := make([]string, len(e.Required))
	for i, p := range e.Required {
		names[i] = p.String()
	}
	return fmt.Sprintf("contest is in %s; operation requires %s", e.Current, strings.Join(names, " or "))
}

func (e *WrongPeriodError) Unwrap() error { return ErrWrongPeriod }
