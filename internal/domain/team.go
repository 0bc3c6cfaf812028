package domain

// Team is a named group of participants competing within a contest. The
// owner is an implicit member and never appears in MemberIDs. Answers maps
// question numbers to the raw submitted value; scoring happens lazily in
// TotalPoints so re-answering stays cheap.
type Team struct {
	Name             string          `json:"name"`
	OwnerID          string          `json:"ownerId"`
	ChannelID        string          `json:"channelId,omitempty"`
	MemberIDs        []string        `json:"memberIds"`
	InvitedMemberIDs []string        `json:"invitedMemberIds"`
	Answers          map[int]float64 `json:"answers"`
	AnswersSubmitted bool            `json:"answersSubmitted"`
	SubmitRanking    int             `json:"submitRanking"`
}

func NewTeam(name, ownerID string, invited ...string) *Team {
	return &Team{
		Name:             name,
		OwnerID:          ownerID,
		MemberIDs:        []string{},
		InvitedMemberIDs: append([]string{}, invited...),
		Answers:          make(map[int]float64),
	}
}

// HasMember reports whether the user is the owner or an accepted member.
func (t *Team) HasMember(userID string) bool {
	if userID == t.OwnerID {
		return true
	}
	return contains(t.MemberIDs, userID)
}

// HasInvited reports whether the user holds a pending invitation.
func (t *Team) HasInvited(userID string) bool {
	return contains(t.InvitedMemberIDs, userID)
}

// InviteMember records a pending invitation. Inviting an existing member or
// an already-invited user is a silent no-op.
func (t *Team) InviteMember(userID string) {
	if t.HasMember(userID) || t.HasInvited(userID) {
		return
	}
	t.InvitedMemberIDs = append(t.InvitedMemberIDs, userID)
}

// UninviteMember withdraws a pending invitation. Absence is a no-op.
func (t *Team) UninviteMember(userID string) {
	t.InvitedMemberIDs = remove(t.InvitedMemberIDs, userID)
}

// RegisterMember moves a user from invited to member. With ignoreInvite the
// invitation requirement is waived (moderator force-add). The cross-team
// membership check lives on Contest, which can see sibling teams.
func (t *Team) RegisterMember(c *Contest, userID string, ignoreInvite bool) error {
	if !ignoreInvite && !t.HasInvited(userID) {
		return ErrMemberNotInvited
	}
	if c.TeamSizeLimit > 0 && len(t.MemberIDs)+2 > c.TeamSizeLimit {
		// the owner counts toward the limit: len(members)+1 <= limit must hold after adding
		return ErrTeamSizeExceeded
	}
	t.InvitedMemberIDs = remove(t.InvitedMemberIDs, userID)
	t.MemberIDs = append(t.MemberIDs, userID)
	return nil
}

// RemoveMember removes a user from the member or invited set. The owner
// cannot be removed; they must transfer ownership or delete the team.
// Removing an id that is neither member nor invitee is a no-op.
func (t *Team) RemoveMember(userID string) error {
	if userID == t.OwnerID {
		return ErrOwnerCannotLeave
	}
	t.MemberIDs = remove(t.MemberIDs, userID)
	t.InvitedMemberIDs = remove(t.InvitedMemberIDs, userID)
	return nil
}

// TransferOwnership installs a current member as the new owner and demotes
// the old owner to a regular member. No partial state on failure.
func (t *Team) TransferOwnership(newOwnerID string) error {
	if !contains(t.MemberIDs, newOwnerID) {
		return ErrMemberNotInTeam
	}
	t.MemberIDs = remove(t.MemberIDs, newOwnerID)
	t.MemberIDs = append(t.MemberIDs, t.OwnerID)
	t.OwnerID = newOwnerID
	return nil
}

// Answer records the raw submitted value for a question, overwriting any
// earlier answer for that question number. Only legal during competition
// and before the team has submitted.
func (t *Team) Answer(c *Contest, q *Question, value float64) error {
	if err := c.RequirePeriod(PeriodCompetition); err != nil {
		return err
	}
	if t.AnswersSubmitted {
		return ErrAnswersAlreadySubmitted
	}
	number, err := q.Number(c)
	if err != nil {
		return err
	}
	if t.Answers == nil {
		t.Answers = make(map[int]float64)
	}
	t.Answers[number] = value
	return nil
}

// SubmitAnswers finalizes the team's answers and takes the next slot from
// the contest-wide submit counter.
func (t *Team) SubmitAnswers(c *Contest) error {
	if err := c.RequirePeriod(PeriodCompetition); err != nil {
		return err
	}
	if t.AnswersSubmitted {
		return ErrAnswersAlreadySubmitted
	}
	t.AnswersSubmitted = true
	t.SubmitRanking = c.TeamSubmitOrder
	c.TeamSubmitOrder++
	return nil
}

// ClearSubmission reopens a submitted team (moderator unsubmit tooling).
func (t *Team) ClearSubmission() {
	t.AnswersSubmitted = false
	t.SubmitRanking = 0
}

// TotalPoints scores the team's answer ledger against the questions
// currently occupying each answered number. Numbering is positional, so
// removing or reordering questions after answers were recorded changes
// what an old answer scores against.
func (t *Team) TotalPoints(c *Contest) int {
	if !t.AnswersSubmitted {
		return 0
	}
	total := 0
	for number, value := range t.Answers {
		question, err := c.GetQuestion(number)
		if err != nil {
			continue
		}
		if question.Verify(value) {
			total += question.PointValue
		}
	}
	return total
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
