package domain

import (
	"sort"
	"strings"
	"time"
)

// Contest is a single competition instance: its questions, its teams, and
// the period state machine gating mutations. The contest owns both lists;
// teams and questions never outlive it.
//
// Limits of 0 mean unlimited. TeamSubmitOrder is the next submit ranking to
// hand out, starting at 1.
type Contest struct {
	Name            string        `json:"name"`
	Link            string        `json:"link"`
	TeamSizeLimit   int           `json:"teamSizeLimit"`
	TotalTeamsLimit int           `json:"totalTeamsLimit"`
	Period          ContestPeriod `json:"period"`
	TeamSubmitOrder int           `json:"teamSubmitOrder"`
	Questions       []*Question   `json:"questions"`
	Teams           []*Team       `json:"teams"`
}

func NewContest(name, link string, teamSizeLimit, totalTeamsLimit int) *Contest {
	return &Contest{
		Name:            name,
		Link:            link,
		TeamSizeLimit:   teamSizeLimit,
		TotalTeamsLimit: totalTeamsLimit,
		Period:          PeriodPreSignup,
		TeamSubmitOrder: 1,
		Questions:       []*Question{},
		Teams:           []*Team{},
	}
}

// RequirePeriod returns a WrongPeriodError unless the contest is currently
// in one of the given periods. Period changes themselves are unrestricted:
// moderators may move a contest backward (e.g. to reopen submissions).
func (c *Contest) RequirePeriod(required ...ContestPeriod) error {
	for _, period := range required {
		if c.Period == period {
			return nil
		}
	}
	return &WrongPeriodError{Current: c.Period, Required: required}
}

// AddQuestion appends the question, or inserts it at the 1-based position
// number when number > 0, shifting later questions' implicit numbers. Out
// of range positions clamp to the ends. Questions are only mutable before
// the competition starts.
func (c *Contest) AddQuestion(q *Question, number int) error {
	if err := c.RequirePeriod(PeriodPreSignup, PeriodSignup); err != nil {
		return err
	}
	if number <= 0 || number > len(c.Questions) {
		c.Questions = append(c.Questions, q)
		return nil
	}
	i := number - 1
	c.Questions = append(c.Questions[:i], append([]*Question{q}, c.Questions[i:]...)...)
	return nil
}

// RemoveQuestion deletes the question at the given 1-based number. Later
// questions shift down, which silently re-targets any answers recorded
// under the shifted numbers.
func (c *Contest) RemoveQuestion(number int) error {
	if err := c.RequirePeriod(PeriodPreSignup, PeriodSignup); err != nil {
		return err
	}
	if number < 1 || number > len(c.Questions) {
		return ErrQuestionOutOfRange
	}
	c.Questions = append(c.Questions[:number-1], c.Questions[number:]...)
	return nil
}

// RemoveQuestionRef deletes the question by reference.
func (c *Contest) RemoveQuestionRef(q *Question) error {
	if err := c.RequirePeriod(PeriodPreSignup, PeriodSignup); err != nil {
		return err
	}
	number, err := q.Number(c)
	if err != nil {
		return err
	}
	c.Questions = append(c.Questions[:number-1], c.Questions[number:]...)
	return nil
}

func (c *Contest) GetQuestion(number int) (*Question, error) {
	if number < 1 || number > len(c.Questions) {
		return nil, ErrQuestionOutOfRange
	}
	return c.Questions[number-1], nil
}

// AddTeam registers a team during signup. Team names are unique per contest
// regardless of case, and nobody already participating (or pending on the
// new roster) may appear in an existing team.
func (c *Contest) AddTeam(team *Team) error {
	if err := c.RequirePeriod(PeriodSignup); err != nil {
		return err
	}
	if c.TotalTeamsLimit > 0 && len(c.Teams) >= c.TotalTeamsLimit {
		return ErrTeamLimitExceeded
	}
	for _, existing := range c.Teams {
		if strings.EqualFold(existing.Name, team.Name) {
			return ErrTeamNameTaken
		}
	}
	participants := c.Participants()
	if contains(participants, team.OwnerID) {
		return ErrMemberInAnotherTeam
	}
	for _, id := range team.MemberIDs {
		if contains(participants, id) {
			return ErrMemberInAnotherTeam
		}
	}
	for _, id := range team.InvitedMemberIDs {
		if contains(participants, id) {
			return ErrMemberInAnotherTeam
		}
	}
	c.Teams = append(c.Teams, team)
	return nil
}

// RemoveTeam deletes the team with the given name (case-insensitive).
func (c *Contest) RemoveTeam(name string) error {
	team, err := c.GetTeam(name)
	if err != nil {
		return err
	}
	return c.RemoveTeamRef(team)
}

// RemoveTeamRef deletes the team by reference.
func (c *Contest) RemoveTeamRef(team *Team) error {
	for i, candidate := range c.Teams {
		if candidate == team {
			c.Teams = append(c.Teams[:i], c.Teams[i+1:]...)
			return nil
		}
	}
	return ErrTeamNotFound
}

// GetTeam looks a team up by name, ignoring case.
func (c *Contest) GetTeam(name string) (*Team, error) {
	for _, team := range c.Teams {
		if strings.EqualFold(team.Name, name) {
			return team, nil
		}
	}
	return nil, ErrTeamNotFound
}

// TeamOfUser returns the first team the user owns or belongs to, or nil.
func (c *Contest) TeamOfUser(userID string) *Team {
	for _, team := range c.Teams {
		if team.HasMember(userID) {
			return team
		}
	}
	return nil
}

// RegisterMember accepts an invitation (or force-adds with ignoreInvite) on
// the named team, enforcing the cross-team rule that no user participates
// in two teams of the same contest.
func (c *Contest) RegisterMember(teamName, userID string, ignoreInvite bool) error {
	team, err := c.GetTeam(teamName)
	if err != nil {
		return err
	}
	if existing := c.TeamOfUser(userID); existing != nil {
		return ErrMemberInAnotherTeam
	}
	return team.RegisterMember(c, userID, ignoreInvite)
}

// RenameTeam gives a team a new name, subject to the uniqueness rule.
func (c *Contest) RenameTeam(oldName, newName string) error {
	team, err := c.GetTeam(oldName)
	if err != nil {
		return err
	}
	for _, existing := range c.Teams {
		if existing != team && strings.EqualFold(existing.Name, newName) {
			return ErrTeamNameTaken
		}
	}
	team.Name = newName
	return nil
}

// Participants returns every owner and accepted member across all teams.
// Computed on demand; never cached.
func (c *Contest) Participants() []string {
	var ids []string
	for _, team := range c.Teams {
		if !contains(ids, team.OwnerID) {
			ids = append(ids, team.OwnerID)
		}
		for _, id := range team.MemberIDs {
			if !contains(ids, id) {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// InvitedMembers returns every user holding a pending invitation.
func (c *Contest) InvitedMembers() []string {
	var ids []string
	for _, team := range c.Teams {
		for _, id := range team.InvitedMemberIDs {
			if !contains(ids, id) {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// TeamRankings orders teams by total points descending, breaking ties in
// favor of the earlier submitter. Only meaningful once the competition has
// started.
func (c *Contest) TeamRankings() ([]*Team, error) {
	if err := c.RequirePeriod(PeriodCompetition, PeriodPostCompetition); err != nil {
		return nil, err
	}
	ranked := make([]*Team, len(c.Teams))
	copy(ranked, c.Teams)
	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := ranked[i].TotalPoints(c), ranked[j].TotalPoints(c)
		if pi != pj {
			return pi > pj
		}
		return ranked[i].SubmitRanking < ranked[j].SubmitRanking
	})
	return ranked, nil
}

// Winner returns the top-ranked team, but only if it has submitted: a team
// leading on unsubmitted partial state never wins. Returns nil when there
// is no qualifying team.
func (c *Contest) Winner() (*Team, error) {
	ranked, err := c.TeamRankings()
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 || !ranked[0].AnswersSubmitted {
		return nil, nil
	}
	return ranked[0], nil
}

// SubmitAll finalizes every team that has not submitted yet, in team list
// order (moderator tooling for closing out a competition).
func (c *Contest) SubmitAll() error {
	if err := c.RequirePeriod(PeriodCompetition); err != nil {
		return err
	}
	for _, team := range c.Teams {
		if !team.AnswersSubmitted {
			if err := team.SubmitAnswers(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// Clone deep-copies the contest graph so stores can hand out snapshots that
// never alias live state.
func (c *Contest) Clone() *Contest {
	clone := *c
	clone.Questions = make([]*Question, len(c.Questions))
	for i, q := range c.Questions {
		qCopy := *q
		clone.Questions[i] = &qCopy
	}
	clone.Teams = make([]*Team, len(c.Teams))
	for i, t := range c.Teams {
		tCopy := *t
		tCopy.MemberIDs = append([]string{}, t.MemberIDs...)
		tCopy.InvitedMemberIDs = append([]string{}, t.InvitedMemberIDs...)
		tCopy.Answers = make(map[int]float64, len(t.Answers))
		for n, v := range t.Answers {
			tCopy.Answers[n] = v
		}
		clone.Teams[i] = &tCopy
	}
	return &clone
}

// TeamStanding is a display-friendly view of one ranked team.
type TeamStanding struct {
	Rank          int    `json:"rank"`
	Team          string `json:"team"`
	Points        int    `json:"points"`
	Submitted     bool   `json:"submitted"`
	SubmitRanking int    `json:"submitRanking,omitempty"`
}

// Rankings is a snapshot of the scoreboard for one contest.
type Rankings struct {
	Contest   string         `json:"contest"`
	Standings []TeamStanding `json:"standings"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Standings materializes the current rankings into a snapshot.
func (c *Contest) Standings(now time.Time) (Rankings, error) {
	ranked, err := c.TeamRankings()
	if err != nil {
		return Rankings{}, err
	}
	standings := make([]TeamStanding, len(ranked))
	for i, team := range ranked {
		standings[i] = TeamStanding{
			Rank:          i + 1,
			Team:          team.Name,
			Points:        team.TotalPoints(c),
			Submitted:     team.AnswersSubmitted,
			SubmitRanking: team.SubmitRanking,
		}
	}
	return Rankings{Contest: c.Name, Standings: standings, UpdatedAt: now}, nil
}
