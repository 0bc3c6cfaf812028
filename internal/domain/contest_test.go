package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestAddQuestionRoundTrip(t *testing.T) {
	c := NewContest("mathcup", "https://example.com/problems.pdf", 0, 0)
	q1 := NewQuestion(1, 1)
	q2 := NewQuestion(2, 2)

	if err := c.AddQuestion(q1, 0); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := c.AddQuestion(q2, 0); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := c.GetQuestion(2)
	if err != nil || got != q2 {
		t.Fatalf("expected q2 at number 2, got %v (%v)", got, err)
	}

	// Positional insert shifts later questions up.
	inserted := NewQuestion(1.5, 5)
	if err := c.AddQuestion(inserted, 2); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err = c.GetQuestion(2)
	if err != nil || got != inserted {
		t.Fatalf("expected inserted question at 2, got %v (%v)", got, err)
	}
	if n, _ := q2.Number(c); n != 3 {
		t.Fatalf("expected q2 shifted to 3, got %d", n)
	}
}

func TestQuestionMutationsFrozenDuringCompetition(t *testing.T) {
	c := NewContest("mathcup", "", 0, 0)
	q := NewQuestion(1, 1)
	if err := c.AddQuestion(q, 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	c.Period = PeriodCompetition

	if err := c.AddQuestion(NewQuestion(2, 2), 0); !errors.Is(err, ErrWrongPeriod) {
		t.Fatalf("expected wrong-period on add, got %v", err)
	}
	if err := c.RemoveQuestion(1); !errors.Is(err, ErrWrongPeriod) {
		t.Fatalf("expected wrong-period on remove, got %v", err)
	}

	var wrongPeriod *WrongPeriodError
	err := c.RemoveQuestionRef(q)
	if !errors.As(err, &wrongPeriod) {
		t.Fatalf("expected WrongPeriodError, got %v", err)
	}
	if len(wrongPeriod.Required) != 2 {
		t.Fatalf("expected the two legal periods reported, got %v", wrongPeriod.Required)
	}
}

func TestRemoveQuestionOutOfRange(t *testing.T) {
	c := NewContest("mathcup", "", 0, 0)
	if err := c.RemoveQuestion(1); err != ErrQuestionOutOfRange {
		t.Fatalf("expected ErrQuestionOutOfRange, got %v", err)
	}
	if _, err := c.GetQuestion(0); err != ErrQuestionOutOfRange {
		t.Fatalf("expected ErrQuestionOutOfRange for number 0, got %v", err)
	}
}

func TestAddTeamGating(t *testing.T) {
	c := NewContest("mathcup", "", 0, 0)
	if err := c.AddTeam(NewTeam("Foxes", "u1")); !errors.Is(err, ErrWrongPeriod) {
		t.Fatalf("teams cannot sign up before the signup period, got %v", err)
	}

	c.Period = PeriodSignup
	if err := c.AddTeam(NewTeam("Foxes", "u1")); err != nil {
		t.Fatalf("add team: %v", err)
	}
}

func TestAddTeamNameTakenIgnoresCase(t *testing.T) {
	c := NewContest("mathcup", "", 0, 0)
	c.Period = PeriodSignup

	if err := c.AddTeam(NewTeam("Alpha", "u1")); err != nil {
		t.Fatalf("add team: %v", err)
	}
	if err := c.AddTeam(NewTeam("alpha", "u2")); err != ErrTeamNameTaken {
		t.Fatalf("expected ErrTeamNameTaken for case-different duplicate, got %v", err)
	}
}

func TestAddTeamRejectsCrossTeamMembers(t *testing.T) {
	c := NewContest("mathcup", "", 0, 0)
	c.Period = PeriodSignup

	foxes := NewTeam("Foxes", "u1", "u2")
	if err := c.AddTeam(foxes); err != nil {
		t.Fatalf("add team: %v", err)
	}
	if err := c.RegisterMember("Foxes", "u2", false); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := c.AddTeam(NewTeam("Owls", "u1")); err != ErrMemberInAnotherTeam {
		t.Fatalf("owner already participating, got %v", err)
	}
	if err := c.AddTeam(NewTeam("Owls", "u9", "u2")); err != ErrMemberInAnotherTeam {
		t.Fatalf("invitee already participating, got %v", err)
	}
	// Inviting someone who is merely invited elsewhere is fine.
	owls := NewTeam("Owls", "u9", "u3")
	foxes.InviteMember("u3")
	if err := c.AddTeam(owls); err != nil {
		t.Fatalf("invitees of other teams do not block signup: %v", err)
	}
}

func TestContestTeamLimit(t *testing.T) {
	c := NewContest("mathcup", "", 0, 1)
	c.Period = PeriodSignup

	if err := c.AddTeam(NewTeam("Foxes", "u1")); err != nil {
		t.Fatalf("add team: %v", err)
	}
	if err := c.AddTeam(NewTeam("Owls", "u2")); err != ErrTeamLimitExceeded {
		t.Fatalf("expected ErrTeamLimitExceeded, got %v", err)
	}
}

func TestGetTeamCaseInsensitive(t *testing.T) {
	c := NewContest("mathcup", "", 0, 0)
	c.Period = PeriodSignup
	if err := c.AddTeam(NewTeam("Foxes", "u1")); err != nil {
		t.Fatalf("add team: %v", err)
	}

	team, err := c.GetTeam("fOxEs")
	if err != nil || team.Name != "Foxes" {
		t.Fatalf("expected case-insensitive lookup, got %v (%v)", team, err)
	}
	if _, err := c.GetTeam("Wolves"); err != ErrTeamNotFound {
		t.Fatalf("expected ErrTeamNotFound, got %v", err)
	}
}

func TestTeamOfUser(t *testing.T) {
	c := NewContest("mathcup", "", 0, 0)
	c.Period = PeriodSignup
	foxes := NewTeam("Foxes", "u1", "u2")
	if err := c.AddTeam(foxes); err != nil {
		t.Fatalf("add team: %v", err)
	}
	if err := c.RegisterMember("Foxes", "u2", false); err != nil {
		t.Fatalf("register: %v", err)
	}

	if got := c.TeamOfUser("u1"); got != foxes {
		t.Fatalf("owner is a participant")
	}
	if got := c.TeamOfUser("u2"); got != foxes {
		t.Fatalf("member is a participant")
	}
	if got := c.TeamOfUser("u9"); got != nil {
		t.Fatalf("expected nil for unknown user, got %v", got)
	}
}

func TestRegisterMemberCrossTeamCheck(t *testing.T) {
	c := NewContest("mathcup", "", 0, 0)
	c.Period = PeriodSignup
	if err := c.AddTeam(NewTeam("Foxes", "u1")); err != nil {
		t.Fatalf("add team: %v", err)
	}
	owls := NewTeam("Owls", "u2", "u1")
	if err := c.AddTeam(owls); err != ErrMemberInAnotherTeam {
		t.Fatalf("expected owner collision rejected, got %v", err)
	}

	owls = NewTeam("Owls", "u2")
	if err := c.AddTeam(owls); err != nil {
		t.Fatalf("add team: %v", err)
	}
	owls.InviteMember("u1")
	if err := c.RegisterMember("Owls", "u1", false); err != ErrMemberInAnotherTeam {
		t.Fatalf("expected ErrMemberInAnotherTeam, got %v", err)
	}
}

func TestRenameTeam(t *testing.T) {
	c := NewContest("mathcup", "", 0, 0)
	c.Period = PeriodSignup
	if err := c.AddTeam(NewTeam("Foxes", "u1")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.AddTeam(NewTeam("Owls", "u2")); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := c.RenameTeam("Foxes", "owls"); err != ErrTeamNameTaken {
		t.Fatalf("expected ErrTeamNameTaken, got %v", err)
	}
	if err := c.RenameTeam("Foxes", "Wolves"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, err := c.GetTeam("Wolves"); err != nil {
		t.Fatalf("renamed team must be findable: %v", err)
	}
}

func TestRemoveTeam(t *testing.T) {
	c := NewContest("mathcup", "", 0, 0)
	c.Period = PeriodSignup
	foxes := NewTeam("Foxes", "u1")
	if err := c.AddTeam(foxes); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := c.RemoveTeam("Wolves"); err != ErrTeamNotFound {
		t.Fatalf("expected ErrTeamNotFound, got %v", err)
	}
	if err := c.RemoveTeam("foxes"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(c.Teams) != 0 {
		t.Fatalf("expected team removed")
	}
	if err := c.RemoveTeamRef(foxes); err != ErrTeamNotFound {
		t.Fatalf("expected ErrTeamNotFound on second removal, got %v", err)
	}
}

func TestParticipantsAndInvited(t *testing.T) {
	c := NewContest("mathcup", "", 0, 0)
	c.Period = PeriodSignup
	foxes := NewTeam("Foxes", "u1", "u2", "u3")
	if err := c.AddTeam(foxes); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.RegisterMember("Foxes", "u2", false); err != nil {
		t.Fatalf("register: %v", err)
	}

	participants := c.Participants()
	if len(participants) != 2 || !contains(participants, "u1") || !contains(participants, "u2") {
		t.Fatalf("expected owner+member as participants, got %v", participants)
	}
	invited := c.InvitedMembers()
	if len(invited) != 1 || invited[0] != "u3" {
		t.Fatalf("expected pending invite for u3, got %v", invited)
	}
}

func rankedContest(t *testing.T) (*Contest, *Team, *Team, *Team) {
	t.Helper()
	c := NewContest("mathcup", "", 0, 0)
	c.Period = PeriodSignup
	foxes := NewTeam("Foxes", "u1")
	owls := NewTeam("Owls", "u2")
	bears := NewTeam("Bears", "u3")
	for _, team := range []*Team{foxes, owls, bears} {
		if err := c.AddTeam(team); err != nil {
			t.Fatalf("add team: %v", err)
		}
	}
	c.Period = PeriodPreSignup
	q := NewQuestion(10, 5)
	if err := c.AddQuestion(q, 0); err != nil {
		t.Fatalf("add question: %v", err)
	}
	c.Period = PeriodCompetition
	return c, foxes, owls, bears
}

func TestTeamRankingsOrderAndTieBreak(t *testing.T) {
	c, foxes, owls, bears := rankedContest(t)
	q := c.Questions[0]

	// Owls answer correctly and submit first; Foxes answer correctly and
	// submit later; Bears submit a wrong answer.
	if err := owls.Answer(c, q, 10); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := owls.SubmitAnswers(c); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := foxes.Answer(c, q, 10); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := foxes.SubmitAnswers(c); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := bears.Answer(c, q, 11); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := bears.SubmitAnswers(c); err != nil {
		t.Fatalf("submit: %v", err)
	}

	ranked, err := c.TeamRankings()
	if err != nil {
		t.Fatalf("rankings: %v", err)
	}
	if ranked[0] != owls || ranked[1] != foxes || ranked[2] != bears {
		t.Fatalf("expected Owls, Foxes, Bears; got %s, %s, %s", ranked[0].Name, ranked[1].Name, ranked[2].Name)
	}
}

func TestTeamRankingsWrongPeriod(t *testing.T) {
	c := NewContest("mathcup", "", 0, 0)
	if _, err := c.TeamRankings(); !errors.Is(err, ErrWrongPeriod) {
		t.Fatalf("expected wrong-period before competition, got %v", err)
	}
	if _, err := c.Winner(); !errors.Is(err, ErrWrongPeriod) {
		t.Fatalf("expected wrong-period for winner, got %v", err)
	}
}

func TestWinnerRequiresSubmission(t *testing.T) {
	c, foxes, owls, _ := rankedContest(t)
	q := c.Questions[0]

	if err := foxes.Answer(c, q, 10); err != nil {
		t.Fatalf("answer: %v", err)
	}
	// Nobody submitted yet; even the points leader does not win.
	winner, err := c.Winner()
	if err != nil {
		t.Fatalf("winner: %v", err)
	}
	if winner != nil {
		t.Fatalf("expected no winner before submission, got %v", winner)
	}

	if err := owls.Answer(c, q, 10); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := owls.SubmitAnswers(c); err != nil {
		t.Fatalf("submit: %v", err)
	}
	winner, err = c.Winner()
	if err != nil {
		t.Fatalf("winner: %v", err)
	}
	if winner != owls {
		t.Fatalf("expected Owls to win, got %v", winner)
	}
}

func TestSubmitAll(t *testing.T) {
	c, foxes, owls, bears := rankedContest(t)

	if err := foxes.SubmitAnswers(c); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := c.SubmitAll(); err != nil {
		t.Fatalf("submit all: %v", err)
	}
	if !owls.AnswersSubmitted || !bears.AnswersSubmitted {
		t.Fatalf("expected every team submitted")
	}
	if foxes.SubmitRanking != 1 || owls.SubmitRanking != 2 || bears.SubmitRanking != 3 {
		t.Fatalf("expected rankings preserved in order, got %d %d %d",
			foxes.SubmitRanking, owls.SubmitRanking, bears.SubmitRanking)
	}
}

func TestStandingsSnapshot(t *testing.T) {
	c, foxes, _, _ := rankedContest(t)
	q := c.Questions[0]
	if err := foxes.Answer(c, q, 10); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := foxes.SubmitAnswers(c); err != nil {
		t.Fatalf("submit: %v", err)
	}

	now := time.Now()
	snapshot, err := c.Standings(now)
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	if snapshot.Contest != "mathcup" || len(snapshot.Standings) != 3 {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
	if snapshot.Standings[0].Team != "Foxes" || snapshot.Standings[0].Points != 5 || snapshot.Standings[0].Rank != 1 {
		t.Fatalf("expected Foxes leading with 5 points, got %+v", snapshot.Standings[0])
	}
	if !snapshot.UpdatedAt.Equal(now) {
		t.Fatalf("expected snapshot timestamp preserved")
	}
}

func TestPeriodSerialization(t *testing.T) {
	for _, period := range []ContestPeriod{PeriodPreSignup, PeriodSignup, PeriodCompetition, PeriodPostCompetition} {
		parsed, err := ParsePeriod(period.String())
		if err != nil || parsed != period {
			t.Fatalf("round trip failed for %s: %v", period, err)
		}
	}
	if _, err := ParsePeriod("halftime"); err == nil {
		t.Fatalf("expected error for unknown period")
	}
}

func TestContestJSONRoundTrip(t *testing.T) {
	c := NewContest("mathcup", "https://example.com/problems.pdf", 3, 10)
	c.Period = PeriodSignup
	foxes := NewTeam("Foxes", "u1", "u2")
	if err := c.AddTeam(foxes); err != nil {
		t.Fatalf("add team: %v", err)
	}
	c.Period = PeriodPreSignup
	if err := c.AddQuestion(NewQuestion(3.5, 4), 0); err != nil {
		t.Fatalf("add question: %v", err)
	}
	c.Period = PeriodCompetition
	if err := foxes.Answer(c, c.Questions[0], 3.5); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := foxes.SubmitAnswers(c); err != nil {
		t.Fatalf("submit: %v", err)
	}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Contest
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Period != PeriodCompetition || decoded.TeamSubmitOrder != 2 {
		t.Fatalf("info fields lost: %+v", decoded)
	}
	team, err := decoded.GetTeam("Foxes")
	if err != nil {
		t.Fatalf("team lost: %v", err)
	}
	if team.Answers[1] != 3.5 || !team.AnswersSubmitted || team.SubmitRanking != 1 {
		t.Fatalf("answer ledger lost: %+v", team)
	}
	if team.TotalPoints(&decoded) != 4 {
		t.Fatalf("expected 4 points after round trip, got %d", team.TotalPoints(&decoded))
	}
}
