package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"contest-service/internal/domain"
)

// ContestStore abstracts how contest documents are persisted (in-memory,
// Redis, Postgres). Load returns domain.ErrContestNotFound for unknown names.
type ContestStore interface {
	Load(ctx context.Context, name string) (*domain.Contest, error)
	Save(ctx context.Context, contest *domain.Contest) error
	ListNames(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// ContestReader is the read-only subset of ContestStore. Cached readers may
// additionally implement Invalidate to drop stale entries after writes.
type ContestReader interface {
	Load(ctx context.Context, name string) (*domain.Contest, error)
}

// ErrContestExists is returned when creating a contest whose name is taken.
var ErrContestExists = errors.New("a contest with this name already exists")

// ContestService contains the contest-management use cases. Access to each
// contest is serialized by a per-name mutex: commands load the full contest
// graph, mutate it, and write it back, so two interleaved commands on the
// same contest would lose updates.
type ContestService struct {
	store  ContestStore
	reader ContestReader
	hub    *rankingsHub
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewContestService(store ContestStore, reader ContestReader) *ContestService {
	if reader == nil {
		reader = store
	}
	return &ContestService{
		store:  store,
		reader: reader,
		hub:    newRankingsHub(),
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *ContestService) lockFor(contestName string) *sync.Mutex {
	key := strings.ToLower(contestName)
	s.mu.Lock()
	defer s.mu.Unlock()
	if lock, ok := s.locks[key]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	s.locks[key] = lock
	return lock
}

// mutate runs fn against the freshly loaded contest under the per-contest
// lock and persists the result if fn succeeds.
func (s *ContestService) mutate(ctx context.Context, contestName string, fn func(c *domain.Contest) error) (*domain.Contest, error) {
	lock := s.lockFor(contestName)
	lock.Lock()
	defer lock.Unlock()

	contest, err := s.store.Load(ctx, contestName)
	if err != nil {
		return nil, err
	}
	if err := fn(contest); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, contest); err != nil {
		return nil, err
	}
	s.invalidate(contestName)
	return contest, nil
}

func (s *ContestService) invalidate(contestName string) {
	if cache, ok := s.reader.(interface{ Invalidate(name string) }); ok {
		cache.Invalidate(contestName)
	}
}

// broadcast pushes a fresh rankings snapshot to subscribers. Outside the
// competition periods there is nothing to broadcast.
func (s *ContestService) broadcast(contest *domain.Contest) {
	snapshot, err := contest.Standings(s.now())
	if err != nil {
		return
	}
	s.hub.broadcast(strings.ToLower(contest.Name), snapshot)
}

// CreateContest registers a new contest in pre-signup. Contest names are
// stored lowercased, matching how the chat commands address them.
func (s *ContestService) CreateContest(ctx context.Context, name, link string, teamSizeLimit, totalTeamsLimit int) (*domain.Contest, error) {
	name = strings.ToLower(name)
	lock := s.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.store.Load(ctx, name); err == nil {
		return nil, ErrContestExists
	} else if !errors.Is(err, domain.ErrContestNotFound) {
		return nil, err
	}
	contest := domain.NewContest(name, link, teamSizeLimit, totalTeamsLimit)
	if err := s.store.Save(ctx, contest); err != nil {
		return nil, err
	}
	return contest, nil
}

// RenameContest moves a contest to a new lowercased name, freeing the old
// one. The target name must not be taken. Both names' locks are held, in a
// stable order so concurrent renames cannot deadlock.
func (s *ContestService) RenameContest(ctx context.Context, oldName, newName string) error {
	oldKey := strings.ToLower(oldName)
	newKey := strings.ToLower(newName)
	if oldKey == newKey {
		_, err := s.store.Load(ctx, oldKey)
		return err
	}
	first, second := s.lockFor(oldKey), s.lockFor(newKey)
	if oldKey > newKey {
		first, second = second, first
	}
	first.Lock()
	defer first.Unlock()
	second.Lock()
	defer second.Unlock()

	if _, err := s.store.Load(ctx, newKey); err == nil {
		return ErrContestExists
	} else if !errors.Is(err, domain.ErrContestNotFound) {
		return err
	}
	contest, err := s.store.Load(ctx, oldKey)
	if err != nil {
		return err
	}
	contest.Name = newKey
	if err := s.store.Save(ctx, contest); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, oldKey); err != nil {
		return err
	}
	s.invalidate(oldKey)
	s.invalidate(newKey)
	return nil
}

func (s *ContestService) DeleteContest(ctx context.Context, name string) error {
	lock := s.lockFor(name)
	lock.Lock()
	defer lock.Unlock()
	if err := s.store.Delete(ctx, name); err != nil {
		return err
	}
	s.invalidate(name)
	return nil
}

func (s *ContestService) ContestNames(ctx context.Context) ([]string, error) {
	return s.store.ListNames(ctx)
}

// Contest loads a contest for display. Served from the read path, which may
// be a TTL cache; command handlers must not mutate the result.
func (s *ContestService) Contest(ctx context.Context, name string) (*domain.Contest, error) {
	return s.reader.Load(ctx, name)
}

// RegisterTeam creates a team owned by ownerID with the given users invited.
func (s *ContestService) RegisterTeam(ctx context.Context, contestName, teamName, ownerID string, invited []string) (*domain.Team, error) {
	var team *domain.Team
	_, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		team = domain.NewTeam(teamName, ownerID, invited...)
		return c.AddTeam(team)
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

// InviteMembers invites users to the caller's team.
func (s *ContestService) InviteMembers(ctx context.Context, contestName, callerID string, invitees []string) error {
	_, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		team := c.TeamOfUser(callerID)
		if team == nil {
			return domain.ErrMemberNotInTeam
		}
		for _, id := range invitees {
			team.InviteMember(id)
		}
		return nil
	})
	return err
}

// UninviteMember withdraws a pending invitation from the caller's team.
func (s *ContestService) UninviteMember(ctx context.Context, contestName, callerID, memberID string) error {
	_, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		team := c.TeamOfUser(callerID)
		if team == nil {
			return domain.ErrMemberNotInTeam
		}
		team.UninviteMember(memberID)
		return nil
	})
	return err
}

// JoinTeam accepts an invitation to the named team.
func (s *ContestService) JoinTeam(ctx context.Context, contestName, teamName, userID string) error {
	_, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		return c.RegisterMember(teamName, userID, false)
	})
	return err
}

// ForceAddMember adds a user to a team regardless of invitations (moderator
// tooling). Cross-team and size rules still apply.
func (s *ContestService) ForceAddMember(ctx context.Context, contestName, teamName, userID string) error {
	_, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		return c.RegisterMember(teamName, userID, true)
	})
	return err
}

// LeaveTeam removes the caller from their current team.
func (s *ContestService) LeaveTeam(ctx context.Context, contestName, userID string) error {
	_, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		team := c.TeamOfUser(userID)
		if team == nil {
			return domain.ErrMemberNotInTeam
		}
		return team.RemoveMember(userID)
	})
	return err
}

// RemoveMember kicks a user out of the named team (moderator tooling).
func (s *ContestService) RemoveMember(ctx context.Context, contestName, teamName, userID string) error {
	_, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		team, err := c.GetTeam(teamName)
		if err != nil {
			return err
		}
		return team.RemoveMember(userID)
	})
	return err
}

// RenameTeam renames the caller's team.
func (s *ContestService) RenameTeam(ctx context.Context, contestName, callerID, newName string) error {
	_, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		team := c.TeamOfUser(callerID)
		if team == nil {
			return domain.ErrMemberNotInTeam
		}
		return c.RenameTeam(team.Name, newName)
	})
	return err
}

// TransferOwnership hands the caller's team to another member. Only the
// current owner may do this.
func (s *ContestService) TransferOwnership(ctx context.Context, contestName, callerID, newOwnerID string) error {
	_, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		team := c.TeamOfUser(callerID)
		if team == nil {
			return domain.ErrMemberNotInTeam
		}
		if team.OwnerID != callerID {
			return domain.ErrNotTeamOwner
		}
		return team.TransferOwnership(newOwnerID)
	})
	return err
}

// ForceTransferOwnership reassigns ownership of the named team without the
// caller needing to be its owner (moderator tooling).
func (s *ContestService) ForceTransferOwnership(ctx context.Context, contestName, teamName, newOwnerID string) error {
	_, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		team, err := c.GetTeam(teamName)
		if err != nil {
			return err
		}
		return team.TransferOwnership(newOwnerID)
	})
	return err
}

// UnregisterTeam deletes the caller's team. Only its owner may do this.
func (s *ContestService) UnregisterTeam(ctx context.Context, contestName, callerID string) error {
	_, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		team := c.TeamOfUser(callerID)
		if team == nil {
			return domain.ErrMemberNotInTeam
		}
		if team.OwnerID != callerID {
			return domain.ErrNotTeamOwner
		}
		return c.RemoveTeamRef(team)
	})
	return err
}

// RemoveTeam deletes the named team (moderator tooling).
func (s *ContestService) RemoveTeam(ctx context.Context, contestName, teamName string) error {
	_, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		return c.RemoveTeam(teamName)
	})
	return err
}

// SetTeamChannel records the external messaging channel assigned to a team.
// The id is opaque to the core.
func (s *ContestService) SetTeamChannel(ctx context.Context, contestName, teamName, channelID string) error {
	_, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		team, err := c.GetTeam(teamName)
		if err != nil {
			return err
		}
		team.ChannelID = channelID
		return nil
	})
	return err
}

// AddQuestion appends or inserts a question; number 0 appends.
func (s *ContestService) AddQuestion(ctx context.Context, contestName string, correctAnswer float64, pointValue, number int) error {
	_, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		return c.AddQuestion(domain.NewQuestion(correctAnswer, pointValue), number)
	})
	return err
}

func (s *ContestService) RemoveQuestion(ctx context.Context, contestName string, number int) error {
	_, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		return c.RemoveQuestion(number)
	})
	return err
}

// AnswerQuestion records an answer for the caller's team and broadcasts the
// updated rankings.
func (s *ContestService) AnswerQuestion(ctx context.Context, contestName, userID string, number int, value float64) error {
	contest, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		team := c.TeamOfUser(userID)
		if team == nil {
			return domain.ErrMemberNotInTeam
		}
		question, err := c.GetQuestion(number)
		if err != nil {
			return err
		}
		return team.Answer(c, question, value)
	})
	if err != nil {
		return err
	}
	s.broadcast(contest)
	return nil
}

// AnswerForTeam records an answer on behalf of the named team (moderator
// tooling).
func (s *ContestService) AnswerForTeam(ctx context.Context, contestName, teamName string, number int, value float64) error {
	contest, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		team, err := c.GetTeam(teamName)
		if err != nil {
			return err
		}
		question, err := c.GetQuestion(number)
		if err != nil {
			return err
		}
		return team.Answer(c, question, value)
	})
	if err != nil {
		return err
	}
	s.broadcast(contest)
	return nil
}

// SubmitAnswers finalizes the caller's team. Only the owner submits.
func (s *ContestService) SubmitAnswers(ctx context.Context, contestName, callerID string) error {
	contest, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		team := c.TeamOfUser(callerID)
		if team == nil {
			return domain.ErrMemberNotInTeam
		}
		if team.OwnerID != callerID {
			return domain.ErrNotTeamOwner
		}
		return team.SubmitAnswers(c)
	})
	if err != nil {
		return err
	}
	s.broadcast(contest)
	return nil
}

// SubmitAll finalizes every unsubmitted team (moderator tooling).
func (s *ContestService) SubmitAll(ctx context.Context, contestName string) error {
	contest, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		return c.SubmitAll()
	})
	if err != nil {
		return err
	}
	s.broadcast(contest)
	return nil
}

// Unsubmit reopens a submitted team (moderator tooling).
func (s *ContestService) Unsubmit(ctx context.Context, contestName, teamName string) error {
	contest, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		team, err := c.GetTeam(teamName)
		if err != nil {
			return err
		}
		team.ClearSubmission()
		return nil
	})
	if err != nil {
		return err
	}
	s.broadcast(contest)
	return nil
}

// SetPeriod reassigns the contest period. Transitions are unrestricted:
// moving backward is moderator override, not an error.
func (s *ContestService) SetPeriod(ctx context.Context, contestName string, period domain.ContestPeriod) error {
	_, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		c.Period = period
		return nil
	})
	return err
}

func (s *ContestService) SetLink(ctx context.Context, contestName, link string) error {
	_, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		c.Link = link
		return nil
	})
	return err
}

// ContestLink returns the problems link, which participants may only see
// once the competition has started.
func (s *ContestService) ContestLink(ctx context.Context, contestName string) (string, error) {
	contest, err := s.reader.Load(ctx, contestName)
	if err != nil {
		return "", err
	}
	if err := contest.RequirePeriod(domain.PeriodCompetition, domain.PeriodPostCompetition); err != nil {
		return "", err
	}
	return contest.Link, nil
}

func (s *ContestService) SetTeamSizeLimit(ctx context.Context, contestName string, limit int) error {
	_, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		c.TeamSizeLimit = limit
		return nil
	})
	return err
}

func (s *ContestService) SetTotalTeamsLimit(ctx context.Context, contestName string, limit int) error {
	_, err := s.mutate(ctx, contestName, func(c *domain.Contest) error {
		c.TotalTeamsLimit = limit
		return nil
	})
	return err
}

// Questions returns the contest's question sequence in number order.
func (s *ContestService) Questions(ctx context.Context, contestName string) ([]*domain.Question, error) {
	contest, err := s.reader.Load(ctx, contestName)
	if err != nil {
		return nil, err
	}
	return contest.Questions, nil
}

// Rankings returns the current scoreboard snapshot.
func (s *ContestService) Rankings(ctx context.Context, contestName string) (domain.Rankings, error) {
	contest, err := s.store.Load(ctx, contestName)
	if err != nil {
		return domain.Rankings{}, err
	}
	return contest.Standings(s.now())
}

// Winner returns the winning team's standing, or nil when no submitted team
// leads the board.
func (s *ContestService) Winner(ctx context.Context, contestName string) (*domain.Team, error) {
	contest, err := s.store.Load(ctx, contestName)
	if err != nil {
		return nil, err
	}
	return contest.Winner()
}

// Participants returns the registered participants and the users holding
// pending invitations.
func (s *ContestService) Participants(ctx context.Context, contestName string) (registered, invited []string, err error) {
	contest, err := s.reader.Load(ctx, contestName)
	if err != nil {
		return nil, nil, err
	}
	return contest.Participants(), contest.InvitedMembers(), nil
}

// Subscribe returns a channel receiving rankings snapshots for a contest.
// The initial snapshot is only delivered when the contest is in a competition
// period; outside it, the first message arrives after the period changes and
// a score-moving command lands. The caller must invoke the cancel function
// to avoid leaks.
func (s *ContestService) Subscribe(ctx context.Context, contestName string) (<-chan domain.Rankings, func(), error) {
	contest, err := s.store.Load(ctx, contestName)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hub.subscribe(strings.ToLower(contestName))
	if snapshot, err := contest.Standings(s.now()); err == nil {
		ch <- snapshot
	}
	return ch, cancel, nil
}
