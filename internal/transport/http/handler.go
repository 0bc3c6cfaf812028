package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"contest-service/internal/app"
	"contest-service/internal/domain"
)

// Handler exposes the contest commands over JSON. It is thin glue: every
// business rule lives in the core, and every error maps onto a status code
// plus the domain message.
type Handler struct {
	service *app.ContestService
}

func NewHandler(service *app.ContestService) *Handler {
	return &Handler{service: service}
}

// Register mounts the command routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /contests", h.createContest)
	mux.HandleFunc("GET /contests", h.listContests)
	mux.HandleFunc("GET /contests/{name}", h.getContest)
	mux.HandleFunc("DELETE /contests/{name}", h.deleteContest)
	mux.HandleFunc("PUT /contests/{name}/name", h.renameContest)
	mux.HandleFunc("PUT /contests/{name}/period", h.setPeriod)
	mux.HandleFunc("PUT /contests/{name}/link", h.setLink)
	mux.HandleFunc("GET /contests/{name}/link", h.getLink)
	mux.HandleFunc("PUT /contests/{name}/limits", h.setLimits)
	mux.HandleFunc("POST /contests/{name}/questions", h.addQuestion)
	mux.HandleFunc("GET /contests/{name}/questions", h.listQuestions)
	mux.HandleFunc("DELETE /contests/{name}/questions/{number}", h.removeQuestion)
	mux.HandleFunc("POST /contests/{name}/teams", h.registerTeam)
	mux.HandleFunc("DELETE /contests/{name}/teams/{team}", h.removeTeam)
	mux.HandleFunc("POST /contests/{name}/teams/{team}/join", h.joinTeam)
	mux.HandleFunc("POST /contests/{name}/teams/{team}/members", h.forceAddMember)
	mux.HandleFunc("POST /contests/{name}/teams/{team}/transfer", h.forceTransfer)
	mux.HandleFunc("POST /contests/{name}/teams/{team}/unsubmit", h.unsubmit)
	mux.HandleFunc("PUT /contests/{name}/teams/{team}/channel", h.setTeamChannel)
	mux.HandleFunc("POST /contests/{name}/invites", h.inviteMembers)
	mux.HandleFunc("DELETE /contests/{name}/invites", h.uninviteMember)
	mux.HandleFunc("POST /contests/{name}/leave", h.leaveTeam)
	mux.HandleFunc("POST /contests/{name}/rename", h.renameTeam)
	mux.HandleFunc("POST /contests/{name}/transfer", h.transferOwnership)
	mux.HandleFunc("POST /contests/{name}/unregister", h.unregisterTeam)
	mux.HandleFunc("POST /contests/{name}/answers", h.answerQuestion)
	mux.HandleFunc("POST /contests/{name}/submit", h.submitAnswers)
	mux.HandleFunc("POST /contests/{name}/submit-all", h.submitAll)
	mux.HandleFunc("GET /contests/{name}/rankings", h.rankings)
	mux.HandleFunc("GET /contests/{name}/winner", h.winner)
	mux.HandleFunc("GET /contests/{name}/participants", h.participants)
}

type createContestRequest struct {
	Name            string `json:"name"`
	Link            string `json:"link"`
	TeamSizeLimit   int    `json:"teamSizeLimit"`
	TotalTeamsLimit int    `json:"totalTeamsLimit"`
}

func (h *Handler) createContest(w http.ResponseWriter, r *http.Request) {
	var req createContestRequest
	if !decode(w, r, &req) {
		return
	}
	contest, err := h.service.CreateContest(r.Context(), req.Name, req.Link, req.TeamSizeLimit, req.TotalTeamsLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contestView(contest))
}

func (h *Handler) listContests(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.ContestNames(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"contests": names})
}

func (h *Handler) getContest(w http.ResponseWriter, r *http.Request) {
	contest, err := h.service.Contest(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contestView(contest))
}

func (h *Handler) deleteContest(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteContest(r.Context(), r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) renameContest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewName string `json:"newName"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.RenameContest(r.Context(), r.PathValue("name"), req.NewName); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setPeriod(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Period string `json:"period"`
	}
	if !decode(w, r, &req) {
		return
	}
	period, err := domain.ParsePeriod(req.Period)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.service.SetPeriod(r.Context(), r.PathValue("name"), period); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Link string `json:"link"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.SetLink(r.Context(), r.PathValue("name"), req.Link); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getLink(w http.ResponseWriter, r *http.Request) {
	link, err := h.service.ContestLink(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"link": link})
}

func (h *Handler) setLimits(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TeamSizeLimit   *int `json:"teamSizeLimit"`
		TotalTeamsLimit *int `json:"totalTeamsLimit"`
	}
	if !decode(w, r, &req) {
		return
	}
	name := r.PathValue("name")
	if req.TeamSizeLimit != nil {
		if err := h.service.SetTeamSizeLimit(r.Context(), name, *req.TeamSizeLimit); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.TotalTeamsLimit != nil {
		if err := h.service.SetTotalTeamsLimit(r.Context(), name, *req.TotalTeamsLimit); err != nil {
			writeError(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answer float64 `json:"answer"`
		Points int     `json:"points"`
		Number int     `json:"number"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.AddQuestion(r.Context(), r.PathValue("name"), req.Answer, req.Points, req.Number); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.service.Questions(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	type questionView struct {
		Number int     `json:"number"`
		Answer float64 `json:"answer"`
		Points int     `json:"points"`
	}
	views := make([]questionView, len(questions))
	for i, q := range questions {
		views[i] = questionView{Number: i + 1, Answer: q.CorrectAnswer, Points: q.PointValue}
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": views})
}

func (h *Handler) removeQuestion(w http.ResponseWriter, r *http.Request) {
	number, ok := pathNumber(w, r)
	if !ok {
		return
	}
	if err := h.service.RemoveQuestion(r.Context(), r.PathValue("name"), number); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) registerTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string   `json:"name"`
		Owner   string   `json:"owner"`
		Invited []string `json:"invited"`
	}
	if !decode(w, r, &req) {
		return
	}
	team, err := h.service.RegisterTeam(r.Context(), r.PathValue("name"), req.Name, req.Owner, req.Invited)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

func (h *Handler) removeTeam(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveTeam(r.Context(), r.PathValue("name"), r.PathValue("team")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) joinTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User string `json:"user"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.JoinTeam(r.Context(), r.PathValue("name"), r.PathValue("team"), req.User); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) forceAddMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User string `json:"user"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.ForceAddMember(r.Context(), r.PathValue("name"), r.PathValue("team"), req.User); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) forceTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewOwner string `json:"newOwner"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.ForceTransferOwnership(r.Context(), r.PathValue("name"), r.PathValue("team"), req.NewOwner); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unsubmit(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Unsubmit(r.Context(), r.PathValue("name"), r.PathValue("team")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setTeamChannel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChannelID string `json:"channelId"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.SetTeamChannel(r.Context(), r.PathValue("name"), r.PathValue("team"), req.ChannelID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) inviteMembers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller   string   `json:"caller"`
		Invitees []string `json:"invitees"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.InviteMembers(r.Context(), r.PathValue("name"), req.Caller, req.Invitees); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) uninviteMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
		Member string `json:"member"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.UninviteMember(r.Context(), r.PathValue("name"), req.Caller, req.Member); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) leaveTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User string `json:"user"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.LeaveTeam(r.Context(), r.PathValue("name"), req.User); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) renameTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller  string `json:"caller"`
		NewName string `json:"newName"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.RenameTeam(r.Context(), r.PathValue("name"), req.Caller, req.NewName); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) transferOwnership(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller   string `json:"caller"`
		NewOwner string `json:"newOwner"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.TransferOwnership(r.Context(), r.PathValue("name"), req.Caller, req.NewOwner); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unregisterTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.UnregisterTeam(r.Context(), r.PathValue("name"), req.Caller); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) answerQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User   string  `json:"user"`
		Team   string  `json:"team"`
		Number int     `json:"number"`
		Value  float64 `json:"value"`
	}
	if !decode(w, r, &req) {
		return
	}
	var err error
	if req.Team != "" {
		err = h.service.AnswerForTeam(r.Context(), r.PathValue("name"), req.Team, req.Number, req.Value)
	} else {
		err = h.service.AnswerQuestion(r.Context(), r.PathValue("name"), req.User, req.Number, req.Value)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) submitAnswers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.SubmitAnswers(r.Context(), r.PathValue("name"), req.Caller); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) submitAll(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SubmitAll(r.Context(), r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) rankings(w http.ResponseWriter, r *http.Request) {
	rankings, err := h.service.Rankings(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rankings)
}

func (h *Handler) winner(w http.ResponseWriter, r *http.Request) {
	winner, err := h.service.Winner(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	if winner == nil {
		writeJSON(w, http.StatusOK, map[string]any{"winner": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"winner": winner.Name})
}

func (h *Handler) participants(w http.ResponseWriter, r *http.Request) {
	registered, invited, err := h.service.Participants(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	if registered == nil {
		registered = []string{}
	}
	if invited == nil {
		invited = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"registered": registered, "invited": invited})
}

type contestSummary struct {
	Name            string `json:"name"`
	Period          string `json:"period"`
	TeamSizeLimit   int    `json:"teamSizeLimit,omitempty"`
	TotalTeamsLimit int    `json:"totalTeamsLimit,omitempty"`
	Questions       int    `json:"questions"`
	Teams           int    `json:"teams"`
}

func contestView(c *domain.Contest) contestSummary {
	return contestSummary{
		Name:            c.Name,
		Period:          c.Period.String(),
		TeamSizeLimit:   c.TeamSizeLimit,
		TotalTeamsLimit: c.TotalTeamsLimit,
		Questions:       len(c.Questions),
		Teams:           len(c.Teams),
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func pathNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil {
		http.Error(w, "invalid question number", http.StatusBadRequest)
		return 0, false
	}
	return number, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrContestNotFound),
		errors.Is(err, domain.ErrTeamNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrQuestionOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMemberNotInvited),
		errors.Is(err, domain.ErrNotTeamOwner),
		errors.Is(err, domain.ErrOwnerCannotLeave):
		return http.StatusForbidden
	case errors.Is(err, app.ErrContestExists),
		errors.Is(err, domain.ErrTeamNameTaken),
		errors.Is(err, domain.ErrTeamLimitExceeded),
		errors.Is(err, domain.ErrTeamSizeExceeded),
		errors.Is(err, domain.ErrMemberInAnotherTeam),
		errors.Is(err, domain.ErrMemberNotInTeam),
		errors.Is(err, domain.ErrAnswersAlreadySubmitted),
		errors.Is(err, domain.ErrWrongPeriod):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
