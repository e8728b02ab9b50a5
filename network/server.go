package network

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"

	"github.com/agora-gov/agora/base"
	"github.com/agora-gov/agora/governor"
	"github.com/agora-gov/agora/key"
	"github.com/agora-gov/agora/ledger"
	"github.com/agora-gov/agora/token"
	"github.com/agora-gov/agora/util"
	"github.com/agora-gov/agora/util/cache"
	"github.com/agora-gov/agora/util/localtime"
	"github.com/agora-gov/agora/util/logging"
	"github.com/agora-gov/agora/util/valuehash"
	"github.com/btcsuite/btcutil/base58"
)

var (
	HandlerPathInfo            = "/"
	HandlerPathProposals       = "/proposals"
	HandlerPathProposal        = "/proposals/{id}"
	HandlerPathProposalVotes   = "/proposals/{id}/votes"
	HandlerPathProposalQueue   = "/proposals/{id}/queue"
	HandlerPathProposalExecute = "/proposals/{id}/execute"
	HandlerPathAccountPower    = "/accounts/{address}/power"
)

var readCacheExpire = time.Second * 3

// Server exposes the caller-facing governance surface over HTTP.
type Server struct {
	*logging.Logging
	bind   string
	gv     *governor.Governor
	lg     *ledger.Ledger
	tk     *token.Token
	cache  cache.Cache
	router *mux.Router
	srv    *http.Server
}

func NewServer(
	bind string,
	gv *governor.Governor,
	lg *ledger.Ledger,
	tk *token.Token,
	ca cache.Cache,
	ratelimit *RateLimitMiddleware,
) *Server {
	if ca == nil {
		ca = cache.Dummy{}
	}

	sv := &Server{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "network-server").Str("bind", bind)
		}),
		bind:   bind,
		gv:     gv,
		lg:     lg,
		tk:     tk,
		cache:  ca,
		router: mux.NewRouter(),
	}

	sv.setHandlers()

	var handler http.Handler = sv.router
	if ratelimit != nil {
		handler = ratelimit.Middleware(handler)
	}

	sv.srv = &http.Server{
		Addr:              bind,
		Handler:           handler,
		ReadHeaderTimeout: time.Second * 10,
	}

	return sv
}

func (sv *Server) Router() *mux.Router {
	return sv.router
}

func (sv *Server) Start() error {
	sv.Log().Debug().Msg("started")

	if err := sv.srv.ListenAndServe(); err != nil && !xerrors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (sv *Server) Stop(ctx context.Context) error {
	sv.Log().Debug().Msg("stopping")

	return sv.srv.Shutdown(ctx)
}

func (sv *Server) setHandlers() {
	_ = sv.router.HandleFunc(HandlerPathProposals, sv.handleSubmitProposal).Methods("POST")
	_ = sv.router.HandleFunc(HandlerPathProposal, sv.handleProposal).Methods("GET")
	_ = sv.router.HandleFunc(HandlerPathProposalVotes, sv.handleVote).Methods("POST")
	_ = sv.router.HandleFunc(HandlerPathProposalQueue, sv.handleQueue).Methods("POST")
	_ = sv.router.HandleFunc(HandlerPathProposalExecute, sv.handleExecute).Methods("POST")
	_ = sv.router.HandleFunc(HandlerPathAccountPower, sv.handleAccountPower).Methods("GET")
	_ = sv.router.HandleFunc(HandlerPathInfo, sv.handleInfo).Methods("GET")
}

type CallView struct {
	Target string `json:"target"`
	Value  uint64 `json:"value"`
	Data   string `json:"data"` // base58
}

func (cv CallView) call() (base.Call, error) {
	target, err := base.NewStringAddress(cv.Target)
	if err != nil {
		return base.Call{}, err
	}

	return base.NewCall(target, cv.Value, base58.Decode(cv.Data)), nil
}

func NewCallView(c base.Call) CallView {
	return CallView{
		Target: c.Target.String(),
		Value:  c.Value,
		Data:   base58.Encode(c.Data),
	}
}

type ProposalView struct {
	ID          string     `json:"id"`
	Proposer    string     `json:"proposer"`
	Calls       []CallView `json:"calls"`
	Description string     `json:"description_digest"`
	Snapshot    string     `json:"snapshot"`
	Deadline    string     `json:"deadline"`
	State       string     `json:"state"`
	Tally       base.Tally `json:"tally"`
	OperationID string     `json:"operation_id,omitempty"`
}

func (sv *Server) proposalView(pr *governor.Proposal) (ProposalView, error) {
	st, err := sv.gv.State(pr.ID())
	if err != nil {
		return ProposalView{}, err
	}

	calls := pr.Calls()
	cvs := make([]CallView, len(calls))
	for i := range calls {
		cvs[i] = NewCallView(calls[i])
	}

	pv := ProposalView{
		ID:          pr.ID().String(),
		Proposer:    pr.Proposer().String(),
		Calls:       cvs,
		Description: pr.DescriptionDigest().String(),
		Snapshot:    localtime.String(pr.Snapshot()),
		Deadline:    localtime.String(pr.Deadline()),
		State:       st.String(),
		Tally:       pr.Tally(),
	}
	if pr.IsQueued() {
		pv.OperationID = pr.OperationID().String()
	}

	return pv, nil
}

func (sv *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	num, den := sv.gv.Policy().QuorumFraction()

	sv.writeJSON(w, map[string]interface{}{
		"governor":           sv.gv.Address().String(),
		"token":              sv.tk.Symbol(),
		"total_supply":       sv.tk.TotalSupply().String(),
		"voting_delay":       sv.gv.Policy().VotingDelay().String(),
		"voting_period":      sv.gv.Policy().VotingPeriod().String(),
		"proposal_threshold": sv.gv.ProposalThreshold().String(),
		"quorum_fraction":    map[string]uint64{"numerator": num, "denominator": den},
	})
}

func (sv *Server) handleSubmitProposal(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Proposer    string     `json:"proposer"`
		Calls       []CallView `json:"calls"`
		Description string     `json:"description"`
	}
	b := readBody(r)
	if sv.IsTraceLog() {
		sv.Log().Trace().Str("body", string(b)).Msg("proposal requested")
	}

	if err := util.JSONUnmarshal(b, &body); err != nil {
		WriteProblemFromError(w, base.ValidationError.Wrap(err))

		return
	}

	proposer, err := base.NewStringAddress(body.Proposer)
	if err != nil {
		WriteProblemFromError(w, base.ValidationError.Wrap(err))

		return
	}

	calls := make([]base.Call, len(body.Calls))
	for i := range body.Calls {
		c, err := body.Calls[i].call()
		if err != nil {
			WriteProblemFromError(w, base.ValidationError.Wrap(err))

			return
		}

		calls[i] = c
	}

	id, err := sv.gv.Propose(proposer, calls, body.Description)
	if err != nil {
		WriteProblemFromError(w, err)

		return
	}

	sv.writeJSON(w, map[string]string{"id": id.String()})
}

func (sv *Server) handleProposal(w http.ResponseWriter, r *http.Request) {
	id, err := parseProposalID(r)
	if err != nil {
		WriteProblemFromError(w, err)

		return
	}

	if b, err := sv.cache.Get(id.String()); err == nil {
		if raw, ok := b.([]byte); ok {
			writeRaw(w, raw)

			return
		}
	}

	pr, found := sv.gv.Proposal(id)
	if !found {
		WriteProblemFromError(w, base.ValidationError.Errorf("unknown proposal, %v", id))

		return
	}

	pv, err := sv.proposalView(pr)
	if err != nil {
		WriteProblemFromError(w, err)

		return
	}

	b, err := util.JSONMarshal(pv)
	if err != nil {
		HTTPError(w, http.StatusInternalServerError)

		return
	}

	_ = sv.cache.Set(id.String(), b, readCacheExpire)

	writeRaw(w, b)
}

func (sv *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	id, err := parseProposalID(r)
	if err != nil {
		WriteProblemFromError(w, err)

		return
	}

	var body struct {
		Voter     string `json:"voter,omitempty"`
		Option    string `json:"option"`
		Reason    string `json:"reason,omitempty"`
		Publickey string `json:"publickey,omitempty"`
		Signature string `json:"signature,omitempty"`
	}
	if err := util.JSONUnmarshal(readBody(r), &body); err != nil {
		WriteProblemFromError(w, base.ValidationError.Wrap(err))

		return
	}

	option, err := base.ParseVoteOption(body.Option)
	if err != nil {
		WriteProblemFromError(w, base.ValidationError.Wrap(err))

		return
	}

	var weight base.Power
	switch {
	case len(body.Publickey) > 0:
		pub, err := parsePublickey(body.Publickey)
		if err != nil {
			WriteProblemFromError(w, base.ValidationError.Wrap(err))

			return
		}

		weight, err = sv.gv.CastVoteBySig(id, option, pub, key.NewSignatureFromString(body.Signature))
		if err != nil {
			WriteProblemFromError(w, err)

			return
		}
	default:
		voter, err := base.NewStringAddress(body.Voter)
		if err != nil {
			WriteProblemFromError(w, base.ValidationError.Wrap(err))

			return
		}

		weight, err = sv.gv.CastVoteWithReason(voter, id, option, body.Reason)
		if err != nil {
			WriteProblemFromError(w, err)

			return
		}
	}

	_ = sv.cache.Remove(id.String())

	sv.writeJSON(w, map[string]string{"weight": weight.String()})
}

func (sv *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	id, err := parseProposalID(r)
	if err != nil {
		WriteProblemFromError(w, err)

		return
	}

	pr, found := sv.gv.Proposal(id)
	if !found {
		WriteProblemFromError(w, base.ValidationError.Errorf("unknown proposal, %v", id))

		return
	}

	opID, err := sv.gv.Queue(pr.Calls(), pr.DescriptionDigest())
	if err != nil {
		WriteProblemFromError(w, err)

		return
	}

	_ = sv.cache.Remove(id.String())

	sv.writeJSON(w, map[string]string{"operation_id": opID.String()})
}

func (sv *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	id, err := parseProposalID(r)
	if err != nil {
		WriteProblemFromError(w, err)

		return
	}

	pr, found := sv.gv.Proposal(id)
	if !found {
		WriteProblemFromError(w, base.ValidationError.Errorf("unknown proposal, %v", id))

		return
	}

	if err := sv.gv.Execute(pr.Calls(), pr.DescriptionDigest()); err != nil {
		WriteProblemFromError(w, err)

		return
	}

	_ = sv.cache.Remove(id.String())

	sv.writeJSON(w, map[string]string{"state": governor.StateExecuted.String()})
}

func (sv *Server) handleAccountPower(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	a, err := base.NewStringAddress(vars["address"])
	if err != nil {
		WriteProblemFromError(w, base.ValidationError.Wrap(err))

		return
	}

	var power base.Power
	switch at := r.URL.Query().Get("at"); {
	case len(at) > 0:
		t, err := localtime.ParseRFC3339(at)
		if err != nil {
			WriteProblemFromError(w, base.ValidationError.Errorf("invalid time, %q", at))

			return
		}

		power, err = sv.lg.GetPastVotes(a, t)
		if err != nil {
			WriteProblemFromError(w, err)

			return
		}
	default:
		power = sv.lg.Votes(a)
	}

	sv.writeJSON(w, map[string]string{
		"address": a.String(),
		"power":   power.String(),
		"balance": sv.tk.BalanceOf(a).String(),
	})
}

func (sv *Server) writeJSON(w http.ResponseWriter, i interface{}) {
	b, err := util.JSONMarshal(i)
	if err != nil {
		HTTPError(w, http.StatusInternalServerError)

		return
	}

	writeRaw(w, b)
}

func writeRaw(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(b)
}

func readBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}
	defer func() {
		_ = r.Body.Close()
	}()

	b, err := io.ReadAll(r.Body)
	if err != nil {
		return nil
	}

	return b
}

func parseProposalID(r *http.Request) (valuehash.L32, error) {
	id, err := valuehash.ParseL32(mux.Vars(r)["id"])
	if err != nil {
		return valuehash.L32{}, base.ValidationError.Wrap(err)
	}

	return id, nil
}

func parsePublickey(s string) (key.Publickey, error) {
	if pub, err := key.NewBTCPublickeyFromString(s); err == nil {
		return pub, nil
	}

	return key.NewStellarPublickeyFromString(s)
}
