package network

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/agora-gov/agora/base"
	"github.com/agora-gov/agora/contract"
	"github.com/agora-gov/agora/governor"
	"github.com/agora-gov/agora/ledger"
	"github.com/agora-gov/agora/token"
	"github.com/agora-gov/agora/util"
	"github.com/agora-gov/agora/util/cache"
	"github.com/agora-gov/agora/util/localtime"
	"github.com/agora-gov/agora/util/valuehash"
	"github.com/btcsuite/btcutil/base58"
)

type testServer struct {
	suite.Suite

	now     time.Time
	alice   base.StringAddress
	boxAddr base.StringAddress
	gv      *governor.Governor
	tk      *token.Token
	ts      *httptest.Server
}

func (t *testServer) SetupSuite() {
	t.alice, _ = base.NewStringAddress("alice")
	t.boxAddr, _ = base.NewStringAddress("box")
}

func (t *testServer) SetupTest() {
	t.now = localtime.Normalize(time.Date(2022, 10, 3, 0, 0, 0, 0, time.UTC))

	nowFunc := func() time.Time { return t.now }

	lg := ledger.NewLedger(nowFunc)
	t.tk = token.NewToken("AGORA", lg)

	t.NoError(t.tk.Mint(t.alice, base.NewPower(1000)))
	t.NoError(t.tk.Delegate(t.alice, t.alice))
	t.now = t.now.Add(time.Minute)

	govAddr, _ := base.NewStringAddress("governor")
	rg := contract.NewRegistry()
	t.NoError(rg.Register(t.boxAddr, contract.NewBox(govAddr)))

	po := governor.NewPolicy()
	t.NoError(po.SetVotingDelay("1m"))
	t.NoError(po.SetVotingPeriod("1h"))

	gv, err := governor.NewGovernor(
		govAddr, po, lg, nil, base.NewACL(govAddr), nil, rg.Resolve, nowFunc)
	t.NoError(err)
	t.gv = gv

	sv := NewServer("localhost:0", gv, lg, t.tk, cache.Dummy{}, nil)
	t.ts = httptest.NewServer(sv.Router())
}

func (t *testServer) TearDownTest() {
	t.ts.Close()
}

func (t *testServer) readBody(res *http.Response) []byte {
	defer func() {
		_ = res.Body.Close()
	}()

	b, err := io.ReadAll(res.Body)
	t.NoError(err)

	return b
}

func (t *testServer) get(path string) (*http.Response, map[string]interface{}) {
	res, err := http.Get(t.ts.URL + path) // nolint:noctx
	t.NoError(err)

	var body map[string]interface{}
	t.NoError(util.JSONUnmarshal(t.readBody(res), &body))

	return res, body
}

func (t *testServer) post(path string, i interface{}) (*http.Response, map[string]interface{}) {
	b, err := util.JSONMarshal(i)
	t.NoError(err)

	res, err := http.Post(t.ts.URL+path, "application/json", bytes.NewReader(b)) // nolint:noctx
	t.NoError(err)

	var body map[string]interface{}
	t.NoError(util.JSONUnmarshal(t.readBody(res), &body))

	return res, body
}

func (t *testServer) submitProposal(value uint64, description string) string {
	res, body := t.post("/proposals", map[string]interface{}{
		"proposer": t.alice.String(),
		"calls": []map[string]interface{}{
			{
				"target": t.boxAddr.String(),
				"value":  0,
				"data":   base58.Encode(contract.NewBoxCalldata(contract.BoxMethodStore, value)),
			},
		},
		"description": description,
	})
	t.Equal(http.StatusOK, res.StatusCode)

	id, ok := body["id"].(string)
	t.True(ok)

	return id
}

func (t *testServer) TestInfo() {
	res, body := t.get("/")
	t.Equal(http.StatusOK, res.StatusCode)
	t.Equal("AGORA", body["token"])
	t.Equal("1000", body["total_supply"])
	t.Equal("governor", body["governor"])
}

func (t *testServer) TestSubmitAndGetProposal() {
	id := t.submitProposal(33, "store 33")

	res, body := t.get("/proposals/" + id)
	t.Equal(http.StatusOK, res.StatusCode)
	t.Equal(id, body["id"])
	t.Equal("PENDING", body["state"])
	t.Equal(t.alice.String(), body["proposer"])
}

func (t *testServer) TestGetUnknownProposal() {
	res, _ := t.get("/proposals/" + valuehash.RandomSHA256().String())
	t.Equal(http.StatusBadRequest, res.StatusCode)
	t.Equal(ProblemMimetype, res.Header.Get("Content-Type"))
}

func (t *testServer) TestVote() {
	id := t.submitProposal(33, "store 33")

	t.now = t.now.Add(time.Minute + time.Second)

	res, body := t.post("/proposals/"+id+"/votes", map[string]interface{}{
		"voter":  t.alice.String(),
		"option": "FOR",
		"reason": "looks good",
	})
	t.Equal(http.StatusOK, res.StatusCode)
	t.Equal("1000", body["weight"])

	// double vote is a conflict
	res, _ = t.post("/proposals/"+id+"/votes", map[string]interface{}{
		"voter":  t.alice.String(),
		"option": "AGAINST",
	})
	t.Equal(http.StatusConflict, res.StatusCode)
}

func (t *testServer) TestVoteInvalidOption() {
	id := t.submitProposal(33, "store 33")

	t.now = t.now.Add(time.Minute + time.Second)

	res, _ := t.post("/proposals/"+id+"/votes", map[string]interface{}{
		"voter":  t.alice.String(),
		"option": "MAYBE",
	})
	t.Equal(http.StatusBadRequest, res.StatusCode)
}

func (t *testServer) TestExecuteGateless() {
	id := t.submitProposal(666, "store 666")

	pid, err := valuehash.ParseL32(id)
	t.NoError(err)

	t.now = t.now.Add(time.Minute + time.Second)
	_, err = t.gv.CastVote(t.alice, pid, base.VoteFor)
	t.NoError(err)

	t.now = t.now.Add(time.Hour)

	res, body := t.post("/proposals/"+id+"/execute", nil)
	t.Equal(http.StatusOK, res.StatusCode)
	t.Equal("EXECUTED", body["state"])

	res, getBody := t.get("/proposals/" + id)
	t.Equal(http.StatusOK, res.StatusCode)
	t.Equal("EXECUTED", getBody["state"])
}

func (t *testServer) TestAccountPower() {
	res, body := t.get("/accounts/" + t.alice.String() + "/power")
	t.Equal(http.StatusOK, res.StatusCode)
	t.Equal("1000", body["power"])
	t.Equal("1000", body["balance"])

	at := localtime.RFC3339(t.now.Add(-time.Minute - time.Second))
	res, body = t.get("/accounts/" + t.alice.String() + "/power?at=" + at)
	t.Equal(http.StatusOK, res.StatusCode)
	t.Equal("0", body["power"])
}

func (t *testServer) TestAccountPowerFutureRejected() {
	at := localtime.RFC3339(t.now.Add(time.Hour))
	res, _ := t.get("/accounts/" + t.alice.String() + "/power?at=" + at)
	t.Equal(http.StatusBadRequest, res.StatusCode)
}

func TestServer(t *testing.T) {
	suite.Run(t, new(testServer))
}
