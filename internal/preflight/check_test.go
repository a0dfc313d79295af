package preflight

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	verrors "github.com/Aman-CERP/validate/internal/errors"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusOK, "OK"},
		{StatusWarn, "WARN"},
		{StatusFail, "FAIL"},
		{Status(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestResult_OKNeverCarriesRemediation(t *testing.T) {
	// Given: results built by each constructor
	ok := OK("disk", "plenty of space")
	warn := Warn("disk", "getting full", "clean up")
	fail := Fail("disk", "full", "add storage")

	// Then: only non-OK results carry remediation
	assert.Equal(t, StatusOK, ok.Status())
	assert.Empty(t, ok.Remediation())
	assert.Equal(t, "clean up", warn.Remediation())
	assert.Equal(t, "add storage", fail.Remediation())
	assert.Equal(t, "disk", fail.Group())
}

func TestResult_WithList_CopiesItems(t *testing.T) {
	items := []string{"a", "b"}
	r := Fail("configuration", "Missing dependencies!", "install").WithList(items...)

	items[0] = "mutated"

	assert.Equal(t, []string{"a", "b"}, r.List())
	assert.Nil(t, OK("x", "y").List())
}

func TestResult_MarshalJSON(t *testing.T) {
	r := Warn("poller", "stale", "restart poller").attribute("poller.heartbeat", "poller")

	data, err := r.MarshalJSON()

	require.NoError(t, err)
	assert.JSONEq(t,
		`{"status":"WARN","group":"poller","check":"poller.heartbeat","message":"stale","remediation":"restart poller"}`,
		string(data))
}

func TestStandard_DefaultsGroup(t *testing.T) {
	c := Standard("no.group", nil, nil)

	assert.Equal(t, []string{DefaultGroup}, c.Groups())
	assert.Equal(t, KindStandard, c.Kind())
	assert.False(t, c.Optional())
}

func TestPrecondition_Kind(t *testing.T) {
	c := Precondition("config.exists", "configuration", nil)

	assert.Equal(t, KindPrecondition, c.Kind())
	assert.Equal(t, []string{"configuration"}, c.Groups())
	assert.Equal(t, "precondition", c.Kind().String())
}

func TestFunc_GroupsReturnsCopy(t *testing.T) {
	c := Standard("x", []string{"disk"}, nil)

	g := c.Groups()
	g[0] = "changed"

	assert.Equal(t, []string{"disk"}, c.Groups())
}

func TestFunc_NilBodyReturnsNothing(t *testing.T) {
	results, err := Standard("x", nil, nil).Execute(context.Background(), &Env{})

	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestAbortFrom(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, AbortFrom(nil))
	})

	t.Run("abort in chain is returned", func(t *testing.T) {
		a := NewAbort("config.yaml does not exist", "cp config.yaml.example config.yaml")
		got := AbortFrom(errors.Join(errors.New("ctx"), a))
		assert.Same(t, a, got)
	})

	t.Run("coded error uses suggestion", func(t *testing.T) {
		err := verrors.New(verrors.ErrCodeDBUnreachable, "Error connecting to your database", nil).
			WithSuggestion("check database.dsn")
		got := AbortFrom(err)
		assert.Equal(t, "Error connecting to your database", got.Message)
		assert.Equal(t, "check database.dsn", got.Remediation)
		assert.ErrorIs(t, got, err)
	})

	t.Run("plain error", func(t *testing.T) {
		got := AbortFrom(errors.New("boom"))
		assert.Equal(t, "boom", got.Message)
		assert.Empty(t, got.Remediation)
	})
}

func TestEnv_Setting(t *testing.T) {
	env := &Env{Settings: map[string]string{"database.dsn": "x.db"}}

	v, ok := env.Setting("database.dsn")
	assert.True(t, ok)
	assert.Equal(t, "x.db", v)

	_, ok = env.Setting("missing")
	assert.False(t, ok)

	var nilEnv *Env
	_, ok = nilEnv.Setting("database.dsn")
	assert.False(t, ok)
}
